package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Guyuepp/reddit-post-votes/domain"
	"github.com/Guyuepp/reddit-post-votes/internal/rest/response"
	"github.com/Guyuepp/reddit-post-votes/internal/usecase/post"
)

const (
	DefaultPageNum = 10
	PageMinNum     = 1
	PageMaxNum     = 30
)

// PostHandler represent the httphandler for posts
type PostHandler struct {
	Service   domain.PostUsecase
	Selection domain.PostSelection
}

func NewPostHandler(svc domain.PostUsecase, sel domain.PostSelection) *PostHandler {
	return &PostHandler{
		Service:   svc,
		Selection: sel,
	}
}

// FetchPosts will fetch the posts based on given params
func (h *PostHandler) FetchPosts(c *gin.Context) {
	num, err := strconv.Atoi(c.Query("num"))
	if err != nil || num < PageMinNum || num > PageMaxNum {
		num = DefaultPageNum
	}

	posts, nextCursor, err := h.Service.Fetch(c.Request.Context(), c.Query("cursor"), int64(num))
	if err != nil {
		abortWithError(c, err)
		return
	}

	res := make([]response.Post, len(posts))
	for i := range posts {
		res[i] = response.NewPostFromDomain(&posts[i])
	}
	c.Header("X-Cursor", nextCursor)
	c.JSON(http.StatusOK, res)
}

// GetByID renders the detail view of a post
func (h *PostHandler) GetByID(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	p, err := h.Service.GetByID(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewPostFromDomain(&p))
}

// Select loads the post from storage, hands it to the detail view and redirects there.
// The request body is ignored.
func (h *PostHandler) Select(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	p, err := h.Service.Load(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	handoff := post.NewHandoff(h.Selection, ginNavigator{c: c})
	if err := handoff.SelectPost(c.Request.Context(), p); err != nil {
		logrus.Errorf("failed to select post %d: %v", id, err)
		abortWithError(c, err)
	}
}

// ginNavigator navigates by redirecting the client
type ginNavigator struct {
	c *gin.Context
}

func (n ginNavigator) NavigateToPost(_ context.Context, id int64) error {
	n.c.Redirect(http.StatusSeeOther, fmt.Sprintf("/posts/%d", id))
	return nil
}
