package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Guyuepp/reddit-post-votes/domain"
	"github.com/Guyuepp/reddit-post-votes/internal/rest/middleware"
	"github.com/Guyuepp/reddit-post-votes/internal/rest/request"
	"github.com/Guyuepp/reddit-post-votes/internal/rest/response"
)

// VoteHandler represent the httphandler for votes
type VoteHandler struct {
	Service  domain.VoteUsecase
	Identity domain.IdentitySource
}

func NewVoteHandler(svc domain.VoteUsecase) *VoteHandler {
	return &VoteHandler{
		Service:  svc,
		Identity: middleware.ContextIdentity{},
	}
}

// FetchVotes is the vote query service
func (h *VoteHandler) FetchVotes(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	votes, err := h.Service.FetchVotes(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewVotesFromDomain(votes))
}

// CastVote is the vote mutation service; it stores the vote without any gate
func (h *VoteHandler) CastVote(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	viewer, ok := h.Identity.Viewer(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, ResponseError{Message: domain.ErrUnauthenticated.Error()})
		return
	}

	var req request.Vote
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		return
	}

	if err := h.Service.CastVote(c.Request.Context(), req.ToDomain(id, viewer.Username)); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Card renders the vote control of a post for the current viewer
func (h *VoteHandler) Card(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	card, err := h.Service.Card(c.Request.Context(), id, h.Identity)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewCardFromDomain(card))
}

// Vote handles a click on an arrow of the vote control
func (h *VoteHandler) Vote(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	var req request.VoteAction
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		return
	}
	dir, err := domain.ParseDirection(req.Direction)
	if err != nil {
		abortWithError(c, err)
		return
	}

	card, submitted, err := h.Service.Vote(c.Request.Context(), id, h.Identity, dir)
	if err != nil {
		abortWithError(c, err)
		return
	}

	res := response.NewCardFromDomain(card)
	res.Submitted = submitted
	if card.Notice != "" && !submitted {
		c.JSON(http.StatusUnauthorized, res)
		return
	}
	c.JSON(http.StatusOK, res)
}
