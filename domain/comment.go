package domain

import (
	"context"
	"time"
)

// Comment domain model
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentRepository 数据存取接口
type CommentRepository interface {
	// FetchByPosts returns the comments of all given posts, oldest first.
	FetchByPosts(ctx context.Context, postIDs []int64) ([]Comment, error)
}
