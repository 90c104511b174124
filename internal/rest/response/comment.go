package response

import "github.com/Guyuepp/reddit-post-votes/domain"

type Comment struct {
	ID        int64  `json:"id"`
	PostID    int64  `json:"post_id"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

func NewCommentFromDomain(c *domain.Comment) Comment {
	return Comment{
		ID:        c.ID,
		PostID:    c.PostID,
		Username:  c.Username,
		Text:      c.Text,
		CreatedAt: c.CreatedAt.Format(DateTimeFormat),
	}
}
