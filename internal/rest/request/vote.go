package request

import "github.com/Guyuepp/reddit-post-votes/domain"

// Vote is the raw mutation body
type Vote struct {
	Upvote *bool `json:"upvote" binding:"required"`
}

func (r *Vote) ToDomain(postID int64, username string) domain.Vote {
	return domain.Vote{
		PostID:   postID,
		Username: username,
		Upvote:   *r.Upvote,
	}
}

// VoteAction is a click on one of the vote arrows
type VoteAction struct {
	Direction string `json:"direction" binding:"required,oneof=up down"`
}
