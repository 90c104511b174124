package response

import "github.com/Guyuepp/reddit-post-votes/domain"

type Vote struct {
	PostID   int64  `json:"post_id"`
	Username string `json:"username"`
	Upvote   bool   `json:"upvote"`
}

func NewVotesFromDomain(votes []domain.Vote) []Vote {
	res := make([]Vote, len(votes))
	for i := range votes {
		res[i] = Vote{
			PostID:   votes[i].PostID,
			Username: votes[i].Username,
			Upvote:   votes[i].Upvote,
		}
	}
	return res
}

// Card is the vote control of a post. Votes is null until a vote list was loaded.
type Card struct {
	PostID    int64  `json:"post_id"`
	Loaded    bool   `json:"loaded"`
	Votes     *int   `json:"votes"`
	Vote      string `json:"vote"`
	Submitted bool   `json:"submitted,omitempty"`
	Notice    string `json:"notice,omitempty"`
}

func NewCardFromDomain(c domain.PostCard) Card {
	res := Card{
		PostID: c.PostID,
		Loaded: c.Loaded,
		Vote:   c.Vote.String(),
		Notice: c.Notice,
	}
	if c.Loaded {
		tally := c.Tally
		res.Votes = &tally
	}
	return res
}
