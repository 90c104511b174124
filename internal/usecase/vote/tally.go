package vote

import "github.com/Guyuepp/reddit-post-votes/domain"

// Tally reduces a vote list to the number displayed next to a post.
//
// An empty list is 0. Otherwise it is the net of up (+1) and down (-1) votes,
// except that a net of zero is shown as +1 or -1 following the first vote in
// the list. That makes the result depend on the order the query service
// returned, so a 1-up/1-down post may flip between refreshes. This is accepted
// behavior: a post with votes never displays 0.
func Tally(votes []domain.Vote) int {
	if len(votes) == 0 {
		return 0
	}

	net := 0
	for i := range votes {
		if votes[i].Upvote {
			net++
		} else {
			net--
		}
	}

	if net == 0 {
		if votes[0].Upvote {
			return 1
		}
		return -1
	}
	return net
}
