package vote_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Guyuepp/reddit-post-votes/domain"
	"github.com/Guyuepp/reddit-post-votes/internal/usecase/vote"
)

func votes(ups ...bool) []domain.Vote {
	res := make([]domain.Vote, len(ups))
	for i, up := range ups {
		res[i] = domain.Vote{PostID: 1, Username: string(rune('a' + i)), Upvote: up}
	}
	return res
}

func TestTally(t *testing.T) {
	tests := []struct {
		name  string
		votes []domain.Vote
		want  int
	}{
		{name: "empty", votes: nil, want: 0},
		{name: "empty slice", votes: []domain.Vote{}, want: 0},
		{name: "single up", votes: votes(true), want: 1},
		{name: "single down", votes: votes(false), want: -1},
		{name: "net up", votes: votes(true, true, false), want: 1},
		{name: "net down", votes: votes(false, false, false, true), want: -2},
		{name: "all up", votes: votes(true, true, true, true), want: 4},
		{name: "tie, first up", votes: votes(true, false), want: 1},
		{name: "tie, first down", votes: votes(false, true), want: -1},
		{name: "larger tie, first down", votes: votes(false, true, true, false), want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vote.Tally(tt.votes))
		})
	}
}

func TestTallyTieDependsOnOrder(t *testing.T) {
	assert.Equal(t, 1, vote.Tally(votes(true, false)))
	assert.Equal(t, -1, vote.Tally(votes(false, true)))
}

func TestTallyIsRepeatable(t *testing.T) {
	list := votes(true, false, false, true, true)
	first := vote.Tally(list)
	for range 10 {
		assert.Equal(t, first, vote.Tally(list))
	}
}

func TestTallyNeverZeroWithVotes(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for range 500 {
		n := 1 + r.IntN(20)
		ups := make([]bool, n)
		net := 0
		for i := range ups {
			ups[i] = r.IntN(2) == 0
			if ups[i] {
				net++
			} else {
				net--
			}
		}

		got := vote.Tally(votes(ups...))
		assert.NotZero(t, got)
		if net != 0 {
			assert.Equal(t, net, got)
		} else if ups[0] {
			assert.Equal(t, 1, got)
		} else {
			assert.Equal(t, -1, got)
		}
	}
}
