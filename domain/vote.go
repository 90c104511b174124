package domain

import (
	"context"
	"time"
)

// Vote is one viewer's directional opinion on one post.
// At most one vote exists per (PostID, Username); storage enforces it.
type Vote struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id" validate:"required,gt=0"`
	Username  string    `json:"username" validate:"required,max=64"`
	Upvote    bool      `json:"upvote"`
	CreatedAt time.Time `json:"created_at"`
}

// Direction is a viewer's vote state on a post.
type Direction int8

const (
	DirectionDown Direction = iota - 1
	DirectionNone
	DirectionUp
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return "none"
	}
}

// DirectionOf maps a stored upvote flag to a Direction.
func DirectionOf(upvote bool) Direction {
	if upvote {
		return DirectionUp
	}
	return DirectionDown
}

// ParseDirection accepts "up" or "down".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return DirectionUp, nil
	case "down":
		return DirectionDown, nil
	default:
		return DirectionNone, ErrBadParamInput
	}
}

// VoteQueryService returns the current vote list for a post, in service order.
type VoteQueryService interface {
	FetchVotes(ctx context.Context, postID int64) ([]Vote, error)
}

// VoteMutationService persists one vote.
type VoteMutationService interface {
	CastVote(ctx context.Context, v Vote) error
}

// VoteDBRepository is the persistent store of votes.
type VoteDBRepository interface {
	// FetchByPost returns votes of a post in insertion order.
	FetchByPost(ctx context.Context, postID int64) ([]Vote, error)

	// Upsert stores v, replacing the previous vote of the same (post, username).
	// v is not modified; the stored row keeps its original ID and CreatedAt.
	Upsert(ctx context.Context, v *Vote) error
}

// VoteCache caches vote lists per post.
//
// Every invalidation bumps a per-post version. A list loaded from storage is
// only cached when the version read before the load is still current, so a
// load that raced a vote write cannot put the old list back.
type VoteCache interface {
	// GetVotes returns ErrCacheMiss when nothing is cached.
	// expired reports that the entry passed its logical expiry and should be rebuilt.
	GetVotes(ctx context.Context, postID int64) (votes []Vote, expired bool, err error)
	// VotesVersion returns the current version of a post's list, 0 if never invalidated.
	VotesVersion(ctx context.Context, postID int64) (int64, error)
	// SetVotes caches votes unless the version moved past version. stored is false when skipped.
	SetVotes(ctx context.Context, postID int64, votes []Vote, ttl time.Duration, version int64) (stored bool, err error)
	// InvalidateVotes drops the cached list and bumps the version.
	InvalidateVotes(ctx context.Context, postID int64) error
}

// VoteRepository coordinates VoteDBRepository and VoteCache.
type VoteRepository interface {
	FetchByPost(ctx context.Context, postID int64) ([]Vote, error)
	Upsert(ctx context.Context, v *Vote) error
}

// PostCard is what a viewer sees of a post's vote control.
type PostCard struct {
	PostID int64
	// Loaded is false until a vote list has been delivered; Tally is meaningless until then.
	Loaded bool
	Tally  int
	Vote   Direction
	// Notice is a short user-facing message, e.g. a sign-in prompt.
	Notice string
}

type VoteUsecase interface {
	VoteQueryService
	VoteMutationService

	// Card renders the vote control of a post for viewer.
	Card(ctx context.Context, postID int64, viewer IdentitySource) (PostCard, error)

	// Vote runs a viewer's click through the vote gate and returns the refreshed card.
	// submitted is false when the gate dropped the click.
	Vote(ctx context.Context, postID int64, viewer IdentitySource, dir Direction) (card PostCard, submitted bool, err error)
}
