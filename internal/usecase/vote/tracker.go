package vote

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Guyuepp/reddit-post-votes/domain"
	"github.com/Guyuepp/reddit-post-votes/internal/observability"
)

// Tracker follows one viewer's vote on one displayed post.
//
// Its state is recomputed from every vote list delivered by the query service.
// Refreshes are numbered when issued; a result older than the last applied one
// is dropped, so a slow early response cannot overwrite a newer list. After
// Close every late result is dropped as well.
type Tracker struct {
	postID   int64
	query    domain.VoteQueryService
	mutation domain.VoteMutationService
	identity domain.IdentitySource
	notifier domain.Notifier

	optimistic bool

	done  context.Context
	close context.CancelFunc

	mu       sync.Mutex
	issued   uint64
	applied  uint64
	loaded   bool
	tally    int
	byUser   map[string]domain.Direction
	current  domain.Direction
	inFlight domain.Direction
	closed   bool
}

type Option func(*Tracker)

// WithOptimistic flips the viewer's vote as soon as a request passes the gate,
// and rolls it back if the mutation fails.
func WithOptimistic() Option {
	return func(t *Tracker) {
		t.optimistic = true
	}
}

func NewTracker(
	postID int64,
	query domain.VoteQueryService,
	mutation domain.VoteMutationService,
	identity domain.IdentitySource,
	notifier domain.Notifier,
	opts ...Option,
) *Tracker {
	done, cancel := context.WithCancel(context.Background())
	t := &Tracker{
		postID:   postID,
		query:    query,
		mutation: mutation,
		identity: identity,
		notifier: notifier,
		done:     done,
		close:    cancel,
		byUser:   map[string]domain.Direction{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Refresh fetches the current vote list and applies it unless a newer list
// has already been applied. A failed fetch leaves the state untouched.
func (t *Tracker) Refresh(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return domain.ErrTrackerClosed
	}
	t.issued++
	gen := t.issued
	t.mu.Unlock()

	ctx, cancel := t.bind(ctx)
	defer cancel()

	votes, err := t.query.FetchVotes(ctx, t.postID)
	if err != nil {
		return fmt.Errorf("fetch votes of post %d: %w", t.postID, err)
	}

	viewer, _ := t.identity.Viewer(ctx)
	t.apply(gen, votes, viewer.Username)
	return nil
}

func (t *Tracker) apply(gen uint64, votes []domain.Vote, username string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		observability.RefreshDiscarded.WithLabelValues("closed").Inc()
		return
	}
	if gen <= t.applied {
		observability.RefreshDiscarded.WithLabelValues("stale").Inc()
		logrus.Debugf("post %d: dropped vote list #%d, #%d already applied", t.postID, gen, t.applied)
		return
	}

	byUser := make(map[string]domain.Direction, len(votes))
	for i := range votes {
		byUser[votes[i].Username] = domain.DirectionOf(votes[i].Upvote)
	}

	t.applied = gen
	t.loaded = true
	t.tally = Tally(votes)
	t.byUser = byUser
	t.current = domain.DirectionNone
	if username != "" {
		if d, ok := byUser[username]; ok {
			t.current = d
		}
	}
}

// Snapshot returns what the vote control should show now.
func (t *Tracker) Snapshot() domain.PostCard {
	t.mu.Lock()
	defer t.mu.Unlock()

	return domain.PostCard{
		PostID: t.postID,
		Loaded: t.loaded,
		Tally:  t.tally,
		Vote:   t.current,
	}
}

// Current returns the viewer's vote as last derived.
func (t *Tracker) Current() domain.Direction {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// RequestVote submits dir for the viewer when it changes the viewer's vote.
//
// Without a viewer identity a sign-in notice is sent and nothing else happens.
// Clicking the direction already recorded, or one already being submitted, is
// a no-op. On success the vote list is fetched again; the new vote shows up
// once that refresh lands (or immediately with WithOptimistic).
func (t *Tracker) RequestVote(ctx context.Context, dir domain.Direction) (bool, error) {
	if dir != domain.DirectionUp && dir != domain.DirectionDown {
		return false, domain.ErrBadParamInput
	}

	viewer, ok := t.identity.Viewer(ctx)
	if !ok || viewer.Username == "" {
		observability.VoteRequests.WithLabelValues(observability.OutcomeUnauthenticated).Inc()
		t.notifier.Notify(ctx, domain.NoticeSignInToVote)
		return false, nil
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return false, domain.ErrTrackerClosed
	}
	if t.current == dir {
		t.mu.Unlock()
		observability.VoteRequests.WithLabelValues(observability.OutcomeUnchanged).Inc()
		return false, nil
	}
	if t.inFlight == dir {
		t.mu.Unlock()
		observability.VoteRequests.WithLabelValues(observability.OutcomeInFlight).Inc()
		return false, nil
	}
	prev := t.current
	t.inFlight = dir
	if t.optimistic {
		t.current = dir
	}
	t.mu.Unlock()

	mctx, cancel := t.bind(ctx)
	err := t.mutation.CastVote(mctx, domain.Vote{
		PostID:   t.postID,
		Username: viewer.Username,
		Upvote:   dir == domain.DirectionUp,
	})
	cancel()

	t.mu.Lock()
	if t.inFlight == dir {
		t.inFlight = domain.DirectionNone
	}
	if err != nil && t.optimistic && t.current == dir {
		t.current = prev
	}
	t.mu.Unlock()

	if err != nil {
		observability.VoteRequests.WithLabelValues(observability.OutcomeFailed).Inc()
		return false, fmt.Errorf("cast vote on post %d: %w", t.postID, err)
	}
	observability.VoteRequests.WithLabelValues(observability.OutcomeSubmitted).Inc()

	if err := t.Refresh(ctx); err != nil {
		// the vote is stored; the display catches up on the next refresh
		logrus.Warnf("refresh after vote on post %d: %v", t.postID, err)
	}
	return true, nil
}

// Close tears the tracker down: in-flight calls are cancelled and their results dropped.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.close()
}

// bind derives a context that is also cancelled by Close.
func (t *Tracker) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(t.done, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
