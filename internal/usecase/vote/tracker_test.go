package vote_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guyuepp/reddit-post-votes/domain"
	"github.com/Guyuepp/reddit-post-votes/internal/usecase/vote"
)

const postID = int64(42)

type queryStub struct {
	mu    sync.Mutex
	calls int
	fetch func(ctx context.Context, call int) ([]domain.Vote, error)
}

func (q *queryStub) FetchVotes(ctx context.Context, _ int64) ([]domain.Vote, error) {
	q.mu.Lock()
	q.calls++
	n := q.calls
	q.mu.Unlock()
	return q.fetch(ctx, n)
}

func (q *queryStub) Calls() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}

// listQuery serves lists in order and repeats the last one.
func listQuery(lists ...[]domain.Vote) *queryStub {
	return &queryStub{fetch: func(_ context.Context, call int) ([]domain.Vote, error) {
		if call > len(lists) {
			return lists[len(lists)-1], nil
		}
		return lists[call-1], nil
	}}
}

type mutationStub struct {
	mu    sync.Mutex
	votes []domain.Vote
	cast  func(ctx context.Context, v domain.Vote) error
}

func (m *mutationStub) CastVote(ctx context.Context, v domain.Vote) error {
	m.mu.Lock()
	m.votes = append(m.votes, v)
	m.mu.Unlock()
	if m.cast == nil {
		return nil
	}
	return m.cast(ctx, v)
}

func (m *mutationStub) Votes() []domain.Vote {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Vote(nil), m.votes...)
}

type identityStub struct {
	username string
}

func (i identityStub) Viewer(context.Context) (domain.Viewer, bool) {
	if i.username == "" {
		return domain.Viewer{}, false
	}
	return domain.Viewer{Username: i.username}, true
}

type notifierStub struct {
	mu       sync.Mutex
	messages []string
}

func (n *notifierStub) Notify(_ context.Context, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

func ballot(username string, up bool) domain.Vote {
	return domain.Vote{PostID: postID, Username: username, Upvote: up}
}

func newTracker(q *queryStub, m *mutationStub, viewer string, n *notifierStub, opts ...vote.Option) *vote.Tracker {
	if n == nil {
		n = &notifierStub{}
	}
	return vote.NewTracker(postID, q, m, identityStub{username: viewer}, n, opts...)
}

func TestTrackerPlaceholderBeforeFirstList(t *testing.T) {
	tr := newTracker(listQuery(nil), &mutationStub{}, "alice", nil)
	defer tr.Close()

	card := tr.Snapshot()
	assert.False(t, card.Loaded)
	assert.Equal(t, 0, card.Tally)
	assert.Equal(t, domain.DirectionNone, card.Vote)
	assert.Equal(t, postID, card.PostID)
}

func TestTrackerDerivesCurrentVote(t *testing.T) {
	t.Run("alice voted up", func(t *testing.T) {
		q := listQuery([]domain.Vote{ballot("bob", false), ballot("alice", true), ballot("carol", true)})
		tr := newTracker(q, &mutationStub{}, "alice", nil)
		defer tr.Close()

		require.NoError(t, tr.Refresh(context.Background()))
		card := tr.Snapshot()
		assert.True(t, card.Loaded)
		assert.Equal(t, domain.DirectionUp, card.Vote)
		assert.Equal(t, 1, card.Tally)
	})

	t.Run("alice absent", func(t *testing.T) {
		q := listQuery([]domain.Vote{ballot("bob", false), ballot("carol", false)})
		tr := newTracker(q, &mutationStub{}, "alice", nil)
		defer tr.Close()

		require.NoError(t, tr.Refresh(context.Background()))
		assert.Equal(t, domain.DirectionNone, tr.Current())
		assert.Equal(t, -2, tr.Snapshot().Tally)
	})

	t.Run("no viewer", func(t *testing.T) {
		q := listQuery([]domain.Vote{ballot("alice", true)})
		tr := newTracker(q, &mutationStub{}, "", nil)
		defer tr.Close()

		require.NoError(t, tr.Refresh(context.Background()))
		assert.Equal(t, domain.DirectionNone, tr.Current())
		assert.Equal(t, 1, tr.Snapshot().Tally)
	})

	t.Run("vote removed by a later list", func(t *testing.T) {
		q := listQuery([]domain.Vote{ballot("alice", true)}, []domain.Vote{ballot("bob", true)})
		tr := newTracker(q, &mutationStub{}, "alice", nil)
		defer tr.Close()

		require.NoError(t, tr.Refresh(context.Background()))
		assert.Equal(t, domain.DirectionUp, tr.Current())
		require.NoError(t, tr.Refresh(context.Background()))
		assert.Equal(t, domain.DirectionNone, tr.Current())
	})
}

func TestTrackerRepeatClickIsNoop(t *testing.T) {
	q := listQuery([]domain.Vote{ballot("alice", true)})
	m := &mutationStub{}
	tr := newTracker(q, m, "alice", nil)
	defer tr.Close()

	require.NoError(t, tr.Refresh(context.Background()))

	submitted, err := tr.RequestVote(context.Background(), domain.DirectionUp)
	require.NoError(t, err)
	assert.False(t, submitted)
	assert.Empty(t, m.Votes())
	assert.Equal(t, 1, q.Calls())
	assert.Equal(t, domain.DirectionUp, tr.Current())
}

func TestTrackerChangesVote(t *testing.T) {
	q := listQuery(
		[]domain.Vote{ballot("alice", true), ballot("bob", true)},
		[]domain.Vote{ballot("alice", false), ballot("bob", true)},
	)
	m := &mutationStub{}
	tr := newTracker(q, m, "alice", nil)
	defer tr.Close()

	require.NoError(t, tr.Refresh(context.Background()))
	assert.Equal(t, 2, tr.Snapshot().Tally)

	submitted, err := tr.RequestVote(context.Background(), domain.DirectionDown)
	require.NoError(t, err)
	assert.True(t, submitted)

	require.Len(t, m.Votes(), 1)
	assert.Equal(t, domain.Vote{PostID: postID, Username: "alice", Upvote: false}, m.Votes()[0])
	assert.Equal(t, 2, q.Calls())

	card := tr.Snapshot()
	assert.Equal(t, domain.DirectionDown, card.Vote)
	// 1 up, 1 down, first is down
	assert.Equal(t, -1, card.Tally)
}

func TestTrackerFirstVoteFromNone(t *testing.T) {
	q := listQuery(nil, []domain.Vote{ballot("alice", true)})
	m := &mutationStub{}
	tr := newTracker(q, m, "alice", nil)
	defer tr.Close()

	require.NoError(t, tr.Refresh(context.Background()))
	submitted, err := tr.RequestVote(context.Background(), domain.DirectionUp)
	require.NoError(t, err)
	assert.True(t, submitted)
	assert.Equal(t, domain.DirectionUp, tr.Current())
	assert.Equal(t, 1, tr.Snapshot().Tally)
}

func TestTrackerUnauthenticated(t *testing.T) {
	q := listQuery([]domain.Vote{ballot("bob", true)})
	m := &mutationStub{}
	n := &notifierStub{}
	tr := newTracker(q, m, "", n)
	defer tr.Close()

	require.NoError(t, tr.Refresh(context.Background()))
	before := tr.Snapshot()

	submitted, err := tr.RequestVote(context.Background(), domain.DirectionUp)
	require.NoError(t, err)
	assert.False(t, submitted)
	assert.Empty(t, m.Votes())
	assert.Equal(t, []string{domain.NoticeSignInToVote}, n.messages)
	assert.Equal(t, before, tr.Snapshot())
	assert.Equal(t, 1, q.Calls())
}

func TestTrackerRejectsInvalidDirection(t *testing.T) {
	m := &mutationStub{}
	tr := newTracker(listQuery(nil), m, "alice", nil)
	defer tr.Close()

	_, err := tr.RequestVote(context.Background(), domain.DirectionNone)
	assert.ErrorIs(t, err, domain.ErrBadParamInput)
	assert.Empty(t, m.Votes())
}

func TestTrackerMutationFailure(t *testing.T) {
	boom := errors.New("unexpected error")
	q := listQuery([]domain.Vote{ballot("alice", true)})
	m := &mutationStub{cast: func(context.Context, domain.Vote) error { return boom }}
	tr := newTracker(q, m, "alice", nil)
	defer tr.Close()

	require.NoError(t, tr.Refresh(context.Background()))
	before := tr.Snapshot()

	submitted, err := tr.RequestVote(context.Background(), domain.DirectionDown)
	assert.ErrorIs(t, err, boom)
	assert.False(t, submitted)
	assert.Len(t, m.Votes(), 1)
	assert.Equal(t, 1, q.Calls())
	assert.Equal(t, before, tr.Snapshot())

	// the failed attempt does not block a retry
	m.cast = nil
	submitted, err = tr.RequestVote(context.Background(), domain.DirectionDown)
	require.NoError(t, err)
	assert.True(t, submitted)
	assert.Len(t, m.Votes(), 2)
}

func TestTrackerRefreshFailureKeepsState(t *testing.T) {
	q := &queryStub{fetch: func(_ context.Context, call int) ([]domain.Vote, error) {
		if call == 1 {
			return []domain.Vote{ballot("alice", false)}, nil
		}
		return nil, errors.New("unexpected error")
	}}
	tr := newTracker(q, &mutationStub{}, "alice", nil)
	defer tr.Close()

	require.NoError(t, tr.Refresh(context.Background()))
	before := tr.Snapshot()
	assert.Error(t, tr.Refresh(context.Background()))
	assert.Equal(t, before, tr.Snapshot())
}

func TestTrackerDropsStaleList(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	q := &queryStub{fetch: func(_ context.Context, call int) ([]domain.Vote, error) {
		if call == 1 {
			close(started)
			<-release
			return []domain.Vote{ballot("alice", true), ballot("bob", true)}, nil
		}
		return []domain.Vote{ballot("alice", false)}, nil
	}}
	tr := newTracker(q, &mutationStub{}, "alice", nil)
	defer tr.Close()

	slow := make(chan error, 1)
	go func() {
		slow <- tr.Refresh(context.Background())
	}()
	<-started

	require.NoError(t, tr.Refresh(context.Background()))
	close(release)
	require.NoError(t, <-slow)

	card := tr.Snapshot()
	assert.Equal(t, domain.DirectionDown, card.Vote)
	assert.Equal(t, -1, card.Tally)
}

func TestTrackerDropsResultsAfterClose(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	q := &queryStub{fetch: func(context.Context, int) ([]domain.Vote, error) {
		close(started)
		<-release
		return []domain.Vote{ballot("alice", true)}, nil
	}}
	tr := newTracker(q, &mutationStub{}, "alice", nil)

	done := make(chan error, 1)
	go func() {
		done <- tr.Refresh(context.Background())
	}()
	<-started
	tr.Close()
	close(release)
	require.NoError(t, <-done)

	assert.False(t, tr.Snapshot().Loaded)
	assert.Equal(t, domain.DirectionNone, tr.Current())
}

func TestTrackerCloseCancelsInFlight(t *testing.T) {
	started := make(chan struct{})
	q := &queryStub{fetch: func(ctx context.Context, _ int) ([]domain.Vote, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	tr := newTracker(q, &mutationStub{}, "alice", nil)

	done := make(chan error, 1)
	go func() {
		done <- tr.Refresh(context.Background())
	}()
	<-started
	tr.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("refresh was not cancelled by Close")
	}
}

func TestTrackerClosed(t *testing.T) {
	m := &mutationStub{}
	tr := newTracker(listQuery(nil), m, "alice", nil)
	tr.Close()

	assert.ErrorIs(t, tr.Refresh(context.Background()), domain.ErrTrackerClosed)
	_, err := tr.RequestVote(context.Background(), domain.DirectionUp)
	assert.ErrorIs(t, err, domain.ErrTrackerClosed)
	assert.Empty(t, m.Votes())
}

func TestTrackerDropsDuplicateWhileInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	m := &mutationStub{cast: func(context.Context, domain.Vote) error {
		close(entered)
		<-release
		return nil
	}}
	q := listQuery(nil, []domain.Vote{ballot("alice", true)})
	tr := newTracker(q, m, "alice", nil)
	defer tr.Close()
	require.NoError(t, tr.Refresh(context.Background()))

	first := make(chan bool, 1)
	go func() {
		ok, _ := tr.RequestVote(context.Background(), domain.DirectionUp)
		first <- ok
	}()
	<-entered

	submitted, err := tr.RequestVote(context.Background(), domain.DirectionUp)
	require.NoError(t, err)
	assert.False(t, submitted)

	close(release)
	assert.True(t, <-first)
	assert.Len(t, m.Votes(), 1)
	assert.Equal(t, domain.DirectionUp, tr.Current())
}

func TestTrackerOptimistic(t *testing.T) {
	t.Run("flips before the mutation returns", func(t *testing.T) {
		entered := make(chan struct{})
		release := make(chan struct{})
		m := &mutationStub{cast: func(context.Context, domain.Vote) error {
			close(entered)
			<-release
			return nil
		}}
		q := listQuery([]domain.Vote{ballot("alice", false)}, []domain.Vote{ballot("alice", true)})
		tr := newTracker(q, m, "alice", nil, vote.WithOptimistic())
		defer tr.Close()
		require.NoError(t, tr.Refresh(context.Background()))

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = tr.RequestVote(context.Background(), domain.DirectionUp)
		}()
		<-entered
		assert.Equal(t, domain.DirectionUp, tr.Current())
		close(release)
		<-done
		assert.Equal(t, domain.DirectionUp, tr.Current())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		m := &mutationStub{cast: func(context.Context, domain.Vote) error {
			return errors.New("unexpected error")
		}}
		q := listQuery([]domain.Vote{ballot("alice", false)})
		tr := newTracker(q, m, "alice", nil, vote.WithOptimistic())
		defer tr.Close()
		require.NoError(t, tr.Refresh(context.Background()))

		submitted, err := tr.RequestVote(context.Background(), domain.DirectionUp)
		assert.Error(t, err)
		assert.False(t, submitted)
		assert.Equal(t, domain.DirectionDown, tr.Current())
	})
}
