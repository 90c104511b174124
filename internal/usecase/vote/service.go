package vote

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/Guyuepp/reddit-post-votes/domain"
)

// Service is the vote query and mutation service, and renders post cards
// by running a Tracker against itself.
type Service struct {
	voteRepo         domain.VoteRepository
	bloomRepo        domain.BloomRepository
	syncScoresWorker domain.SyncScoresWorker
	validate         *validator.Validate
	trackerOpts      []Option
}

var _ domain.VoteUsecase = (*Service)(nil)

// NewService will create a new vote service object
func NewService(v domain.VoteRepository, b domain.BloomRepository, w domain.SyncScoresWorker, opts ...Option) *Service {
	return &Service{
		voteRepo:         v,
		bloomRepo:        b,
		syncScoresWorker: w,
		validate:         validator.New(validator.WithRequiredStructEnabled()),
		trackerOpts:      opts,
	}
}

func (s *Service) mustExist(ctx context.Context, postID int64) error {
	exists, err := s.bloomRepo.Exists(ctx, postID)
	if err != nil {
		logrus.Warnf("bloom filter lookup for post %d failed: %v", postID, err)
		return nil
	}
	if !exists {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Service) FetchVotes(ctx context.Context, postID int64) ([]domain.Vote, error) {
	if postID <= 0 {
		return nil, domain.ErrBadParamInput
	}
	if err := s.mustExist(ctx, postID); err != nil {
		return nil, err
	}
	return s.voteRepo.FetchByPost(ctx, postID)
}

func (s *Service) CastVote(ctx context.Context, v domain.Vote) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBadParamInput, err)
	}
	if err := s.mustExist(ctx, v.PostID); err != nil {
		return err
	}

	if err := s.voteRepo.Upsert(ctx, &v); err != nil {
		logrus.Errorf("failed to upsert vote of %s on post %d: %v", v.Username, v.PostID, err)
		return err
	}

	s.syncScoresWorker.Send(v.PostID)
	return nil
}

func (s *Service) Card(ctx context.Context, postID int64, viewer domain.IdentitySource) (domain.PostCard, error) {
	t := NewTracker(postID, s, s, viewer, discardNotices{}, s.trackerOpts...)
	defer t.Close()

	if err := t.Refresh(ctx); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrBadParamInput) {
			return domain.PostCard{}, err
		}
		// not loaded yet is a valid state for a card
		logrus.Warnf("card of post %d rendered without votes: %v", postID, err)
	}
	return t.Snapshot(), nil
}

func (s *Service) Vote(ctx context.Context, postID int64, viewer domain.IdentitySource, dir domain.Direction) (domain.PostCard, bool, error) {
	notices := &noticeBox{}
	t := NewTracker(postID, s, s, viewer, notices, s.trackerOpts...)
	defer t.Close()

	if err := t.Refresh(ctx); err != nil {
		return domain.PostCard{}, false, err
	}

	submitted, err := t.RequestVote(ctx, dir)
	card := t.Snapshot()
	card.Notice = notices.last
	if err != nil {
		return card, false, err
	}
	return card, submitted, nil
}

type discardNotices struct{}

func (discardNotices) Notify(context.Context, string) {}

// noticeBox keeps the last notice of a single request.
type noticeBox struct {
	last string
}

func (n *noticeBox) Notify(_ context.Context, message string) {
	n.last = message
}
