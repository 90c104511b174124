package workers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Guyuepp/reddit-post-votes/domain"
	"github.com/Guyuepp/reddit-post-votes/internal/observability"
	"github.com/Guyuepp/reddit-post-votes/internal/usecase/vote"
)

const (
	defaultScoreBatchSize = 100
	defaultScoreInterval  = time.Second
	shutdownFlushTimeout  = 5 * time.Second
)

type syncScoresWorker struct {
	PostRepo domain.PostRepository
	VoteDB   domain.VoteDBRepository
	ch       chan int64
	interval time.Duration
	batch    int
}

var _ domain.SyncScoresWorker = (*syncScoresWorker)(nil)

func NewSyncScoresWorker(pr domain.PostRepository, vr domain.VoteDBRepository) *syncScoresWorker {
	return &syncScoresWorker{
		PostRepo: pr,
		VoteDB:   vr,
		ch:       make(chan int64, 1024),
		interval: defaultScoreInterval,
		batch:    defaultScoreBatchSize,
	}
}

// Send queues a post for score recomputation; it never blocks the vote path.
func (s *syncScoresWorker) Send(postID int64) {
	select {
	case s.ch <- postID:
	default:
		logrus.Warnf("SyncScoresWorker's channel is full, post %d dropped", postID)
	}
}

func (s *syncScoresWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	batch := make([]int64, 0, s.batch)
	for {
		select {
		case id := <-s.ch:
			batch = append(batch, id)
			if len(batch) == s.batch {
				s.flush(ctx, batch)
				batch = make([]int64, 0, s.batch)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(ctx, batch)
				batch = make([]int64, 0, s.batch)
			}
		case <-ctx.Done():
			logrus.Info("shutting down SyncScoresWorker, flushing remaining posts...")
		drain:
			for {
				select {
				case id := <-s.ch:
					batch = append(batch, id)
				default:
					break drain
				}
			}
			flushCtx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
			s.flush(flushCtx, batch)
			cancel()
			return
		}
	}
}

// flush recomputes the tally of every distinct post in batch from the database.
func (s *syncScoresWorker) flush(ctx context.Context, batch []int64) {
	if len(batch) == 0 {
		return
	}

	scores := make(map[int64]int64)
	for _, id := range batch {
		if _, done := scores[id]; done {
			continue
		}
		votes, err := s.VoteDB.FetchByPost(ctx, id)
		if err != nil {
			logrus.Errorf("failed to fetch votes of post %d for score sync: %v", id, err)
			continue
		}
		scores[id] = int64(vote.Tally(votes))
	}

	observability.ScoreSyncBatch.Observe(float64(len(scores)))
	if err := s.PostRepo.UpdateScores(ctx, scores); err != nil {
		logrus.Errorf("failed to update scores of %d posts: %v", len(scores), err)
	}
}
