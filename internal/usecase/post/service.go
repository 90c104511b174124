package post

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Guyuepp/reddit-post-votes/domain"
	"github.com/Guyuepp/reddit-post-votes/internal/repository"
)

const bloomWarmupBatch = 1000

type Service struct {
	postRepo    domain.PostRepository
	commentRepo domain.CommentRepository
	selection   domain.PostSelection
	bloomRepo   domain.BloomRepository

	bloomMu     sync.Mutex
	bloomCursor int64 // largest post id already in the filter
}

var _ domain.PostUsecase = (*Service)(nil)

// NewService will create a new post service object
func NewService(p domain.PostRepository, c domain.CommentRepository, s domain.PostSelection, b domain.BloomRepository) *Service {
	return &Service{
		postRepo:    p,
		commentRepo: c,
		selection:   s,
		bloomRepo:   b,
	}
}

func (s *Service) Fetch(ctx context.Context, cursor string, num int64) ([]domain.Post, string, error) {
	res, err := s.postRepo.Fetch(ctx, cursor, num)
	if err != nil {
		return nil, "", err
	}
	if len(res) == 0 {
		return res, "", nil
	}

	ids := make([]int64, len(res))
	for i := range res {
		ids[i] = res[i].ID
	}
	comments, err := s.commentRepo.FetchByPosts(ctx, ids)
	if err != nil {
		// the page still renders; posts just show no comments
		logrus.Warnf("failed to fetch comments for %d posts: %v", len(ids), err)
	} else {
		byPost := make(map[int64][]domain.Comment)
		for _, c := range comments {
			byPost[c.PostID] = append(byPost[c.PostID], c)
		}
		for i := range res {
			if list, ok := byPost[res[i].ID]; ok {
				res[i].Comments = list
			}
		}
	}

	return res, repository.EncodeCursor(res[len(res)-1].CreatedAt), nil
}

// GetByID serves the detail view. A selected post with the same id is used as is;
// an empty or stale slot falls back to storage.
func (s *Service) GetByID(ctx context.Context, id int64) (domain.Post, error) {
	if id <= 0 {
		return domain.Post{}, domain.ErrBadParamInput
	}

	selected, ok, err := s.selection.Load(ctx)
	if err != nil {
		logrus.Warnf("failed to load selected post: %v", err)
	} else if ok && selected.ID == id {
		return selected, nil
	}
	return s.Load(ctx, id)
}

// Load reads a post and its comments from storage, never from the selection slot.
func (s *Service) Load(ctx context.Context, id int64) (domain.Post, error) {
	if id <= 0 {
		return domain.Post{}, domain.ErrBadParamInput
	}

	exists, err := s.bloomRepo.Exists(ctx, id)
	if err == nil && !exists {
		logrus.Warnf("bloom filter says post %d does not exist", id)
		return domain.Post{}, domain.ErrNotFound
	}

	var (
		res      domain.Post
		comments []domain.Comment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		res, err = s.postRepo.GetByID(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		comments, err = s.commentRepo.FetchByPosts(gctx, []int64{id})
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Post{}, err
	}

	if comments != nil {
		res.Comments = comments
	}
	return res, nil
}

// InitBloomFilter adds every stored post id to the bloom filter.
func (s *Service) InitBloomFilter(ctx context.Context) error {
	n, err := s.RefreshBloomFilter(ctx)
	if err != nil {
		return err
	}
	logrus.Infof("bloom filter warmed with %d post ids", n)
	return nil
}

// RefreshBloomFilter adds post ids stored since the last sync and returns how many.
// Post ids are auto-increment, so the largest synced id is the resume point.
func (s *Service) RefreshBloomFilter(ctx context.Context) (int, error) {
	s.bloomMu.Lock()
	defer s.bloomMu.Unlock()

	added := 0
	for {
		ids, err := s.postRepo.FetchIDs(ctx, s.bloomCursor, bloomWarmupBatch)
		if err != nil {
			return added, err
		}
		if len(ids) == 0 {
			return added, nil
		}
		if err := s.bloomRepo.BulkAdd(ctx, ids); err != nil {
			return added, err
		}
		s.bloomCursor = ids[len(ids)-1]
		added += len(ids)
	}
}
