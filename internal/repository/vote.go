package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/Guyuepp/reddit-post-votes/domain"
)

const (
	DefaultVoteCacheTTL = 30 * time.Second

	// upper bound of a shared load, which ignores caller cancellation
	voteLoadTimeout = 5 * time.Second
)

// voteRepository 协调层，协调缓存和数据库
type voteRepository struct {
	db           domain.VoteDBRepository
	cache        domain.VoteCache
	ttl          time.Duration
	rebuildGroup singleflight.Group
}

var _ domain.VoteRepository = (*voteRepository)(nil)

// NewVoteRepository 创建协调层repository
func NewVoteRepository(db domain.VoteDBRepository, cache domain.VoteCache, ttl time.Duration) *voteRepository {
	if ttl <= 0 {
		ttl = DefaultVoteCacheTTL
	}
	return &voteRepository{
		db:    db,
		cache: cache,
		ttl:   ttl,
	}
}

// FetchByPost 获取帖子的投票列表，使用逻辑过期策略避免缓存击穿
func (r *voteRepository) FetchByPost(ctx context.Context, postID int64) ([]domain.Vote, error) {
	votes, expired, err := r.cache.GetVotes(ctx, postID)
	if err == nil {
		if expired {
			go r.rebuild(context.WithoutCancel(ctx), postID)
		}
		return votes, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		logrus.Warnf("vote cache get error, post %d: %v", postID, err)
	}

	// 缓存未命中，使用singleflight合并并发加载
	return r.loadShared(ctx, postID)
}

// Upsert 写库后同步删除缓存并递增版本, 保证随后的刷新读到新数据
func (r *voteRepository) Upsert(ctx context.Context, v *domain.Vote) error {
	if err := r.db.Upsert(ctx, v); err != nil {
		return err
	}

	if err := r.cache.InvalidateVotes(ctx, v.PostID); err != nil {
		logrus.Errorf("failed to invalidate vote cache of post %d: %v", v.PostID, err)
	}
	return nil
}

// loadShared 合并同一版本的并发加载. 版本在读库前取得:
// 写入后发起的请求拿到新版本, 不会并入写入前开始的加载.
// 共享加载不随首个调用方取消, 否则合并进来的请求会一起失败.
func (r *voteRepository) loadShared(ctx context.Context, postID int64) ([]domain.Vote, error) {
	loadCtx := context.WithoutCancel(ctx)
	version, err := r.cache.VotesVersion(loadCtx, postID)
	cacheable := err == nil
	if !cacheable {
		logrus.Warnf("failed to read vote cache version of post %d: %v", postID, err)
	}

	result, err, _ := r.rebuildGroup.Do(groupKey(postID, version, cacheable), func() (any, error) {
		return r.load(loadCtx, postID, version, cacheable)
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Vote), nil
}

func (r *voteRepository) load(ctx context.Context, postID, version int64, cacheable bool) ([]domain.Vote, error) {
	ctx, cancel := context.WithTimeout(ctx, voteLoadTimeout)
	defer cancel()

	votes, err := r.db.FetchByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !cacheable {
		return votes, nil
	}

	stored, err := r.cache.SetVotes(ctx, postID, votes, r.ttl, version)
	if err != nil {
		logrus.Warnf("failed to set vote cache of post %d: %v", postID, err)
	} else if !stored {
		logrus.Debugf("vote list of post %d changed during load, not cached", postID)
	}
	return votes, nil
}

// rebuild 异步重建逻辑过期的缓存
func (r *voteRepository) rebuild(ctx context.Context, postID int64) {
	if _, err := r.loadShared(ctx, postID); err != nil {
		logrus.Errorf("rebuild vote cache failed for post %d: %v", postID, err)
	}
}

func groupKey(postID, version int64, cacheable bool) string {
	if !cacheable {
		return "votes:" + strconv.FormatInt(postID, 10) + ":nocache"
	}
	return "votes:" + strconv.FormatInt(postID, 10) + ":" + strconv.FormatInt(version, 10)
}
