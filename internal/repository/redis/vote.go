package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Guyuepp/reddit-post-votes/domain"
	"github.com/Guyuepp/reddit-post-votes/internal/repository/cache"
)

const (
	KeyPostVotes        = "post:%d:votes"
	KeyPostVotesVersion = "post:%d:votes:ver"

	// physical TTL is a multiple of the logical one so idle posts leave redis
	physicalTTLFactor = 4
)

// KEYS[1] 投票列表, KEYS[2] 版本号; ARGV[1] 加载前读到的版本, ARGV[2] 数据, ARGV[3] 过期毫秒
var setVotesScript = redis.NewScript(`
	local cur = redis.call('GET', KEYS[2])
	if cur == false then
		cur = '0'
	end
	if cur ~= ARGV[1] then
		return 0 -- 加载期间有写入, 丢弃旧数据
	end
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
	return 1
`)

// 删除列表并递增版本, 使正在进行的加载写入失效
var invalidateVotesScript = redis.NewScript(`
	redis.call('DEL', KEYS[1])
	return redis.call('INCR', KEYS[2])
`)

type voteCache struct {
	client *redis.Client
	now    func() time.Time
}

var _ domain.VoteCache = (*voteCache)(nil)

func NewVoteCache(client *redis.Client) *voteCache {
	return &voteCache{
		client: client,
		now:    time.Now,
	}
}

func voteKeys(postID int64) []string {
	return []string{
		fmt.Sprintf(KeyPostVotes, postID),
		fmt.Sprintf(KeyPostVotesVersion, postID),
	}
}

func (c *voteCache) GetVotes(ctx context.Context, postID int64) ([]domain.Vote, bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf(KeyPostVotes, postID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, domain.ErrCacheMiss
	} else if err != nil {
		return nil, false, err
	}

	var entry cache.DataWithLogicalExpire[[]domain.Vote]
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, err
	}
	if entry.Data == nil {
		entry.Data = []domain.Vote{}
	}
	return entry.Data, entry.IsLogicalExpired(c.now()), nil
}

func (c *voteCache) VotesVersion(ctx context.Context, postID int64) (int64, error) {
	v, err := c.client.Get(ctx, fmt.Sprintf(KeyPostVotesVersion, postID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *voteCache) SetVotes(ctx context.Context, postID int64, votes []domain.Vote, ttl time.Duration, version int64) (bool, error) {
	if votes == nil {
		votes = []domain.Vote{}
	}
	data, err := json.Marshal(cache.NewDataWithLogicalExpire(votes, ttl))
	if err != nil {
		return false, err
	}

	res, err := setVotesScript.Run(ctx, c.client, voteKeys(postID),
		version, data, (physicalTTLFactor * ttl).Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (c *voteCache) InvalidateVotes(ctx context.Context, postID int64) error {
	return invalidateVotesScript.Run(ctx, c.client, voteKeys(postID)).Err()
}
