package redis

import (
	"context"
	"hash/crc32"
	"hash/fnv"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/Guyuepp/reddit-post-votes/domain"
)

const (
	KeyPostBloom = "bloom:post:ids"

	defaultBloomHashes = 3
)

type redisBloomRepo struct {
	client  *redis.Client
	bitSize uint64
	hashes  int
}

var _ domain.BloomRepository = (*redisBloomRepo)(nil)

func NewRedisBloomRepo(client *redis.Client, bitSize uint64) *redisBloomRepo {
	if bitSize == 0 {
		bitSize = 1
	}
	return &redisBloomRepo{
		client:  client,
		bitSize: bitSize,
		hashes:  defaultBloomHashes,
	}
}

func (r *redisBloomRepo) BulkAdd(ctx context.Context, postIDs []int64) error {
	if len(postIDs) == 0 {
		return nil
	}
	pipe := r.client.Pipeline()
	for _, id := range postIDs {
		for _, offset := range r.offsets(id) {
			pipe.SetBit(ctx, KeyPostBloom, int64(offset), 1)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *redisBloomRepo) Exists(ctx context.Context, postID int64) (bool, error) {
	pipe := r.client.Pipeline()
	cmds := make([]*redis.IntCmd, 0, r.hashes)
	for _, offset := range r.offsets(postID) {
		cmds = append(cmds, pipe.GetBit(ctx, KeyPostBloom, int64(offset)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	for _, cmd := range cmds {
		if cmd.Val() == 0 {
			return false, nil
		}
	}
	return true, nil
}

// offsets 双重哈希: offset_i = h1 + i*h2
func (r *redisBloomRepo) offsets(postID int64) []uint64 {
	data := strconv.AppendInt(nil, postID, 10)

	h1 := uint64(crc32.ChecksumIEEE(data))
	f := fnv.New64a()
	_, _ = f.Write(data)
	h2 := f.Sum64() | 1

	res := make([]uint64, r.hashes)
	for i := range res {
		res[i] = (h1 + uint64(i)*h2) % r.bitSize
	}
	return res
}
