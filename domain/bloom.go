package domain

import "context"

// BloomRepository answers "may this post exist" before hitting cache or DB.
type BloomRepository interface {
	// Exists 返回 false 时帖子一定不存在, 调用方直接返回 ErrNotFound
	Exists(ctx context.Context, postID int64) (bool, error)

	// BulkAdd 批量加入过滤器, 启动预热和定时增量同步共用
	BulkAdd(ctx context.Context, postIDs []int64) error
}
