package domain

import "context"

type SyncScoresWorker interface {
	Start(ctx context.Context)

	// Send marks a post whose votes changed; its score is recomputed on the next flush.
	Send(postID int64)
}

// BloomRefresher adds posts stored since the last sync to the bloom filter.
type BloomRefresher interface {
	RefreshBloomFilter(ctx context.Context) (int, error)
}
