package workers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Guyuepp/reddit-post-votes/domain"
	"github.com/Guyuepp/reddit-post-votes/internal/observability"
)

const DefaultBloomRefreshInterval = 30 * time.Second

type bloomRefreshWorker struct {
	Refresher domain.BloomRefresher
	interval  time.Duration
}

func NewBloomRefreshWorker(r domain.BloomRefresher, interval time.Duration) *bloomRefreshWorker {
	if interval <= 0 {
		interval = DefaultBloomRefreshInterval
	}
	return &bloomRefreshWorker{
		Refresher: r,
		interval:  interval,
	}
}

// Start adds newly stored posts to the bloom filter every interval until ctx is done.
func (w *bloomRefreshWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.refresh(ctx)
		case <-ctx.Done():
			logrus.Info("shutting down BloomRefreshWorker")
			return
		}
	}
}

func (w *bloomRefreshWorker) refresh(ctx context.Context) {
	n, err := w.Refresher.RefreshBloomFilter(ctx)
	if n > 0 {
		observability.BloomRefreshed.Add(float64(n))
		logrus.Debugf("bloom filter refreshed with %d post ids", n)
	}
	if err != nil {
		logrus.Errorf("failed to refresh bloom filter: %v", err)
	}
}
