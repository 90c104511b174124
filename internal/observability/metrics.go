// Package observability holds the prometheus collectors of the vote engine.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes of a viewer vote request.
const (
	OutcomeSubmitted       = "submitted"
	OutcomeUnchanged       = "unchanged"
	OutcomeInFlight        = "in_flight"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeFailed          = "failed"
)

var (
	// VoteRequests counts viewer vote requests by gate outcome.
	VoteRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postvotes_vote_requests_total",
		Help: "Total number of viewer vote requests by outcome",
	}, []string{"outcome"})

	// RefreshDiscarded counts vote lists dropped because a newer one was applied or the tracker closed.
	RefreshDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postvotes_refresh_discarded_total",
		Help: "Total number of vote list results discarded",
	}, []string{"reason"})

	// ScoreSyncBatch records how many posts each score sync flush touched.
	ScoreSyncBatch = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "postvotes_score_sync_batch_posts",
		Help:    "Posts per score sync flush",
		Buckets: []float64{1, 5, 10, 25, 50, 100},
	})

	// BloomRefreshed counts post ids added to the bloom filter after warm-up.
	BloomRefreshed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postvotes_bloom_refreshed_ids_total",
		Help: "Total number of post ids added by bloom filter refreshes",
	})
)
