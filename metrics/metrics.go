// metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MintsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mint_requests_total",
		Help: "Completed mint workflows, labeled by outcome and failing stage",
	}, []string{"outcome", "stage"})

	MintDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mint_duration_seconds",
		Help:    "End-to-end latency of single mint workflows",
		Buckets: []float64{1, 2.5, 5, 10, 20, 40, 60, 90, 120, 180},
	}, []string{"blockchain"})

	TransactionPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transaction_polls_total",
		Help: "Status queries against the sponsorship API, labeled by observed state",
	}, []string{"state"})

	MetadataStubs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metadata_stub_uris_total",
		Help: "Metadata publishes that degraded to a stub URI",
	})

	TokenBackfills = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "token_backfill_attempts_total",
		Help: "Backfill attempts to recover pending token IDs from receipts",
	}, []string{"outcome"})
)
