// Package metrics holds the Prometheus instrumentation for the summarization engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache discipline label values.
const (
	DisciplineHash = "content_hash"
	DisciplineTTL  = "ttl"
)

var (
	// CacheRequests counts cache lookups by discipline and result (hit, miss, stale, error).
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_digest_cache_requests_total",
			Help: "Total number of summary cache lookups",
		},
		[]string{"discipline", "result"},
	)

	// CacheWriteErrors counts failed cache writes. They never fail a request.
	CacheWriteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_digest_cache_write_errors_total",
			Help: "Total number of failed summary cache writes",
		},
		[]string{"discipline"},
	)

	CollaboratorCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_digest_collaborator_calls_total",
			Help: "Total number of calls to embedding, sentiment and generative collaborators",
		},
		[]string{"collaborator", "outcome"},
	)

	SummarizeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "review_digest_summarize_duration_seconds",
			Help:    "Duration of uncached summarizations in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"strategy"},
	)

	ChunksPerRequest = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "review_digest_chunks_per_request",
			Help:    "Number of chunks mapped per generative summarization",
			Buckets: prometheus.LinearBuckets(1, 2, 10),
		},
	)
)
