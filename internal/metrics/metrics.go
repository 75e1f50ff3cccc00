// Package metrics registers the Prometheus collectors for the media cache.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache read outcomes.
const (
	OutcomeHit         = "hit"
	OutcomeMiss        = "miss"
	OutcomeStale       = "stale"
	OutcomeStaleServe  = "stale_serve"
	OutcomeUnavailable = "unavailable"
)

// Seed outcomes.
const (
	SeedWritten = "written"
	SeedSkipped = "skipped"
)

var (
	// Orchestrator
	CacheReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cache_reads_total",
			Help: "Cache reads by media type and outcome (hit, miss, stale, stale_serve, unavailable)",
		},
		[]string{"media_type", "outcome"},
	)

	CacheRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cache_refreshes_total",
			Help: "Successful provider fetches by media type, counted before the cache write",
		},
		[]string{"media_type"},
	)

	CacheRefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_cache_refresh_duration_seconds",
			Help:    "Duration of provider refresh attempts in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"media_type", "result"},
	)

	CacheSeeds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cache_seeds_total",
			Help: "Seed operations by media type and outcome (written, skipped)",
		},
		[]string{"media_type", "outcome"},
	)

	CacheSharedRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cache_shared_refreshes_total",
			Help: "Reads that joined a refresh already in flight for the same key",
		},
		[]string{"media_type"},
	)

	// Upstream providers
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_upstream_requests_total",
			Help: "Upstream provider requests by result (success, failure, rejected)",
		},
		[]string{"provider", "result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_upstream_circuit_state",
			Help: "Provider circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"provider"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_upstream_circuit_transitions_total",
			Help: "Provider circuit breaker state transitions",
		},
		[]string{"provider", "from_state", "to_state"},
	)

	// Store
	StoreRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_cache_records",
			Help: "Cached records per media type, sampled at startup and on write",
		},
		[]string{"media_type"},
	)
)

// RecordRead records one cache read outcome.
func RecordRead(mediaType, outcome string) {
	CacheReads.WithLabelValues(mediaType, outcome).Inc()
}

// RecordRefresh records one provider refresh attempt.
func RecordRefresh(mediaType string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	} else {
		CacheRefreshes.WithLabelValues(mediaType).Inc()
	}
	CacheRefreshDuration.WithLabelValues(mediaType, result).Observe(duration.Seconds())
}

// RecordSeed records one seed outcome.
func RecordSeed(mediaType, outcome string) {
	CacheSeeds.WithLabelValues(mediaType, outcome).Inc()
}

// RecordUpstream records one upstream call result.
func RecordUpstream(provider, result string) {
	UpstreamRequests.WithLabelValues(provider, result).Inc()
}
