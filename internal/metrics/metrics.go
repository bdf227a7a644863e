// Package metrics exposes the Prometheus instrumentation of the matching
// service: ingestion runs, catalog cache efficiency and degradations, and
// recommendation latency and HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_sync_runs_total",
			Help: "Feed sync runs by outcome (ok, skipped, error)",
		},
		[]string{"status"},
	)

	SyncJobsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_sync_jobs_processed_total",
			Help: "Feed entries processed by sync runs",
		},
	)

	SyncJobsAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_sync_jobs_added_total",
			Help: "Jobs inserted into the catalog by sync runs",
		},
	)

	SyncRowErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_sync_row_errors_total",
			Help: "Feed entries that failed to persist",
		},
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matching_sync_last_success_timestamp_seconds",
			Help: "Unix time of the last successful sync",
		},
	)

	FeedFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_feed_fetch_duration_seconds",
			Help:    "Duration of feed download and parse",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	// Catalog
	CatalogCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_catalog_cache_hits_total",
			Help: "Random-order queries served from the pool cache",
		},
	)

	CatalogCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_catalog_cache_misses_total",
			Help: "Random-order queries that refreshed the pool cache",
		},
	)

	CatalogDegradations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_catalog_degradations_total",
			Help: "Catalog queries that fell back to the degraded path",
		},
		[]string{"reason"}, // "query_error", "circuit_open", "fallback_error"
	)

	CatalogBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matching_catalog_breaker_state",
			Help: "Catalog circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// Recommendations
	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matching_recommend_duration_seconds",
			Help:    "Duration of recommendation requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"actor"}, // "user", "session", "anonymous"
	)

	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matching_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordSync records the outcome of one sync run.
func RecordSync(status string, processed, added int) {
	SyncRuns.WithLabelValues(status).Inc()
	if status != "ok" {
		return
	}
	SyncJobsProcessed.Add(float64(processed))
	SyncJobsAdded.Add(float64(added))
	SyncLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordFeedFetch records how long a feed download and parse took.
func RecordFeedFetch(duration time.Duration) {
	FeedFetchDuration.Observe(duration.Seconds())
}

// RecordCacheLookup records a pool cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		CatalogCacheHits.Inc()
	} else {
		CatalogCacheMisses.Inc()
	}
}

// RecordDegradation counts a catalog fallback.
func RecordDegradation(reason string) {
	CatalogDegradations.WithLabelValues(reason).Inc()
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRecommend records a recommendation request.
func RecordRecommend(actor string, duration time.Duration) {
	RecommendDuration.WithLabelValues(actor).Observe(duration.Seconds())
}
