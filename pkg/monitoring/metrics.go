package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// ServiceName is the service label used in metrics.
	ServiceName = "overscape"
)

var (
	// Tile request metrics
	TileRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overscape_tile_requests_total",
			Help: "Total number of tile requests processed",
		},
		[]string{"status"},
	)

	TileRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "overscape_tile_request_duration_seconds",
			Help:    "Tile request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
	)

	// Upstream (Overpass) metrics
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overscape_upstream_requests_total",
			Help: "Total number of Overpass API requests",
		},
		[]string{"operation", "status"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "overscape_upstream_request_duration_seconds",
			Help:    "Overpass API request duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
		},
		[]string{"operation"},
	)

	// Rate limiting metrics
	RateLimitWaitTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "overscape_rate_limit_wait_duration_seconds",
			Help:    "Time spent waiting for rate limits",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"scope"},
	)

	RateLimitRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overscape_rate_limit_rejected_total",
			Help: "Total number of client requests rejected by rate limiting",
		},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overscape_cache_hits_total",
			Help: "Total number of tile cache hits",
		},
		[]string{"backend"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overscape_cache_misses_total",
			Help: "Total number of tile cache misses",
		},
		[]string{"backend"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "overscape_cache_size",
			Help: "Current number of cached tiles",
		},
		[]string{"backend"},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overscape_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "overscape_system_info",
			Help: "System information",
		},
		[]string{"version", "go_version"},
	)

	GoRoutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "overscape_goroutines",
			Help: "Number of goroutines",
		},
	)

	MemoryUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "overscape_memory_usage_bytes",
			Help: "Memory usage in bytes",
		},
	)
)

// RecordTileRequest records a completed tile request.
func RecordTileRequest(duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	TileRequestsTotal.WithLabelValues(status).Inc()
	TileRequestDuration.Observe(duration.Seconds())
}

// RecordUpstreamRequest records a completed Overpass request.
func RecordUpstreamRequest(operation string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	UpstreamRequestsTotal.WithLabelValues(operation, status).Inc()
	UpstreamRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCacheHit records a tile cache hit.
func RecordCacheHit(backend string) {
	CacheHits.WithLabelValues(backend).Inc()
}

// RecordCacheMiss records a tile cache miss.
func RecordCacheMiss(backend string) {
	CacheMisses.WithLabelValues(backend).Inc()
}

// UpdateCacheSize updates the cache size gauge. Sizes below zero mean
// the backend cannot report a size and are ignored.
func UpdateCacheSize(backend string, size int) {
	if size < 0 {
		return
	}
	CacheSize.WithLabelValues(backend).Set(float64(size))
}

// RecordRateLimitWait records time spent waiting on a rate limiter.
func RecordRateLimitWait(scope string, duration time.Duration) {
	RateLimitWaitTime.WithLabelValues(scope).Observe(duration.Seconds())
}

// RecordError records an error by component and type.
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
