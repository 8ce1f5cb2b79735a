// Package metrics provides Prometheus metrics collection for the ticker.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration tracks diagnostics API request duration by method, path, and status code.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticker_http_request_duration_seconds",
			Help:    "Diagnostics HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)

	// HTTPRequestTotal tracks total diagnostics API requests by method, path, and status code.
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticker_http_requests_total",
			Help: "Total number of diagnostics HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	// CacheOperationsTotal tracks cache operations.
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticker_cache_operations_total",
			Help: "Total number of cache operations",
		},
		[]string{"operation", "result"},
	)

	// CacheEntries tracks the number of stored cache entries, expired ones included.
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticker_cache_entries",
			Help: "Current number of cache entries",
		},
	)

	// RefreshActionsTotal counts refresh decisions taken by the display engine.
	RefreshActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticker_refresh_actions_total",
			Help: "Total number of display refresh actions",
		},
		[]string{"action", "status"},
	)

	// RefreshDuration tracks how long the display takes per refresh action.
	RefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticker_refresh_duration_seconds",
			Help:    "Display refresh duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
		},
		[]string{"action"},
	)

	// FetchTotal counts upstream fetch attempts per source.
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticker_fetch_total",
			Help: "Total number of upstream fetch attempts",
		},
		[]string{"source", "result"},
	)

	// FetchDuration tracks upstream fetch latency per source.
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticker_fetch_duration_seconds",
			Help:    "Upstream fetch duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	// ScreensRenderedTotal counts rendered screens, placeholder renders included.
	ScreensRenderedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticker_screens_rendered_total",
			Help: "Total number of rendered screens",
		},
		[]string{"screen", "data"},
	)

	// CircuitBreakerOpen reports 1 while a named circuit breaker is open.
	CircuitBreakerOpen = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ticker_circuit_breaker_open",
			Help: "Whether a circuit breaker is open (1) or not (0)",
		},
		[]string{"name"},
	)
)

// PrometheusMiddleware returns a Gin middleware that collects HTTP metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		duration := time.Since(start).Seconds()
		statusCode := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method

		HTTPRequestDuration.WithLabelValues(method, path, statusCode).Observe(duration)
		HTTPRequestTotal.WithLabelValues(method, path, statusCode).Inc()
	}
}

// RecordCacheOperation records metrics for a cache operation.
func RecordCacheOperation(operation, result string) {
	CacheOperationsTotal.WithLabelValues(operation, result).Inc()
}

// UpdateCacheEntries sets the cache entry gauge.
func UpdateCacheEntries(size int) {
	CacheEntries.Set(float64(size))
}

// RecordRefresh records a display refresh action and its duration.
func RecordRefresh(action string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RefreshActionsTotal.WithLabelValues(action, status).Inc()
	if action != "skipped" {
		RefreshDuration.WithLabelValues(action).Observe(duration.Seconds())
	}
}

// RecordFetch records an upstream fetch attempt.
func RecordFetch(source string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	FetchTotal.WithLabelValues(source, result).Inc()
	FetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordScreenRendered records a rendered screen. hasData is false for placeholder renders.
func RecordScreenRendered(screen string, hasData bool) {
	data := "ok"
	if !hasData {
		data = "unavailable"
	}
	ScreensRenderedTotal.WithLabelValues(screen, data).Inc()
}

// SetCircuitBreakerOpen updates the open gauge of a named circuit breaker.
func SetCircuitBreakerOpen(name string, open bool) {
	v := 0.0
	if open {
		v = 1
	}
	CircuitBreakerOpen.WithLabelValues(name).Set(v)
}
