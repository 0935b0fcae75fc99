package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// CacheLookups counts response cache lookups by result: hit, miss, error.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_lookups_total",
			Help: "Response cache lookups by result",
		},
		[]string{"result"},
	)

	// CacheWrites counts response cache writes by result: ok, error.
	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_writes_total",
			Help: "Response cache writes by result",
		},
		[]string{"result"},
	)

	// ImpressionIncrements counts fast counter increments by result: ok, dropped.
	ImpressionIncrements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "impression_increments_total",
			Help: "Impression counter increments by result",
		},
		[]string{"result"},
	)

	// ReconciledKeys counts reconciler outcomes per counter key: folded, orphan, malformed, failed.
	ReconciledKeys = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciled_keys_total",
			Help: "Impression counter keys processed by the reconciler by outcome",
		},
		[]string{"outcome"},
	)

	// ReconciledImpressions counts impressions moved into durable storage.
	ReconciledImpressions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconciled_impressions_total",
			Help: "Impressions folded into post analytics",
		},
	)

	// LostImpressions counts impressions drained but not persisted.
	LostImpressions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lost_impressions_total",
			Help: "Impressions drained from the counter store whose persistence failed",
		},
	)

	reconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reconcile_cycle_duration_seconds",
			Help:    "Duration of reconciliation cycles in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	// ViewRegistrations counts view registrations by outcome: counted, duplicate, failed, dropped.
	ViewRegistrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "view_registrations_total",
			Help: "View registrations by outcome",
		},
		[]string{"outcome"},
	)

	// ViewQueueDepth reports pending registrations in the in-process queue.
	ViewQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "view_queue_depth",
			Help: "Pending view registrations waiting for a worker",
		},
	)
)

// Middleware records request totals and latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// ObserveReconcile records the duration of one reconciliation cycle.
func ObserveReconcile(d time.Duration) {
	reconcileDuration.Observe(d.Seconds())
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
