package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetingpoint",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "meetingpoint",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "path"})

	// Resolution metrics
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetingpoint",
		Subsystem: "resolver",
		Name:      "resolutions_total",
		Help:      "Total midpoint resolution attempts by outcome",
	}, []string{"status"})

	ResolutionSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "meetingpoint",
		Subsystem: "resolver",
		Name:      "resolution_duration_seconds",
		Help:      "End-to-end duration of one resolution pass",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"mode"})

	DurationQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetingpoint",
		Subsystem: "resolver",
		Name:      "duration_queries_total",
		Help:      "Per-candidate duration query legs by result",
	}, []string{"result"})

	// External call metrics, fed by the obs timing helper.
	ExternalCallSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "meetingpoint",
		Subsystem: "external",
		Name:      "call_duration_seconds",
		Help:      "Latency of calls to external providers and caches",
		Buckets:   []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"op"})

	// Cache metrics
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetingpoint",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total travel-time cache hits",
	}, []string{"backend"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meetingpoint",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total travel-time cache misses",
	}, []string{"backend"})
)

// ObserveHTTPRequest records one served request. Called by the API logging
// middleware so a single response writer wrapper serves both concerns.
func ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler serves the Prometheus text exposition endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
