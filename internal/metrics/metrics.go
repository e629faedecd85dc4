// Package metrics defines Prometheus metrics for the search service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lexisearch_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexisearch_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexisearch_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	// LatencyMs mirrors the spec's latencyMs{stage} histogram for the
	// eval/embed/lexical/semantic/fuse/total pipeline stages.
	LatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lexisearch_latency_ms",
			Help:    "Pipeline stage latency in milliseconds",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"stage"},
	)

	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexisearch_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"backend"},
	)

	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexisearch_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"backend"},
	)

	RetrievalDegradedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lexisearch_retrieval_degraded_total",
			Help: "Total retrievals that degraded to lexical-only",
		},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lexisearch_websocket_connections",
			Help: "Active WebSocket connections",
		},
	)

	DocumentCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lexisearch_documents_total",
			Help: "Total indexed document count",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		LatencyMs, CacheHitsTotal, CacheMissesTotal, RetrievalDegradedTotal,
		WSConnections, DocumentCount,
	)
}
