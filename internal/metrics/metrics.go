package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripsentry_core_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripsentry_core_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Alert evaluation metrics
	EvaluationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripsentry_core_evaluations_total",
			Help: "Total number of alert evaluation passes",
		},
	)

	CandidatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripsentry_core_alert_candidates_total",
			Help: "Total number of geospatial alert candidates considered",
		},
	)

	AlertsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripsentry_core_alerts_suppressed_total",
			Help: "Alert candidates suppressed by reason",
		},
		[]string{"reason"}, // debounced, rate_limited
	)

	AlertsAllowed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripsentry_core_alerts_allowed_total",
			Help: "Alert candidates accepted for dispatch",
		},
	)

	// Counter store metrics
	StoreRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripsentry_core_store_requests_total",
			Help: "Counter store operations by backend and result",
		},
		[]string{"operation", "result"},
	)

	StoreFailoversTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripsentry_core_store_failovers_total",
			Help: "Operations served by the in-process fallback after a primary store error",
		},
		[]string{"operation"},
	)

	// Proximity query metrics
	ProximityQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripsentry_core_proximity_queries_total",
			Help: "Proximity queries by shape",
		},
		[]string{"shape"}, // itinerary, point
	)
)

// RecordStoreOperation tracks one counter store call outcome.
func RecordStoreOperation(operation, result string) {
	StoreRequestsTotal.WithLabelValues(operation, result).Inc()
}

// RecordFailover tracks one per-call fallback to the in-process backend.
func RecordFailover(operation string) {
	StoreFailoversTotal.WithLabelValues(operation).Inc()
}
