// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for connection lifecycle operations.
const (
	OutcomeSuccess   = "success"
	OutcomeDuplicate = "duplicate"
	OutcomeSelf      = "self"
	OutcomeNotFound  = "not_found"
	OutcomeError     = "error"
)

var (
	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weave_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "weave_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Connections
	ConnectionOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weave_connection_operations_total",
			Help: "Connection lifecycle operations by kind and outcome",
		},
		[]string{"operation", "outcome"}, // operation: send, accept, decline
	)

	// Recommendations
	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "weave_recommendation_duration_seconds",
			Help:    "Time to compute a recommendation list",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendationResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "weave_recommendation_results",
			Help:    "Number of users returned per recommendation request",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		},
	)

	RecommendationCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weave_recommendation_cache_requests_total",
			Help: "Recommendation cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)

	// Accounts
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weave_auth_attempts_total",
			Help: "Registration and login attempts by outcome",
		},
		[]string{"operation", "outcome"},
	)
)

// RecordHTTPRequest observes one completed request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordConnectionOperation counts a send/accept/decline by outcome.
func RecordConnectionOperation(operation, outcome string) {
	ConnectionOperations.WithLabelValues(operation, outcome).Inc()
}

// RecordRecommendation observes one computed (uncached) recommendation list.
func RecordRecommendation(duration time.Duration, results int) {
	RecommendationDuration.Observe(duration.Seconds())
	RecommendationResults.Observe(float64(results))
}

// RecordRecommendationCache counts a cache lookup result.
func RecordRecommendationCache(result string) {
	RecommendationCacheRequests.WithLabelValues(result).Inc()
}

// RecordAuthAttempt counts a register/login attempt.
func RecordAuthAttempt(operation string, success bool) {
	outcome := OutcomeSuccess
	if !success {
		outcome = "failure"
	}
	AuthAttempts.WithLabelValues(operation, outcome).Inc()
}
