package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	attemptsSubmitted    *prometheus.CounterVec
	rosterCacheHitsTotal prometheus.Counter
	rosterCacheMissTotal prometheus.Counter
	messagesSentTotal    prometheus.Counter
	messageConnsTotal    prometheus.Counter
	reviewsRecordedTotal prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors for the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linguaflow_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "linguaflow_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linguaflow_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		attemptsSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linguaflow_attempts_submitted_total",
			Help: "Total number of lesson attempts submitted, by review state.",
		}, []string{"review"})

		rosterCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linguaflow_roster_cache_hits_total",
			Help: "Total number of roster reads served from cache.",
		})

		rosterCacheMissTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linguaflow_roster_cache_misses_total",
			Help: "Total number of roster reads that rebuilt the response.",
		})

		messagesSentTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linguaflow_messages_sent_total",
			Help: "Total number of direct messages persisted.",
		})

		messageConnsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linguaflow_message_connections_total",
			Help: "Total number of websocket messaging connections accepted.",
		})

		reviewsRecordedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linguaflow_reviews_recorded_total",
			Help: "Total number of tutor reviews applied to answers.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			attemptsSubmitted,
			rosterCacheHitsTotal,
			rosterCacheMissTotal,
			messagesSentTotal,
			messageConnsTotal,
			reviewsRecordedTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// AttemptsSubmitted exposes the counter for submitted attempts.
func AttemptsSubmitted() *prometheus.CounterVec {
	RegisterMetrics()
	return attemptsSubmitted
}

// RosterCacheHits exposes the counter for roster cache hits.
func RosterCacheHits() prometheus.Counter {
	RegisterMetrics()
	return rosterCacheHitsTotal
}

// RosterCacheMisses exposes the counter for roster cache misses.
func RosterCacheMisses() prometheus.Counter {
	RegisterMetrics()
	return rosterCacheMissTotal
}

// MessagesSent exposes the counter for persisted direct messages.
func MessagesSent() prometheus.Counter {
	RegisterMetrics()
	return messagesSentTotal
}

// MessageConnections exposes the counter for websocket connections.
func MessageConnections() prometheus.Counter {
	RegisterMetrics()
	return messageConnsTotal
}

// ReviewsRecorded exposes the counter for tutor reviews.
func ReviewsRecorded() prometheus.Counter {
	RegisterMetrics()
	return reviewsRecordedTotal
}
