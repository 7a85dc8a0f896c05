// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestDuration tracks outbound backend request duration.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "console_api_request_duration_seconds",
			Help:    "Backend API request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"endpoint", "status"},
	)

	// APIRequestsTotal tracks total outbound backend requests.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_api_requests_total",
			Help: "Total backend API requests",
		},
		[]string{"endpoint", "status"},
	)

	// ChatTurnsTotal tracks transcript turns by role.
	ChatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_chat_turns_total",
			Help: "Total chat transcript turns",
		},
		[]string{"role"},
	)

	// ChatSendFailuresTotal tracks chat turns that never got a reply.
	ChatSendFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "console_chat_send_failures_total",
			Help: "Total chat sends that failed",
		},
	)
)

// RecordAPIRequest records metrics for an outbound backend request.
func RecordAPIRequest(endpoint, status string, duration float64) {
	APIRequestDuration.WithLabelValues(endpoint, status).Observe(duration)
	APIRequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// RecordChatTurn records a transcript turn for a role.
func RecordChatTurn(role string) {
	ChatTurnsTotal.WithLabelValues(role).Inc()
}

// RecordChatSendFailure records a failed chat send.
func RecordChatSendFailure() {
	ChatSendFailuresTotal.Inc()
}
