// Package observability holds the Prometheus collectors shared by the store
// and the HTTP layer. Collectors register with the default registry once, at
// package initialisation, so any number of stores can be built in one process.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "bulletin"

const (
	storeSubsystem = "store"
	httpSubsystem  = "http"
)

// Outcome label values for RemoteCallsTotal.
const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeTimeout   = "timeout"
	OutcomeMalformed = "malformed"
)

var (
	// RemoteCallsTotal counts remote backend calls.
	// Labels: op (get_posts, set_comments, ...), outcome (success, error, timeout, malformed)
	RemoteCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: storeSubsystem,
			Name:      "remote_calls_total",
			Help:      "Remote key-value calls by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	// DegradedTotal counts operations served or acknowledged by the fallback tier only.
	DegradedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: storeSubsystem,
			Name:      "degraded_total",
			Help:      "Operations that fell back to process memory",
		},
		[]string{"op"},
	)

	RemoteLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: storeSubsystem,
			Name:      "remote_latency_seconds",
			Help:      "Latency of remote key-value calls that returned before the timeout",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"op"},
	)

	// RequestTimeoutsTotal counts requests answered by the timeout guard.
	RequestTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: httpSubsystem,
			Name:      "request_timeouts_total",
			Help:      "Requests answered with 504 by the timeout guard",
		},
	)
)
