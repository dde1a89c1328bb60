package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "magal_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// SignupAttempts counts event signup attempts by outcome
	// (success|duplicate|full|invalid|error).
	SignupAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "magal_signup_attempts_total",
			Help: "Total number of event signup attempts",
		},
		[]string{"outcome"},
	)

	// AdminGate counts admin authorization gate evaluations (allowed|denied).
	AdminGate = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "magal_admin_gate_total",
			Help: "Total number of admin gate evaluations",
		},
		[]string{"result"},
	)

	// BroadcastRecipients observes the fan-out size of each broadcast.
	BroadcastRecipients = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "magal_broadcast_recipients",
			Help:    "Recipient rows created per notification broadcast",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "magal_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
