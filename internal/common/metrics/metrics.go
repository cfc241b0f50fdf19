// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EstimateRunsTotal counts pipeline runs by terminal outcome
	// (synthesized, fallback, rejected).
	EstimateRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estimate_runs_total",
			Help: "Total number of estimation runs by outcome",
		},
		[]string{"outcome"},
	)

	// EstimateDuration observes end-to-end run latency in seconds.
	EstimateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "estimate_duration_seconds",
			Help:    "End-to-end estimation run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	// RetrievalFailures counts degraded retrieval branches.
	RetrievalFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrieval_failures_total",
			Help: "Total number of failed retrieval branches",
		},
		[]string{"branch"},
	)

	// SynthesisRejections counts generative payloads rejected before use.
	SynthesisRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synthesis_rejections_total",
			Help: "Total number of rejected generative estimates by reason",
		},
		[]string{"reason"},
	)

	// NotificationFailures counts failed estimate-ready publishes.
	NotificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Total number of failed estimate notifications",
		},
	)
)
