package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScoringAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "transaction_intake",
			Name:      "scoring_attempts_total",
			Help:      "Scoring Engine calls by outcome",
		},
		[]string{"outcome"},
	)

	ScoringRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "transaction_intake",
			Name:      "scoring_retries_total",
			Help:      "Retried scoring attempts after a transient failure",
		},
	)

	ScoringExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "transaction_intake",
			Name:      "scoring_exhausted_total",
			Help:      "Submissions left PENDING after all scoring attempts failed",
		},
	)

	ScoringLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "transaction_intake",
			Name:      "scoring_duration_seconds",
			Help:      "Latency of individual Scoring Engine calls",
			Buckets:   prometheus.DefBuckets,
		},
	)

	DispatchFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "transaction_intake",
			Name:      "scoring_dispatch_fallbacks_total",
			Help:      "Scoring calls run inline because the worker pool could not take them",
		},
	)

	VerdictsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "transaction_intake",
			Name:      "verdicts_applied_total",
			Help:      "Terminal transaction decisions by status",
		},
		[]string{"status"},
	)
)
