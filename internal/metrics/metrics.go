package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingochat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lingochat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingochat_messages_sent_total",
			Help: "Total messages sent",
		},
		[]string{"kind"}, // "text", "image" or "voice"
	)

	CallsRung = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lingochat_calls_rung_total",
			Help: "Total call notifications attempted",
		},
	)

	// Adapter failure metrics; each increment corresponds to a message that
	// was degraded rather than dropped.
	TranslationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lingochat_translation_failures_total",
			Help: "Total failed translation calls",
		},
	)

	TranscriptionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lingochat_transcription_failures_total",
			Help: "Total failed transcription calls",
		},
	)

	SynthesisFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lingochat_synthesis_failures_total",
			Help: "Total failed speech synthesis calls",
		},
	)

	// Push metrics
	PushDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingochat_push_deliveries_total",
			Help: "Total push delivery attempts",
		},
		[]string{"outcome"}, // "delivered", "offline" or "dropped"
	)
)
