// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kindred_llm_requests_total",
			Help: "LLM provider attempts by outcome",
		},
		[]string{"provider", "outcome"},
	)

	LLMLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kindred_llm_latency_seconds",
			Help:    "LLM provider call latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
		},
		[]string{"provider"},
	)

	TTSRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kindred_tts_requests_total",
			Help: "Speech synthesis attempts by outcome",
		},
		[]string{"provider", "outcome"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kindred_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "kindred_http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "route"},
	)

	ProactivePrompts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kindred_proactive_prompts_total",
			Help: "Medication and reminder prompts delivered",
		},
		[]string{"kind"},
	)

	OutboxDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kindred_outbox_deliveries_total",
			Help: "Memory sync attempts by outcome",
		},
		[]string{"outcome"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kindred_active_sessions",
			Help: "Number of running voice sessions",
		},
	)
)

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeEmpty = "empty"
)
