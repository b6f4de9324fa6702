package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookrag_http_requests_total",
			Help: "Total number of HTTP requests by route and status.",
		},
		[]string{"method", "path", "status"},
	)
	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookrag_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "path", "status"},
	)

	askRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookrag_ask_requests_total",
			Help: "Total number of answered questions by outcome.",
		},
		[]string{"status"},
	)
	askLatencySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookrag_ask_latency_seconds",
			Help:    "End-to-end latency of a question through the pipeline.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
	)
	stageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookrag_pipeline_stage_duration_seconds",
			Help:    "Latency of each pipeline stage.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"stage", "status"},
	)
	statementErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookrag_sql_statement_errors_total",
			Help: "Total number of generated SQL statements rejected by the database.",
		},
	)
	modelRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookrag_llm_requests_total",
			Help: "Total number of language model requests by provider and status.",
		},
		[]string{"provider", "status"},
	)
	rateLimitWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookrag_llm_rate_limit_wait_seconds",
			Help:    "Time spent waiting for a language model rate limit token.",
			Buckets: []float64{0, 0.1, 0.5, 1, 2, 5, 10, 20, 60},
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		askRequestsTotal,
		askLatencySeconds,
		stageDurationSeconds,
		statementErrorsTotal,
		modelRequestsTotal,
		rateLimitWaitSeconds,
	)
}

// ObserveAsk records one /ask outcome and its end-to-end latency.
func ObserveAsk(err error, elapsed time.Duration) {
	askRequestsTotal.WithLabelValues(statusLabel(err)).Inc()
	askLatencySeconds.Observe(elapsed.Seconds())
}

func ObserveStage(stage string, err error, elapsed time.Duration) {
	stageDurationSeconds.WithLabelValues(stage, statusLabel(err)).Observe(elapsed.Seconds())
}

func IncrementStatementErrors() {
	statementErrorsTotal.Inc()
}

func ObserveModelRequest(provider string, err error) {
	modelRequestsTotal.WithLabelValues(provider, statusLabel(err)).Inc()
}

func ObserveRateLimitWait(elapsed time.Duration) {
	rateLimitWaitSeconds.Observe(elapsed.Seconds())
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
