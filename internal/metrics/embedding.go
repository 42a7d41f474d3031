package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Embedding call outcomes.
const (
	OutcomeOK            = "ok"
	OutcomeAPIError      = "api_error"
	OutcomeShortResponse = "short_response"
	OutcomeBadIndex      = "bad_index"
)

// Embedding provider metrics. Knowledge seeding sends batches while questions
// send one text per call, so inputs are counted apart from calls.
var (
	EmbeddingCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nutrirag",
			Subsystem: "embedding",
			Name:      "calls_total",
			Help:      "Embedding provider calls by model and outcome",
		},
		[]string{"model", "outcome"},
	)

	EmbeddingCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nutrirag",
			Subsystem: "embedding",
			Name:      "call_duration_seconds",
			Help:      "Latency of successful embedding provider calls",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"model"},
	)

	EmbeddingInputsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nutrirag",
			Subsystem: "embedding",
			Name:      "inputs_total",
			Help:      "Texts embedded by successful calls",
		},
		[]string{"model"},
	)

	EmbeddingPromptTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nutrirag",
			Subsystem: "embedding",
			Name:      "prompt_tokens_total",
			Help:      "Prompt tokens billed by the embedding provider",
		},
		[]string{"model"},
	)

	EmbeddingCacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nutrirag",
			Subsystem: "embedding",
			Name:      "cache_lookups_total",
			Help:      "Vector cache lookups for questions and document chunks",
		},
		[]string{"result"}, // hit, miss
	)
)

var embeddingOnce sync.Once

// RegisterEmbeddingMetrics registers the embedding metrics with the default
// registry. Safe to call more than once.
func RegisterEmbeddingMetrics() {
	embeddingOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingCallsTotal,
			EmbeddingCallDuration,
			EmbeddingInputsTotal,
			EmbeddingPromptTokensTotal,
			EmbeddingCacheLookupsTotal,
		)
	})
}

// ObserveEmbeddingCall records one successful provider call.
func ObserveEmbeddingCall(model string, inputs, promptTokens int, seconds float64) {
	EmbeddingCallsTotal.WithLabelValues(model, OutcomeOK).Inc()
	EmbeddingCallDuration.WithLabelValues(model).Observe(seconds)
	EmbeddingInputsTotal.WithLabelValues(model).Add(float64(inputs))
	if promptTokens > 0 {
		EmbeddingPromptTokensTotal.WithLabelValues(model).Add(float64(promptTokens))
	}
}
