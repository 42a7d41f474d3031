package metrics

import "github.com/prometheus/client_golang/prometheus"

// RAG pipeline and conversation metrics.
var (
	RAGRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nutrirag",
			Name:      "rag_requests_total",
			Help:      "Pipeline runs by terminal state",
		},
		[]string{"state"},
	)

	RAGStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nutrirag",
			Name:      "rag_stage_duration_seconds",
			Help:      "Duration of each pipeline stage",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)

	RAGQualityScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "nutrirag",
			Name:      "rag_quality_score",
			Help:      "Overall answer quality score",
			Buckets:   []float64{50, 60, 70, 80, 85, 90, 95, 100},
		},
	)

	PromptTokens = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "nutrirag",
			Name:      "prompt_tokens",
			Help:      "Assembled prompt size in model tokens",
			Buckets:   prometheus.ExponentialBuckets(128, 2, 8),
		},
	)

	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nutrirag",
			Name:      "generation_requests_total",
			Help:      "Answer generation calls by backend and status",
		},
		[]string{"backend", "status"},
	)

	GenerationFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nutrirag",
			Name:      "generation_fallback_total",
			Help:      "Fallbacks from the remote backend to the simulated one",
		},
		[]string{"reason"},
	)

	BudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "nutrirag",
			Name:      "budget_tokens_remaining",
			Help:      "Remaining token budget (-1 when unlimited)",
		},
		[]string{"scope", "period"},
	)

	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "nutrirag",
			Name:      "sessions_active",
			Help:      "Sessions currently accepting turns",
		},
	)

	SessionTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nutrirag",
			Name:      "session_turns_total",
			Help:      "Conversation turns by outcome",
		},
		[]string{"outcome"},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		RAGRequestsTotal,
		RAGStageDuration,
		RAGQualityScore,
		PromptTokens,
		GenerationRequestsTotal,
		GenerationFallbackTotal,
		BudgetTokensRemaining,
		SessionsActive,
		SessionTurnsTotal,
	)
	pipelineMetricsRegistered = true
}
