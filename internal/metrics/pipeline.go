package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval pipeline Prometheus metrics.
var (
	AnswerCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answer_cache_total",
			Help:      "Answer cache lookups by result",
		},
		[]string{"result"}, // "hit" / "miss" / "malformed"
	)

	VectorFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vector_fallbacks_total",
			Help:      "Searches that fell back to lexical-only retrieval",
		},
		[]string{"reason"}, // "timeout" / "error"
	)

	SynthesisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_total",
			Help:      "Answers produced by synthesis mode",
		},
		[]string{"mode"},
	)

	ExternalCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "external_call_duration_seconds",
			Help:      "Duration of calls to external collaborators",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"service", "status"},
	)

	CandidatePoolSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidate_pool_size",
			Help:      "Evidence chunks per pipeline stage",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20, 40, 80},
		},
		[]string{"stage"}, // "ranked" / "deduped" / "final"
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers the retrieval pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(AnswerCacheTotal)
	prometheus.MustRegister(VectorFallbacksTotal)
	prometheus.MustRegister(SynthesisTotal)
	prometheus.MustRegister(ExternalCallDuration)
	prometheus.MustRegister(CandidatePoolSize)
	pipelineMetricsRegistered = true
}
