package metrics

import "github.com/prometheus/client_golang/prometheus"

// LLM generation Prometheus metrics.
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragdex",
			Name:      "llm_requests_total",
			Help:      "Total number of LLM generation requests",
		},
		[]string{"provider", "model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragdex",
			Name:      "llm_request_duration_seconds",
			Help:      "LLM generation request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"provider", "model"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragdex",
			Name:      "llm_tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"provider", "model", "type"}, // type: "prompt" / "completion"
	)
)

// Ingestion Prometheus metrics.
var (
	IngestDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragdex",
			Name:      "ingest_documents_total",
			Help:      "Total documents processed by ingestion",
		},
		[]string{"result"}, // "added" / "skipped" / "failed"
	)

	IngestChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ragdex",
			Name:      "ingest_chunks_total",
			Help:      "Total chunks added to user indexes",
		},
	)
)

var domainMetricsRegistered bool

// RegisterDomainMetrics registers LLM and ingestion metrics. Must be called once from main.
func RegisterDomainMetrics() {
	if domainMetricsRegistered {
		return
	}
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(LLMRequestDuration)
	prometheus.MustRegister(LLMTokensTotal)
	prometheus.MustRegister(IngestDocumentsTotal)
	prometheus.MustRegister(IngestChunksTotal)
	domainMetricsRegistered = true
}
