// Package metrics provides Prometheus metrics for BenchBook.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChunksEmitted counts chunks produced by the chunker.
	ChunksEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "benchbook",
			Name:      "chunks_emitted_total",
			Help:      "Total number of chunks emitted",
		},
		[]string{"source"},
	)

	// ChunkTruncations counts documents whose chunk sequence hit the per-document ceiling.
	ChunkTruncations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "benchbook",
			Name:      "chunk_truncations_total",
			Help:      "Total number of documents truncated to the chunk ceiling",
		},
		[]string{"source"},
	)

	// DegenerateDocuments counts documents that yielded zero chunks.
	DegenerateDocuments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "benchbook",
			Name:      "degenerate_documents_total",
			Help:      "Total number of empty or sub-minimum documents",
		},
		[]string{"source"},
	)

	// BatchTruncations counts texts cut to fit the per-batch token budget.
	BatchTruncations = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "benchbook",
			Name:      "batch_truncations_total",
			Help:      "Total number of texts truncated to the batch token budget",
		},
	)

	// EmbeddingBatches counts embedding requests by outcome.
	EmbeddingBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "benchbook",
			Name:      "embedding_batches_total",
			Help:      "Total number of embedding batch requests",
		},
		[]string{"status"},
	)

	// EmbeddingBatchSize observes batch sizes.
	EmbeddingBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "benchbook",
			Name:      "embedding_batch_size",
			Help:      "Distribution of embedding batch sizes",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250},
		},
	)

	// SearchRequests counts search requests by outcome.
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "benchbook",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"status"},
	)

	// SearchDuration measures search latency.
	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "benchbook",
			Name:      "search_duration_seconds",
			Help:      "Duration of search requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// EvaluationCases counts evaluated cases by result.
	EvaluationCases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "benchbook",
			Name:      "evaluation_cases_total",
			Help:      "Total number of evaluated cases",
		},
		[]string{"category", "result"},
	)
)

// RecordChunks records chunks emitted for a document.
func RecordChunks(source string, n int) {
	ChunksEmitted.WithLabelValues(source).Add(float64(n))
}

// RecordChunkTruncation records a document cut to the chunk ceiling.
func RecordChunkTruncation(source string) {
	ChunkTruncations.WithLabelValues(source).Inc()
}

// RecordDegenerate records a document that produced no chunks.
func RecordDegenerate(source string) {
	DegenerateDocuments.WithLabelValues(source).Inc()
}

// RecordBatchTruncations records texts truncated by the batch scheduler.
func RecordBatchTruncations(n int) {
	BatchTruncations.Add(float64(n))
}

// RecordEmbeddingBatch records an embedding request.
func RecordEmbeddingBatch(status string, size int) {
	EmbeddingBatches.WithLabelValues(status).Inc()
	EmbeddingBatchSize.Observe(float64(size))
}

// RecordSearch records a search request.
func RecordSearch(status string, duration float64) {
	SearchRequests.WithLabelValues(status).Inc()
	SearchDuration.Observe(duration)
}

// RecordEvaluation records one evaluated case.
func RecordEvaluation(category string, passed bool) {
	result := "failed"
	if passed {
		result = "passed"
	}
	EvaluationCases.WithLabelValues(category, result).Inc()
}
