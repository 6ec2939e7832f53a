package driving

import (
	"context"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

// CorpusSummary totals one pass over a corpus.
type CorpusSummary struct {
	// Files is the number of raw files read.
	Files int
	// Documents is the number of documents ingested (sectioned HTML yields several per file).
	Documents int
	// Chunks is the number of chunks across all ingested documents.
	Chunks int
	// Failed is the number of files that could not be ingested.
	Failed int
	// Manifests holds one manifest per ingested document, in ingest order.
	Manifests []domain.Manifest
}

// CorpusIngestor feeds a whole corpus through an IngestService.
type CorpusIngestor interface {
	// IngestAll reads every corpus file once. A failing file is counted and
	// logged; only connector errors and cancellation end the pass early.
	IngestAll(ctx context.Context, opts IngestOptions) (*CorpusSummary, error)

	// Watch re-ingests files as they change until ctx is cancelled.
	Watch(ctx context.Context, opts IngestOptions) error
}
