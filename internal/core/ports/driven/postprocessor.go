package driven

import (
	"context"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

// PostProcessor processes document content to produce chunks.
// PostProcessors are chained in a pipeline (chunking, then identity).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a document and returns chunks.
	// If the processor modifies chunks (e.g., identity), it receives and returns chunks.
	// If the processor creates chunks (e.g., chunker), it receives nil and returns new chunks.
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// DiagnosingPostProcessor is a PostProcessor that also reports non-fatal
// diagnostics (degenerate input, truncation) for the document it processed.
type DiagnosingPostProcessor interface {
	PostProcessor

	// ProcessWithDiagnostics behaves like Process and returns the diagnostics raised.
	ProcessWithDiagnostics(
		ctx context.Context, doc *domain.Document, chunks []domain.Chunk,
	) ([]domain.Chunk, []domain.Diagnostic, error)
}

// PipelineResult is the output of running a document through the pipeline.
type PipelineResult struct {
	Chunks      []domain.Chunk
	Diagnostics []domain.Diagnostic
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order.
	Process(ctx context.Context, doc *domain.Document) (*PipelineResult, error)
}
