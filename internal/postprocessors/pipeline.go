// Package postprocessors provides document content processing implementations.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
	"github.com/custodia-labs/benchbook/internal/logger"
	"github.com/custodia-labs/benchbook/internal/metrics"
)

// Pipeline chains multiple PostProcessors and runs them in order.
// It implements the PostProcessorPipeline interface.
type Pipeline struct {
	processors []driven.PostProcessor
}

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// NewPipeline creates a new processing pipeline with the given processors.
// Processors are executed in the order provided.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Process runs the document through all processors in order.
// The first processor receives nil chunks and should create them.
// Subsequent processors receive and may modify the chunks.
// Diagnostics raised by any processor are logged, counted, and returned.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) (*driven.PipelineResult, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	res := &driven.PipelineResult{}

	for _, processor := range p.processors {
		var (
			diags []domain.Diagnostic
			err   error
		)
		if dp, ok := processor.(driven.DiagnosingPostProcessor); ok {
			res.Chunks, diags, err = dp.ProcessWithDiagnostics(ctx, doc, res.Chunks)
		} else {
			res.Chunks, err = processor.Process(ctx, doc, res.Chunks)
		}
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
		for _, d := range diags {
			report(doc, d)
		}
		res.Diagnostics = append(res.Diagnostics, diags...)
	}

	metrics.RecordChunks(doc.SourceTag, len(res.Chunks))
	logger.Debug("text_chunked", "document", doc.Key, "source", doc.SourceTag, "chunks", len(res.Chunks))

	return res, nil
}

func report(doc *domain.Document, d domain.Diagnostic) {
	switch d.Kind {
	case domain.DiagnosticDegenerate:
		metrics.RecordDegenerate(doc.SourceTag)
		logger.Info("degenerate_document", "document", doc.Key, "source", doc.SourceTag,
			"chars", d.Count, "min_size", d.Limit)
	case domain.DiagnosticLimitExceeded:
		metrics.RecordChunkTruncation(doc.SourceTag)
		logger.Warn("chunk_limit_exceeded", "document", doc.Key, "source", doc.SourceTag,
			"chunks", d.Count, "limit", d.Limit)
	}
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}
