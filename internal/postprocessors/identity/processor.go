// Package identity assigns content-addressed ids to chunks.
package identity

import (
	"context"

	"github.com/custodia-labs/benchbook/internal/chunkid"
	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
)

// Processor sets Chunk.ID from the document key, ordinal, and text prefix.
// It must run after the chunker.
type Processor struct{}

var _ driven.PostProcessor = (*Processor)(nil)

// New creates an identity processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "identity"
}

// Process assigns ids in place and returns the same chunks.
func (p *Processor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	for i := range chunks {
		chunks[i].ID = chunkid.New(doc.SourceTag, doc.Key, chunks[i].Ordinal, chunks[i].Text)
		chunks[i].TotalSiblings = len(chunks)
	}
	return chunks, nil
}
