// Package chunker provides a boundary-aware text chunking processor.
package chunker

import (
	"context"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
	"github.com/custodia-labs/benchbook/internal/tokens"
)

// Default bounds, in characters.
const (
	DefaultChunkSize       = 1500
	DefaultChunkOverlap    = 200
	DefaultMinChunkSize    = 100
	DefaultMaxChunksPerDoc = 2000
	DefaultHardMaxChars    = 20000
)

// Processor splits document content into overlapping, boundary-aware chunks.
// It implements the PostProcessor interface.
type Processor struct {
	params  Params
	counter driven.TokenCounter
}

var _ driven.DiagnosingPostProcessor = (*Processor)(nil)

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.params.TargetSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.params.Overlap = overlap
		}
	}
}

// WithMinSize sets the smallest chunk that may be emitted.
func WithMinSize(size int) Option {
	return func(p *Processor) {
		if size >= 0 {
			p.params.MinSize = size
		}
	}
}

// WithMaxChunksPerDoc caps the number of chunks per document.
func WithMaxChunksPerDoc(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.params.MaxChunksPerDoc = n
		}
	}
}

// WithHardMaxChars sets the unit length above which units are cut at word boundaries.
func WithHardMaxChars(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.params.HardMaxChars = n
		}
	}
}

// WithTokenCounter sets the counter used for Chunk.TokenCount.
func WithTokenCounter(c driven.TokenCounter) Option {
	return func(p *Processor) {
		if c != nil {
			p.counter = c
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		params: Params{
			TargetSize:      DefaultChunkSize,
			Overlap:         DefaultChunkOverlap,
			MinSize:         DefaultMinChunkSize,
			MaxChunksPerDoc: DefaultMaxChunksPerDoc,
			HardMaxChars:    DefaultHardMaxChars,
		},
		counter: tokens.Heuristic{},
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.params.Overlap >= p.params.TargetSize {
		p.params.Overlap = p.params.TargetSize / 4
	}
	if p.params.HardMaxChars < p.params.TargetSize {
		p.params.HardMaxChars = p.params.TargetSize
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Params returns the effective chunking bounds.
func (p *Processor) Params() Params {
	return p.params
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	out, _, err := p.ProcessWithDiagnostics(ctx, doc, chunks)
	return out, err
}

// ProcessWithDiagnostics splits the document and reports degenerate input and truncation.
func (p *Processor) ProcessWithDiagnostics(
	_ context.Context, doc *domain.Document, _ []domain.Chunk,
) ([]domain.Chunk, []domain.Diagnostic, error) {
	res, err := Split(doc.Content, p.params, p.counter)
	if err != nil {
		return nil, nil, err
	}
	if len(res.Spans) == 0 {
		return nil, res.Diagnostics, nil
	}

	chunks := make([]domain.Chunk, len(res.Spans))
	for i, s := range res.Spans {
		chunks[i] = domain.Chunk{
			DocumentKey:   doc.Key,
			Text:          s.Text,
			Ordinal:       i,
			TotalSiblings: len(res.Spans),
			TokenCount:    s.TokenCount,
			StartOffset:   s.Start,
			EndOffset:     s.End,
			SourceTag:     doc.SourceTag,
			Title:         doc.Title,
			SectionID:     doc.SectionID,
			VersionDate:   doc.VersionDate,
		}
	}

	return chunks, res.Diagnostics, nil
}
