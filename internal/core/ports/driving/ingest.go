package driving

import (
	"context"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

// IngestOptions configures a single ingest.
type IngestOptions struct {
	// DryRun chunks and builds the manifest without embedding or upserting.
	DryRun bool
}

// IngestService turns documents into indexed vectors.
type IngestService interface {
	// Ingest chunks, embeds, and upserts one document, returning its manifest.
	Ingest(ctx context.Context, doc *domain.Document, opts IngestOptions) (*domain.Manifest, error)

	// IngestRaw extracts documents from raw bytes and ingests each of them.
	IngestRaw(ctx context.Context, raw *domain.RawDocument, opts IngestOptions) ([]domain.Manifest, error)
}
