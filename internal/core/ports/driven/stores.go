package driven

import (
	"context"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

// ManifestStore persists ingest manifests for audit.
type ManifestStore interface {
	// Save stores a manifest, replacing the previous manifest for the document.
	Save(ctx context.Context, manifest *domain.Manifest) error

	// Get retrieves the latest manifest for a document key.
	Get(ctx context.Context, documentKey string) (*domain.Manifest, error)

	// List returns all manifests ordered by document key.
	List(ctx context.Context) ([]domain.Manifest, error)
}

// ReportStore persists evaluation reports.
type ReportStore interface {
	// Save stores a report under its evaluation id.
	Save(ctx context.Context, report *domain.Report) error

	// Get retrieves a report by evaluation id.
	Get(ctx context.Context, id string) (*domain.Report, error)

	// Latest returns the most recent report.
	Latest(ctx context.Context) (*domain.Report, error)
}
