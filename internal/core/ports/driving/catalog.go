package driving

import (
	"context"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

// CatalogService exposes what has been ingested and evaluated.
type CatalogService interface {
	// Manifests lists the latest manifest of every ingested document.
	Manifests(ctx context.Context) ([]domain.Manifest, error)

	// Manifest returns the latest manifest for a document key.
	Manifest(ctx context.Context, documentKey string) (*domain.Manifest, error)

	// LatestReport returns the most recent evaluation report.
	LatestReport(ctx context.Context) (*domain.Report, error)
}
