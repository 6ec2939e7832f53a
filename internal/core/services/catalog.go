package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
	"github.com/custodia-labs/benchbook/internal/core/ports/driving"
)

var _ driving.CatalogService = (*CatalogService)(nil)

// CatalogService reads ingest manifests and evaluation reports.
// Either store may be nil, in which case its reads return domain.ErrNotFound.
type CatalogService struct {
	manifests driven.ManifestStore
	reports   driven.ReportStore
}

// NewCatalogService creates a catalog over the given stores.
func NewCatalogService(manifests driven.ManifestStore, reports driven.ReportStore) *CatalogService {
	return &CatalogService{manifests: manifests, reports: reports}
}

// Manifests lists every stored manifest.
func (s *CatalogService) Manifests(ctx context.Context) ([]domain.Manifest, error) {
	if s.manifests == nil {
		return nil, nil
	}
	list, err := s.manifests.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list manifests: %w", err)
	}
	return list, nil
}

// Manifest returns the manifest stored for documentKey.
func (s *CatalogService) Manifest(ctx context.Context, documentKey string) (*domain.Manifest, error) {
	if documentKey == "" {
		return nil, fmt.Errorf("%w: document key is required", domain.ErrInvalidInput)
	}
	if s.manifests == nil {
		return nil, domain.ErrNotFound
	}
	return s.manifests.Get(ctx, documentKey)
}

// LatestReport returns the newest evaluation report.
func (s *CatalogService) LatestReport(ctx context.Context) (*domain.Report, error) {
	if s.reports == nil {
		return nil, domain.ErrNotFound
	}
	return s.reports.Latest(ctx)
}
