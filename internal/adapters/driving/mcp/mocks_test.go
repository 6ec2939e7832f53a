package mcp

import (
	"context"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results  []domain.SearchResult
	err      error
	count    int
	countErr error
	lastOpts domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockSearchService) Count(_ context.Context) (int, error) {
	return m.count, m.countErr
}

// mockCatalogService is a mock implementation of driving.CatalogService.
type mockCatalogService struct {
	manifests []domain.Manifest
	report    *domain.Report
	err       error
}

func (m *mockCatalogService) Manifests(_ context.Context) ([]domain.Manifest, error) {
	return m.manifests, m.err
}

func (m *mockCatalogService) Manifest(_ context.Context, key string) (*domain.Manifest, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.manifests {
		if m.manifests[i].DocumentKey == key {
			return &m.manifests[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockCatalogService) LatestReport(_ context.Context) (*domain.Report, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.report == nil {
		return nil, domain.ErrNotFound
	}
	return m.report, nil
}
