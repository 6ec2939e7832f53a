package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
)

// Ensure the stores implement their interfaces.
var (
	_ driven.ManifestStore = (*ManifestStore)(nil)
	_ driven.ReportStore   = (*ReportStore)(nil)
)

// ManifestStore keeps the latest manifest per document key.
type ManifestStore struct {
	mu        sync.RWMutex
	manifests map[string]domain.Manifest
}

// NewManifestStore creates a new in-memory manifest store.
func NewManifestStore() *ManifestStore {
	return &ManifestStore{manifests: make(map[string]domain.Manifest)}
}

// Save stores or replaces the manifest for its document.
func (s *ManifestStore) Save(_ context.Context, m *domain.Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifests[m.DocumentKey] = *m
	return nil
}

// Get retrieves the manifest for a document key.
func (s *ManifestStore) Get(_ context.Context, documentKey string) (*domain.Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.manifests[documentKey]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &m, nil
}

// List returns manifests ordered by document key.
func (s *ManifestStore) List(_ context.Context) ([]domain.Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Manifest, 0, len(s.manifests))
	for _, m := range s.manifests {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentKey < out[j].DocumentKey })
	return out, nil
}

// ReportStore keeps evaluation reports by id.
type ReportStore struct {
	mu      sync.RWMutex
	reports map[string]domain.Report
}

// NewReportStore creates a new in-memory report store.
func NewReportStore() *ReportStore {
	return &ReportStore{reports: make(map[string]domain.Report)}
}

// Save stores a report under its evaluation id.
func (s *ReportStore) Save(_ context.Context, r *domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.EvaluationID] = *r
	return nil
}

// Get retrieves a report by evaluation id.
func (s *ReportStore) Get(_ context.Context, id string) (*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

// Latest returns the report with the newest timestamp.
func (s *ReportStore) Latest(_ context.Context) (*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *domain.Report
	for id := range s.reports {
		r := s.reports[id]
		if latest == nil || r.Timestamp.After(latest.Timestamp) ||
			(r.Timestamp.Equal(latest.Timestamp) && r.EvaluationID > latest.EvaluationID) {
			latest = &r
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}
