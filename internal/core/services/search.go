package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
	"github.com/custodia-labs/benchbook/internal/core/ports/driving"
	"github.com/custodia-labs/benchbook/internal/logger"
	"github.com/custodia-labs/benchbook/internal/metrics"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService embeds queries and ranks indexed chunks against them.
// Query embeddings are cached by exact query text.
type SearchService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	settings domain.RetrievalSettings
	cache    *lru.Cache[string, []float32]
}

// NewSearchService creates a search service. A non-positive cache size
// disables the query cache.
func NewSearchService(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	settings domain.RetrievalSettings,
) (*SearchService, error) {
	s := &SearchService{embedder: embedder, index: index, settings: settings}
	if settings.QueryCacheSize > 0 {
		cache, err := lru.New[string, []float32](settings.QueryCacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating query cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// Search returns at most opts.Limit results with distinct (sourceTag,
// sectionId). A zero limit means the default top-k; limits above the
// maximum are clamped and negative limits are rejected.
func (s *SearchService) Search(
	ctx context.Context,
	query string,
	opts domain.SearchOptions,
) (results []domain.SearchResult, err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.RecordSearch(status, time.Since(start).Seconds())
	}()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	k, err := s.limit(opts.Limit)
	if err != nil {
		return nil, err
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}

	vector, err := s.queryVector(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err = s.index.Query(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	logger.Debug("search_completed", "k", k, "results", len(results),
		"duration_ms", time.Since(start).Milliseconds())
	return results, nil
}

func (s *SearchService) limit(requested int) (int, error) {
	switch {
	case requested < 0:
		return 0, fmt.Errorf("%w: top_k must be at least 1, got %d", domain.ErrInvalidInput, requested)
	case requested == 0:
		return s.settings.DefaultTopK, nil
	case s.settings.MaxTopK > 0 && requested > s.settings.MaxTopK:
		return s.settings.MaxTopK, nil
	default:
		return requested, nil
	}
}

func (s *SearchService) queryVector(ctx context.Context, query string) ([]float32, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(query); ok {
			return v, nil
		}
	}
	v, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if s.cache != nil {
		s.cache.Add(query, v)
	}
	return v, nil
}

// Count returns the number of indexed chunks.
func (s *SearchService) Count(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, domain.ErrVectorIndexUnavailable
	}
	return s.index.Count(ctx)
}
