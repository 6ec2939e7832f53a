package driven

import (
	"context"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

// VectorIndex stores embedded chunks and answers similarity queries.
// Implementations rank by cosine similarity and deduplicate by
// (sourceTag, sectionId) before returning.
type VectorIndex interface {
	// Upsert stores records, replacing any existing record with the same id.
	Upsert(ctx context.Context, records []domain.VectorRecord) error

	// Query returns at most k results for a query vector.
	Query(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
