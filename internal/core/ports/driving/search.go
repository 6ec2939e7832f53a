package driving

import (
	"context"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

// SearchService provides retrieval to external actors.
type SearchService interface {
	// Search embeds the query and returns ranked, section-deduplicated results.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Count returns the number of indexed chunks.
	Count(ctx context.Context) (int, error)
}
