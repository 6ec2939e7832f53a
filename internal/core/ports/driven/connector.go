package driven

import (
	"context"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

// Connector reads raw documents from a corpus location.
type Connector interface {
	// FullSync emits every document in the corpus. Both channels are closed
	// when the walk ends; at most one error is sent.
	FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// Watch emits documents as they are created or modified until ctx is
	// cancelled. The channel is closed when watching stops.
	Watch(ctx context.Context) (<-chan domain.RawDocument, error)

	// Close releases resources.
	Close() error
}
