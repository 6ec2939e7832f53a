package driven

import (
	"context"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

// Normaliser extracts documents from raw bytes.
// Each normaliser handles specific MIME types (e.g., HTML, plain text).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Normalise extracts one or more documents from a raw document.
	// Sectioned sources (statute HTML) yield one document per section.
	Normalise(ctx context.Context, raw *domain.RawDocument) ([]domain.Document, error)
}
