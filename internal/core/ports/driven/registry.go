package driven

import (
	"context"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

// NormaliserRegistry selects the appropriate normaliser for a document
// based on its MIME type.
type NormaliserRegistry interface {
	// Normalise extracts documents using the normaliser registered for raw.MIMEType.
	Normalise(ctx context.Context, raw *domain.RawDocument) ([]domain.Document, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedMIMETypes returns all MIME types that can be normalised.
	SupportedMIMETypes() []string
}
