package plaintext

import (
	"context"
	"time"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
	"github.com/custodia-labs/benchbook/internal/normalisers/legal"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct {
	now func() time.Time
}

// New creates a plain text normaliser. A nil clock uses time.Now.
func New(now func() time.Time) *Normaliser {
	if now == nil {
		now = time.Now
	}
	return &Normaliser{now: now}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/plain", "text/markdown"}
}

// Normalise returns the file as a single document. Paragraph breaks are
// left intact for the chunker.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) ([]domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content := string(raw.Content)
	source := legal.DetectSource(raw.URI)

	return []domain.Document{{
		Key:         raw.URI,
		SourceTag:   source,
		Title:       legal.ExtractTitle(content, raw.URI),
		SectionID:   legal.ExtractSectionID(content, source),
		URI:         raw.URI,
		Content:     content,
		County:      legal.DetectCounty(raw.URI, source),
		VersionDate: legal.VersionDate(n.now()),
	}}, nil
}
