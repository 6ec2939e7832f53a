package html

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
	"github.com/custodia-labs/benchbook/internal/logger"
	"github.com/custodia-labs/benchbook/internal/normalisers/legal"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct {
	now func() time.Time
}

// Option configures a Normaliser.
type Option func(*Normaliser)

// WithClock sets the clock used for VersionDate.
func WithClock(now func() time.Time) Option {
	return func(n *Normaliser) {
		n.now = now
	}
}

// New creates a new HTML normaliser.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Normalise extracts one document per statute section, or a single
// document of visible text for pages without section headings.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) ([]domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ex, err := extract(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", raw.URI, err)
	}

	source := legal.DetectSource(raw.URI)
	base := domain.Document{
		SourceTag:   source,
		URI:         raw.URI,
		County:      legal.DetectCounty(raw.URI, source),
		VersionDate: legal.VersionDate(n.now()),
	}

	if !ex.Statute {
		doc := base
		doc.Key = raw.URI
		doc.Content = ex.Text
		doc.Title = legal.ExtractTitle(ex.Text, raw.URI)
		doc.SectionID = legal.ExtractSectionID(ex.Text, source)
		return []domain.Document{doc}, nil
	}

	docs := make([]domain.Document, 0, len(ex.Sections))
	for _, sec := range ex.Sections {
		doc := base
		doc.Key = raw.URI + "#" + sec.ID
		doc.SectionID = sec.ID
		doc.Title = sec.Title
		if doc.Title == "" {
			doc.Title = "§ " + sec.ID
		}
		doc.Content = sec.Text
		docs = append(docs, doc)
	}
	logger.Debug("html_sections_extracted", "uri", raw.URI, "source", source, "sections", len(docs))
	return docs, nil
}
