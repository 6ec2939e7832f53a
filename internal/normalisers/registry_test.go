package normalisers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/normalisers"
	"github.com/custodia-labs/benchbook/internal/normalisers/html"
	"github.com/custodia-labs/benchbook/internal/normalisers/plaintext"
)

func TestRegistry_Dispatch(t *testing.T) {
	r := normalisers.NewRegistry(html.New(), plaintext.New(nil))

	docs, err := r.Normalise(context.Background(), &domain.RawDocument{
		URI:      "dcs/policy.html",
		MIMEType: "text/html; charset=utf-8",
		Content:  []byte("<p>Subject: Emergency Removal Procedures</p>"),
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "DCS Policy: Emergency Removal Procedures", docs[0].Title)

	docs, err = r.Normalise(context.Background(), &domain.RawDocument{
		URI:      "dcs/policy.txt",
		MIMEType: "TEXT/PLAIN",
		Content:  []byte("<p>kept verbatim</p>"),
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>kept verbatim</p>", docs[0].Content)
}

func TestRegistry_Unsupported(t *testing.T) {
	r := normalisers.NewRegistry(plaintext.New(nil))

	_, err := r.Normalise(context.Background(), &domain.RawDocument{URI: "a.pdf", MIMEType: "application/pdf"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	_, err = r.Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegistry_SupportedMIMETypes(t *testing.T) {
	r := normalisers.NewRegistry(html.New(), plaintext.New(nil))

	assert.Equal(t, []string{"application/xhtml+xml", "text/html", "text/markdown", "text/plain"}, r.SupportedMIMETypes())
}
