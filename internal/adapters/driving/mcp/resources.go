package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

const uriScheme = "benchbook://"

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "corpus/stats",
		Name:        "corpus-stats",
		Description: "Number of indexed chunks and ingested documents",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "Every ingested document with its source, section, and chunk count",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentKey}",
		Name:        "document-manifest",
		Description: "Ingest manifest of one document; the key is path-escaped",
		MIMEType:    "application/json",
	}, s.handleManifestResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "reports/latest",
		Name:        "latest-report",
		Description: "The most recent evaluation report",
		MIMEType:    "application/json",
	}, s.handleLatestReportResource)
}

type corpusStats struct {
	Chunks    int `json:"chunks"`
	Documents int `json:"documents"`
}

func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	n, err := s.ports.Search.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting chunks: %w", err)
	}
	stats := corpusStats{Chunks: n}

	if s.ports.Catalog != nil {
		manifests, err := s.ports.Catalog.Manifests(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing manifests: %w", err)
		}
		stats.Documents = len(manifests)
	}

	return jsonResult(req.Params.URI, stats)
}

type documentInfo struct {
	Key       string `json:"key"`
	URI       string `json:"uri"`
	Source    string `json:"source"`
	SectionID string `json:"section_id"`
	Title     string `json:"title"`
	Chunks    int    `json:"chunks"`
}

func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Catalog == nil {
		return jsonResult(req.Params.URI, []documentInfo{})
	}

	manifests, err := s.ports.Catalog.Manifests(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing manifests: %w", err)
	}

	infos := make([]documentInfo, len(manifests))
	for i := range manifests {
		m := &manifests[i]
		infos[i] = documentInfo{
			Key:       m.DocumentKey,
			URI:       documentURI(m.DocumentKey),
			Source:    m.SourceTag,
			SectionID: m.SectionID,
			Title:     m.Title,
			Chunks:    len(m.Chunks),
		}
	}
	return jsonResult(req.Params.URI, infos)
}

func (s *Server) handleManifestResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Catalog == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	key := extractDocumentKey(req.Params.URI)
	if key == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	m, err := s.ports.Catalog.Manifest(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting manifest: %w", err)
	}
	return jsonResult(req.Params.URI, m)
}

func (s *Server) handleLatestReportResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Catalog == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	r, err := s.ports.Catalog.LatestReport(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest report: %w", err)
	}
	return jsonResult(req.Params.URI, r)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// documentURI builds benchbook://documents/{key} with the key path-escaped,
// since keys contain slashes and '#'.
func documentURI(key string) string {
	return uriScheme + "documents/" + url.PathEscape(key)
}

// extractDocumentKey reverses documentURI. It returns "" for URIs outside
// the documents namespace or with a malformed escape.
func extractDocumentKey(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	key, err := url.PathUnescape(strings.TrimPrefix(uri, prefix))
	if err != nil {
		return ""
	}
	return key
}
