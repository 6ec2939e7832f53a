package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"a legal question or phrase to retrieve sources for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default 5, max 20)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput is one retrieved chunk with its citation fields.
type SearchResultOutput struct {
	ChunkID   string  `json:"chunk_id"`
	Source    string  `json:"source"`
	SectionID string  `json:"section_id"`
	Title     string  `json:"title"`
	Score     float64 `json:"score"`
	Text      string  `json:"text"`
	URI       string  `json:"uri,omitempty"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Retrieve statute, rule, and policy passages relevant to a question, one per section",
	}, s.handleSearch)
}

// handleSearch leaves Limit at zero when unset so the service default applies.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit < 0 {
		limit = 0
	}

	results, err := s.ports.Search.Search(ctx, input.Query, domain.SearchOptions{Limit: limit})
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		md := results[i].Metadata
		output.Results[i] = SearchResultOutput{
			ChunkID:   results[i].ChunkID,
			Source:    md.SourceTag,
			SectionID: md.SectionID,
			Title:     md.Title,
			Score:     results[i].Score,
			Text:      md.Text,
			URI:       md.URI,
		}
	}

	return nil, output, nil
}
