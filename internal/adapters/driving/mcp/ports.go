package mcp

import (
	"github.com/custodia-labs/benchbook/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls.
type Ports struct {
	// Search provides retrieval. Required.
	Search driving.SearchService

	// Catalog lists manifests and reports. Optional; resources that need
	// it report not found when it is nil.
	Catalog driving.CatalogService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
