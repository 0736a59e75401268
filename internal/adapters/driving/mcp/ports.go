package mcp

import (
	"github.com/custodia-labs/docstore/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Document serves record, document, metadata and blob lookups.
	Document driving.DocumentService

	// Mapping relates records across levels.
	Mapping driving.MappingService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	if p.Mapping == nil {
		return ErrMissingMappingService
	}
	return nil
}
