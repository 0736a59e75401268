// Package mcp provides an MCP (Model Context Protocol) server adapter for docstore.
// It exposes record lookups, level mapping and stored blobs to AI assistants.
package mcp

import "errors"

var (
	// ErrMissingDocumentService is returned when the document service is not provided.
	ErrMissingDocumentService = errors.New("mcp: document service is required")

	// ErrMissingMappingService is returned when the mapping service is not provided.
	ErrMissingMappingService = errors.New("mcp: mapping service is required")
)
