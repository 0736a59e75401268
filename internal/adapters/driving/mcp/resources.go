package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docstore/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for docstore resources.
	uriScheme = "docstore://"

	defaultMIMEType = "application/octet-stream"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "{level}/{hash}",
		Name:        "blob",
		Description: "Stored bytes of a document, paragraph or sentence, by content hash",
		MIMEType:    defaultMIMEType,
	}, s.handleBlobResource)
}

// handleBlobResource returns the stored bytes behind docstore://{level}/{hash}.
func (s *Server) handleBlobResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	level, hash, ok := parseBlobURI(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	rec, err := s.ports.Document.GetRecord(ctx, level, hash)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("getting %s record: %w", level, err)
	}

	data, err := s.ports.Document.GetBinaryRecord(ctx, level, hash)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("reading %s blob: %w", level, err)
	}

	mimeType := defaultMIMEType
	if meta, err := s.ports.Document.GetMeta(ctx, level); err == nil {
		if m, ok := meta[rec.ID]; ok && m.ContentType != "" {
			mimeType = m.ContentType
		}
	}

	contents := &mcp.ResourceContents{URI: req.Params.URI, MIMEType: mimeType}
	if strings.HasPrefix(mimeType, "text/") {
		contents.Text = string(data)
	} else {
		contents.Blob = data
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{contents}}, nil
}

// parseBlobURI splits docstore://{level}/{hash}. Only storage levels carry blobs.
func parseBlobURI(uri string) (domain.Level, string, bool) {
	if !strings.HasPrefix(uri, uriScheme) {
		return 0, "", false
	}

	name, hash, found := strings.Cut(strings.TrimPrefix(uri, uriScheme), "/")
	if !found || hash == "" || strings.Contains(hash, "/") {
		return 0, "", false
	}

	level, err := domain.ParseLevel(name)
	if err != nil || !level.IsStorage() {
		return 0, "", false
	}
	return level, hash, true
}
