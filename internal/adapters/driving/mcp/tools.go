package mcp

import (
	"context"
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docstore/internal/core/domain"
)

// GetRecordInput is the input schema for the get_record tool.
type GetRecordInput struct {
	Level string `json:"level" jsonschema:"storage level: document, paragraph or sentence"`
	Hash  string `json:"hash,omitempty" jsonschema:"content hash of the record"`
	ID    int64  `json:"id,omitempty" jsonschema:"record id, used when hash is empty"`
}

// RecordOutput is a content-addressed row.
type RecordOutput struct {
	Level string `json:"level"`
	ID    int64  `json:"id"`
	Hash  string `json:"hash"`
}

// GetDocumentInput is the input schema for the get_document tool.
type GetDocumentInput struct {
	Hash string `json:"hash,omitempty" jsonschema:"content hash of the document"`
	ID   int64  `json:"id,omitempty" jsonschema:"document id"`
	URL  string `json:"url,omitempty" jsonschema:"url the document was observed at"`

	Time  int64  `json:"time,omitempty" jsonschema:"epoch seconds; with url, selects the closest observation"`
	Bound string `json:"bound,omitempty" jsonschema:"any (default), before or after"`

	From *int64 `json:"from,omitempty" jsonschema:"epoch seconds; with url and to, selects the earliest observation in the window"`
	To   *int64 `json:"to,omitempty" jsonschema:"epoch seconds, inclusive end of the window"`
}

// DocumentOutput is a document with its attached occurrences.
type DocumentOutput struct {
	ID          int64              `json:"id"`
	Hash        string             `json:"hash"`
	Occurrences []OccurrenceOutput `json:"occurrences"`
}

// OccurrenceOutput is one observation of a document.
type OccurrenceOutput struct {
	ID        int64  `json:"id"`
	URL       string `json:"url"`
	IndexerID string `json:"indexer_id"`
	Time      int64  `json:"time"`
}

// MapLevelsInput is the input schema for the map_levels tool.
type MapLevelsInput struct {
	InLevel       string   `json:"in_level" jsonschema:"sentence, paragraph, document, occurrence or url"`
	OutLevel      string   `json:"out_level" jsonschema:"level to map to"`
	OverLevel     string   `json:"over_level,omitempty" jsonschema:"optional intermediate level"`
	InType        string   `json:"in_type,omitempty" jsonschema:"column of in_level that values refer to (default hash, or url for the url level)"`
	OutTypes      []string `json:"out_types,omitempty" jsonschema:"columns of out_level to return (default id)"`
	Values        []string `json:"values,omitempty" jsonschema:"input values; empty maps every record"`
	IncludeOrigin bool     `json:"include_origin,omitempty" jsonschema:"include the input value in each row"`
}

// MapLevelsOutput is the output schema for the map_levels tool.
type MapLevelsOutput struct {
	Rows  []map[string]string `json:"rows"`
	Count int                 `json:"count"`
}

// GetMetaInput is the input schema for the get_meta tool.
type GetMetaInput struct {
	Level string `json:"level" jsonschema:"storage level: document, paragraph or sentence"`
}

// MetaOutput is one metadata log entry.
type MetaOutput struct {
	ID             int64  `json:"id"`
	Meta           string `json:"meta"`
	Indexer        string `json:"indexer"`
	ContentType    string `json:"content_type"`
	LastChangeTime int64  `json:"last_change_time"`
	URL            string `json:"url"`
}

// GetMetaOutput is the output schema for the get_meta tool.
type GetMetaOutput struct {
	Entries []MetaOutput `json:"entries"`
	Count   int          `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_record",
		Description: "Look up a document, paragraph or sentence record by hash or id",
	}, s.handleGetRecord)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document",
		Description: "Look up a document by hash, id, or by when it was observed at a url",
	}, s.handleGetDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "map_levels",
		Description: "Find the records at one level related to records at another",
	}, s.handleMapLevels)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_meta",
		Description: "List the stored metadata of every blob at a level",
	}, s.handleGetMeta)
}

func (s *Server) handleGetRecord(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetRecordInput,
) (*mcp.CallToolResult, RecordOutput, error) {
	level, err := domain.ParseLevel(input.Level)
	if err != nil {
		return nil, RecordOutput{}, err
	}

	var rec *domain.Record
	if input.Hash != "" {
		rec, err = s.ports.Document.GetRecord(ctx, level, input.Hash)
	} else {
		rec, err = s.ports.Document.GetRecordByID(ctx, level, input.ID)
	}
	if err != nil {
		return nil, RecordOutput{}, err
	}

	return nil, RecordOutput{Level: rec.Level.String(), ID: rec.ID, Hash: rec.Hash}, nil
}

func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDocumentInput,
) (*mcp.CallToolResult, DocumentOutput, error) {
	query, err := documentQuery(input)
	if err != nil {
		return nil, DocumentOutput{}, err
	}

	doc, err := s.ports.Document.FindDocument(ctx, query)
	if err != nil {
		return nil, DocumentOutput{}, err
	}

	output := DocumentOutput{
		ID:          doc.ID,
		Hash:        doc.Hash,
		Occurrences: make([]OccurrenceOutput, len(doc.Occurrences)),
	}
	for i, o := range doc.Occurrences {
		output.Occurrences[i] = OccurrenceOutput{ID: o.ID, URL: o.URL.URL, IndexerID: o.IndexerID, Time: o.Time}
	}
	return nil, output, nil
}

func documentQuery(input GetDocumentInput) (domain.DocumentQuery, error) {
	q := domain.DocumentQuery{Hash: input.Hash, ID: input.ID, URL: input.URL, Time: input.Time}

	switch input.Bound {
	case "", "any":
		q.Bound = domain.TimeAny
	case "before":
		q.Bound = domain.TimeBefore
	case "after":
		q.Bound = domain.TimeAfter
	default:
		return q, fmt.Errorf("%w: bound %q", domain.ErrInvalidInput, input.Bound)
	}

	if input.From != nil || input.To != nil {
		if input.From == nil || input.To == nil {
			return q, fmt.Errorf("%w: from and to must be given together", domain.ErrInvalidInput)
		}
		q.Range, q.Low, q.High = true, *input.From, *input.To
	}
	return q, nil
}

func (s *Server) handleMapLevels(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MapLevelsInput,
) (*mcp.CallToolResult, MapLevelsOutput, error) {
	req, err := mappingRequest(input)
	if err != nil {
		return nil, MapLevelsOutput{}, err
	}

	rows, err := s.ports.Mapping.GetMappedLevels(ctx, req)
	if err != nil {
		return nil, MapLevelsOutput{}, err
	}

	output := MapLevelsOutput{Rows: make([]map[string]string, len(rows)), Count: len(rows)}
	for i, row := range rows {
		output.Rows[i] = row
	}
	return nil, output, nil
}

func mappingRequest(input MapLevelsInput) (domain.MappingRequest, error) {
	in, err := domain.ParseLevel(input.InLevel)
	if err != nil {
		return domain.MappingRequest{}, err
	}
	out, err := domain.ParseLevel(input.OutLevel)
	if err != nil {
		return domain.MappingRequest{}, err
	}

	req := domain.MappingRequest{
		Values:        input.Values,
		InType:        input.InType,
		OutTypes:      input.OutTypes,
		InLevel:       in,
		OutLevel:      out,
		IncludeOrigin: input.IncludeOrigin,
	}
	if req.InType == "" {
		req.InType = in.DefaultColumn()
	}
	if len(req.OutTypes) == 0 {
		req.OutTypes = []string{"id"}
	}
	if input.OverLevel != "" {
		over, err := domain.ParseLevel(input.OverLevel)
		if err != nil {
			return domain.MappingRequest{}, err
		}
		req.OverLevel = domain.Via(over)
	}
	return req, nil
}

func (s *Server) handleGetMeta(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetMetaInput,
) (*mcp.CallToolResult, GetMetaOutput, error) {
	level, err := domain.ParseLevel(input.Level)
	if err != nil {
		return nil, GetMetaOutput{}, err
	}

	meta, err := s.ports.Document.GetMeta(ctx, level)
	if err != nil {
		return nil, GetMetaOutput{}, err
	}

	output := GetMetaOutput{Entries: make([]MetaOutput, 0, len(meta)), Count: len(meta)}
	for id, m := range meta {
		output.Entries = append(output.Entries, MetaOutput{
			ID:             id,
			Meta:           m.Meta,
			Indexer:        m.Indexer,
			ContentType:    m.ContentType,
			LastChangeTime: m.LastChangeTime,
			URL:            m.URL,
		})
	}
	sort.Slice(output.Entries, func(i, j int) bool { return output.Entries[i].ID < output.Entries[j].ID })
	return nil, output, nil
}
