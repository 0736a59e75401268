package mcp

import (
	"context"

	"github.com/custodia-labs/docstore/internal/core/domain"
	"github.com/custodia-labs/docstore/internal/core/ports/driving"
)

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	record   *domain.Record
	document *domain.DocumentRecord
	binary   []byte
	meta     map[int64]domain.BlobMeta
	err      error
	metaErr  error

	lastQuery domain.DocumentQuery
	lastID    int64
}

var _ driving.DocumentService = (*mockDocumentService)(nil)

func (m *mockDocumentService) SaveDocument(_ context.Context, _ driving.SaveDocumentRequest) (*domain.DocumentRecord, error) {
	return m.document, m.err
}

func (m *mockDocumentService) SaveParagraphs(_ context.Context, _ []string, _ domain.DocumentMeta) ([]domain.Record, error) {
	return nil, m.err
}

func (m *mockDocumentService) SaveSentences(
	_ context.Context, _ [][]string, _ domain.DocumentMeta, _ []domain.Record,
) ([][]domain.Record, error) {
	return nil, m.err
}

func (m *mockDocumentService) SaveBinary(_ context.Context, _ int64, _ domain.Level, _ []byte, _ domain.DocumentMeta) error {
	return m.err
}

func (m *mockDocumentService) GetDocument(_ context.Context, _ string) (*domain.DocumentRecord, error) {
	return m.document, m.err
}

func (m *mockDocumentService) GetDocumentByID(_ context.Context, _ int64) (*domain.DocumentRecord, error) {
	return m.document, m.err
}

func (m *mockDocumentService) GetDocumentInRange(_ context.Context, _ string, _, _ int64) (*domain.DocumentRecord, error) {
	return m.document, m.err
}

func (m *mockDocumentService) GetDocumentClosest(_ context.Context, _ string, _ int64) (*domain.DocumentRecord, error) {
	return m.document, m.err
}

func (m *mockDocumentService) GetDocumentBefore(_ context.Context, _ string, _ int64) (*domain.DocumentRecord, error) {
	return m.document, m.err
}

func (m *mockDocumentService) GetDocumentAfter(_ context.Context, _ string, _ int64) (*domain.DocumentRecord, error) {
	return m.document, m.err
}

func (m *mockDocumentService) FindDocument(_ context.Context, q domain.DocumentQuery) (*domain.DocumentRecord, error) {
	m.lastQuery = q
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return m.document, m.err
}

func (m *mockDocumentService) GetRecord(_ context.Context, _ domain.Level, _ string) (*domain.Record, error) {
	return m.record, m.err
}

func (m *mockDocumentService) GetRecordByID(_ context.Context, _ domain.Level, id int64) (*domain.Record, error) {
	m.lastID = id
	return m.record, m.err
}

func (m *mockDocumentService) GetBinaryRecord(_ context.Context, _ domain.Level, _ string) ([]byte, error) {
	return m.binary, m.err
}

func (m *mockDocumentService) GetMeta(_ context.Context, _ domain.Level) (map[int64]domain.BlobMeta, error) {
	return m.meta, m.metaErr
}

func (m *mockDocumentService) Occurrences(_ context.Context, _ int64) ([]domain.Occurrence, error) {
	if m.document == nil {
		return nil, m.err
	}
	return m.document.Occurrences, m.err
}

func (m *mockDocumentService) Stats(_ context.Context) (domain.Stats, error) {
	return domain.Stats{}, m.err
}

// mockMappingService is a mock implementation of driving.MappingService.
type mockMappingService struct {
	rows []domain.MappedRow
	err  error

	lastRequest domain.MappingRequest
}

var _ driving.MappingService = (*mockMappingService)(nil)

func (m *mockMappingService) GetMappedLevels(_ context.Context, req domain.MappingRequest) ([]domain.MappedRow, error) {
	m.lastRequest = req
	return m.rows, m.err
}

func (m *mockMappingService) ParagraphsOfSentence(_ context.Context, _ int64) ([]int64, error) {
	return nil, m.err
}

func newTestServer(doc *mockDocumentService, mapping *mockMappingService) *Server {
	if doc == nil {
		doc = &mockDocumentService{}
	}
	if mapping == nil {
		mapping = &mockMappingService{}
	}
	server, err := NewServer(&Ports{Document: doc, Mapping: mapping})
	if err != nil {
		panic(err)
	}
	return server
}
