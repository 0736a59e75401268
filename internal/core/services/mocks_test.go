package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/docstore/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docstore/internal/core/domain"
	"github.com/custodia-labs/docstore/internal/core/ports/driven"
)

// faultyRecordStore wraps the memory store and injects errors ahead of
// selected calls. A queued error is returned once; a sticky error on
// every call.
type faultyRecordStore struct {
	*memory.RecordStore

	mu sync.Mutex

	lookupErr   error
	createDoc   []error
	createURL   []error
	stickyURL   error
	calls       map[string]int
	linkedParas [][]int64
	placements  [][]domain.SentencePlacement
}

var _ driven.RecordStore = (*faultyRecordStore)(nil)

func newFaultyRecordStore() *faultyRecordStore {
	return &faultyRecordStore{
		RecordStore: memory.NewRecordStore(),
		calls:       make(map[string]int),
	}
}

func (f *faultyRecordStore) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *faultyRecordStore) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func pop(queue *[]error) error {
	if len(*queue) == 0 {
		return nil
	}
	err := (*queue)[0]
	*queue = (*queue)[1:]
	return err
}

func (f *faultyRecordStore) GetDocumentByHash(ctx context.Context, hash string) (*domain.DocumentRecord, error) {
	f.count("GetDocumentByHash")
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.RecordStore.GetDocumentByHash(ctx, hash)
}

func (f *faultyRecordStore) CreateDocument(ctx context.Context, hash string) (*domain.DocumentRecord, error) {
	f.count("CreateDocument")
	f.mu.Lock()
	err := pop(&f.createDoc)
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.RecordStore.CreateDocument(ctx, hash)
}

func (f *faultyRecordStore) CreateURL(ctx context.Context, url string) (*domain.URL, error) {
	f.count("CreateURL")
	f.mu.Lock()
	err := pop(&f.createURL)
	if err == nil {
		err = f.stickyURL
	}
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.RecordStore.CreateURL(ctx, url)
}

func (f *faultyRecordStore) LinkParagraphs(ctx context.Context, documentID int64, paragraphIDs []int64) error {
	f.mu.Lock()
	f.linkedParas = append(f.linkedParas, append([]int64(nil), paragraphIDs...))
	f.mu.Unlock()
	return f.RecordStore.LinkParagraphs(ctx, documentID, paragraphIDs)
}

func (f *faultyRecordStore) LinkSentences(ctx context.Context, placements []domain.SentencePlacement) error {
	f.mu.Lock()
	f.placements = append(f.placements, append([]domain.SentencePlacement(nil), placements...))
	f.mu.Unlock()
	return f.RecordStore.LinkSentences(ctx, placements)
}

// mockBlobStore records saves in memory.
type mockBlobStore struct {
	mu      sync.Mutex
	data    []byte
	entries map[int64]domain.IndexEntry
	meta    map[int64]domain.BlobMeta
	saves   int
	saveErr error
}

var _ driven.BlobStore = (*mockBlobStore)(nil)

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{
		entries: make(map[int64]domain.IndexEntry),
		meta:    make(map[int64]domain.BlobMeta),
	}
}

func (m *mockBlobStore) Save(id int64, data []byte, meta domain.BlobMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.entries[id] = domain.IndexEntry{Offset: int64(len(m.data)), Length: int64(len(data))}
	m.data = append(m.data, data...)
	m.meta[id] = meta
	return nil
}

func (m *mockBlobStore) Read(offset, length int64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset < 0 || length < 0 || offset+length > int64(len(m.data)) {
		return nil, domain.ErrStorageIO
	}
	return append([]byte(nil), m.data[offset:offset+length]...), nil
}

func (m *mockBlobStore) Entry(id int64) (domain.IndexEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return domain.IndexEntry{}, domain.ErrNotFound
	}
	return e, nil
}

func (m *mockBlobStore) Offset(id int64) (int64, error) {
	e, err := m.Entry(id)
	return e.Offset, err
}

func (m *mockBlobStore) Length(id int64) (int64, error) {
	e, err := m.Entry(id)
	return e.Length, err
}

func (m *mockBlobStore) AllMeta() (map[int64]domain.BlobMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]domain.BlobMeta, len(m.meta))
	for k, v := range m.meta {
		out[k] = v
	}
	return out, nil
}

func (m *mockBlobStore) Close() error { return nil }

func newMockBlobs() map[domain.Level]driven.BlobStore {
	blobs := make(map[domain.Level]driven.BlobStore, len(domain.StorageLevels))
	for _, l := range domain.StorageLevels {
		blobs[l] = newMockBlobStore()
	}
	return blobs
}
