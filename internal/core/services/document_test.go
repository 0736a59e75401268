package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docstore/internal/adapters/driven/storage/blob"
	"github.com/custodia-labs/docstore/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docstore/internal/core/domain"
	"github.com/custodia-labs/docstore/internal/core/ports/driving"
	"github.com/custodia-labs/docstore/internal/fingerprint"
)

var epoch = time.Unix(1_700_000_000, 0)

func newTestDocumentService(t *testing.T) (*DocumentService, *faultyRecordStore) {
	t.Helper()
	records := newFaultyRecordStore()
	return NewDocumentService(records, newMockBlobs(), nil, domain.FixedClock(epoch), 0), records
}

func saveRequest(data, path string) driving.SaveDocumentRequest {
	return driving.SaveDocumentRequest{
		Data:        []byte(data),
		IndexerID:   "test-indexer",
		Path:        path,
		Meta:        "lang=en",
		ContentType: "text/plain",
		SaveBinary:  true,
	}
}

func TestNewDocumentService_Defaults(t *testing.T) {
	svc := NewDocumentService(memory.NewRecordStore(), nil, nil, nil, 0)
	require.NotNil(t, svc)
	assert.Equal(t, domain.DefaultMaxAttempts, svc.maxAttempts)
	assert.Equal(t, fingerprint.MD5, svc.hasher.Name())
	assert.IsType(t, domain.SystemClock{}, svc.clock)
}

// ==================== Ingestion Protocol ====================

func TestDocumentService_SaveDocument_SamePathTwice(t *testing.T) {
	svc, _ := newTestDocumentService(t)
	ctx := context.Background()

	first, err := svc.SaveDocument(ctx, saveRequest("hello", "file:///a"))
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, fingerprint.Default().String("hello"), first.Hash)
	require.Len(t, first.Occurrences, 1)
	assert.Equal(t, epoch.Unix(), first.Occurrences[0].Time)
	assert.Equal(t, "test-indexer", first.Occurrences[0].IndexerID)

	second, err := svc.SaveDocument(ctx, saveRequest("hello", "file:///a"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, second.Occurrences, 2)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Documents)
	assert.Equal(t, int64(1), st.URLs)
	assert.Equal(t, int64(2), st.Occurrences)
}

func TestDocumentService_SaveDocument_TwoPaths(t *testing.T) {
	svc, _ := newTestDocumentService(t)
	ctx := context.Background()

	a, err := svc.SaveDocument(ctx, saveRequest("hello", "file:///a"))
	require.NoError(t, err)
	b, err := svc.SaveDocument(ctx, saveRequest("hello", "file:///b"))
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Documents)
	assert.Equal(t, int64(2), st.URLs)
	assert.Equal(t, int64(2), st.Occurrences)
}

func TestDocumentService_SaveDocument_RequestClock(t *testing.T) {
	svc, _ := newTestDocumentService(t)

	req := saveRequest("x", "file:///x")
	req.Clock = domain.FixedClock(time.Unix(42, 0))

	doc, err := svc.SaveDocument(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, doc.Occurrences, 1)
	assert.Equal(t, int64(42), doc.Occurrences[0].Time)
}

func TestDocumentService_SaveDocument_BusyExhaustion(t *testing.T) {
	svc, records := newTestDocumentService(t)
	records.lookupErr = domain.ErrStoreBusy

	doc, err := svc.SaveDocument(context.Background(), saveRequest("x", "file:///x"))
	assert.NoError(t, err)
	assert.Nil(t, doc)
	assert.Equal(t, domain.DefaultMaxAttempts, records.callCount("GetDocumentByHash"))
	assert.Zero(t, records.callCount("CreateDocument"))
}

func TestDocumentService_SaveDocument_AttemptCap(t *testing.T) {
	records := newFaultyRecordStore()
	records.lookupErr = domain.ErrStoreBusy
	svc := NewDocumentService(records, newMockBlobs(), nil, nil, 2)

	doc, err := svc.SaveDocument(context.Background(), saveRequest("x", "file:///x"))
	assert.NoError(t, err)
	assert.Nil(t, doc)
	assert.Equal(t, 2, records.callCount("GetDocumentByHash"))
}

func TestDocumentService_SaveDocument_LostRaceRetries(t *testing.T) {
	svc, records := newTestDocumentService(t)
	records.createDoc = []error{domain.ErrAlreadyExists}

	doc, err := svc.SaveDocument(context.Background(), saveRequest("x", "file:///x"))
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Len(t, doc.Occurrences, 1)
	assert.Equal(t, 2, records.callCount("CreateDocument"))

	st, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Documents)
	assert.Equal(t, int64(1), st.Occurrences)
}

func TestDocumentService_SaveDocument_URLBusyReturnsLastDocument(t *testing.T) {
	svc, records := newTestDocumentService(t)
	records.stickyURL = domain.ErrStoreBusy

	doc, err := svc.SaveDocument(context.Background(), saveRequest("x", "file:///x"))
	assert.NoError(t, err)
	require.NotNil(t, doc, "the document resolved before the url failed is returned")
	assert.Empty(t, doc.Occurrences)
	assert.Equal(t, 1, records.callCount("CreateDocument"))
	assert.Equal(t, domain.DefaultMaxAttempts, records.callCount("CreateURL"))

	st, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Documents)
	assert.Zero(t, st.Occurrences)
}

func TestDocumentService_SaveDocument_URLRaceRetries(t *testing.T) {
	svc, records := newTestDocumentService(t)
	records.createURL = []error{domain.ErrAlreadyExists, domain.ErrStoreBusy}

	doc, err := svc.SaveDocument(context.Background(), saveRequest("x", "file:///x"))
	require.NoError(t, err)
	require.Len(t, doc.Occurrences, 1)
	assert.Equal(t, 3, records.callCount("CreateURL"))
}

func TestDocumentService_SaveDocument_NonRetryableError(t *testing.T) {
	svc, records := newTestDocumentService(t)
	records.lookupErr = domain.ErrStorageIO

	doc, err := svc.SaveDocument(context.Background(), saveRequest("x", "file:///x"))
	assert.ErrorIs(t, err, domain.ErrStorageIO)
	assert.Nil(t, doc)
	assert.Equal(t, 1, records.callCount("GetDocumentByHash"))
}

func TestDocumentService_SaveDocument_CancelledContext(t *testing.T) {
	svc, records := newTestDocumentService(t)
	records.lookupErr = domain.ErrStoreBusy

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.SaveDocument(ctx, saveRequest("x", "file:///x"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, records.callCount("GetDocumentByHash"))
}

func TestDocumentService_SaveDocument_BinaryOnlyForNewDocument(t *testing.T) {
	records := newFaultyRecordStore()
	blobs := newMockBlobs()
	svc := NewDocumentService(records, blobs, nil, domain.FixedClock(epoch), 0)
	ctx := context.Background()

	req := saveRequest("payload", "file:///a")
	req.LastChangeTime = 1234
	_, err := svc.SaveDocument(ctx, req)
	require.NoError(t, err)
	_, err = svc.SaveDocument(ctx, saveRequest("payload", "file:///b"))
	require.NoError(t, err)

	docs := blobs[domain.LevelDocument].(*mockBlobStore)
	assert.Equal(t, 1, docs.saves)

	meta, err := svc.GetMeta(ctx, domain.LevelDocument)
	require.NoError(t, err)
	assert.Equal(t, map[int64]domain.BlobMeta{
		1: {Meta: "lang=en", Indexer: "test-indexer", ContentType: "text/plain", LastChangeTime: 1234, URL: "file:///a"},
	}, meta)

	data, err := svc.GetBinaryRecord(ctx, domain.LevelDocument, fingerprint.Default().String("payload"))
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestDocumentService_SaveDocument_NoBinary(t *testing.T) {
	svc, _ := newTestDocumentService(t)
	ctx := context.Background()

	req := saveRequest("payload", "file:///a")
	req.SaveBinary = false
	_, err := svc.SaveDocument(ctx, req)
	require.NoError(t, err)

	_, err = svc.GetBinaryRecord(ctx, domain.LevelDocument, fingerprint.Default().String("payload"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_SaveDocument_BlobFailure(t *testing.T) {
	records := newFaultyRecordStore()
	blobs := newMockBlobs()
	blobs[domain.LevelDocument].(*mockBlobStore).saveErr = domain.ErrStorageIO
	svc := NewDocumentService(records, blobs, nil, nil, 0)

	doc, err := svc.SaveDocument(context.Background(), saveRequest("x", "file:///x"))
	assert.ErrorIs(t, err, domain.ErrStorageIO)
	assert.Nil(t, doc)
	assert.Equal(t, 1, records.callCount("CreateDocument"))
}

func TestDocumentService_SaveDocument_Concurrent(t *testing.T) {
	svc, _ := newTestDocumentService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := svc.SaveDocument(ctx, saveRequest("shared", "file:///shared"))
			assert.NoError(t, err)
			assert.NotNil(t, doc)
		}()
	}
	wg.Wait()

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Documents)
	assert.Equal(t, int64(1), st.URLs)
	assert.Equal(t, int64(20), st.Occurrences)
}

func TestDocumentService_SaveDocument_RealBlobStore(t *testing.T) {
	blobs, err := blob.OpenLevels(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		for _, b := range blobs {
			_ = b.Close()
		}
	})

	hasher, err := fingerprint.New(fingerprint.BLAKE3)
	require.NoError(t, err)
	svc := NewDocumentService(memory.NewRecordStore(), blobs, hasher, domain.FixedClock(epoch), 0)
	ctx := context.Background()

	for _, body := range []string{"first body", "second, longer body", "first body"} {
		_, err := svc.SaveDocument(ctx, saveRequest(body, "file:///doc"))
		require.NoError(t, err)
	}

	data, err := svc.GetBinaryRecord(ctx, domain.LevelDocument, hasher.String("second, longer body"))
	require.NoError(t, err)
	assert.Equal(t, "second, longer body", string(data))

	meta, err := svc.GetMeta(ctx, domain.LevelDocument)
	require.NoError(t, err)
	assert.Len(t, meta, 2)
}

// ==================== Paragraphs and Sentences ====================

func TestDocumentService_SaveParagraphs_Repetition(t *testing.T) {
	svc, records := newTestDocumentService(t)
	ctx := context.Background()

	doc, err := svc.SaveDocument(ctx, saveRequest("p1\n\np2\n\np1", "file:///a"))
	require.NoError(t, err)
	meta := domain.DocumentMeta{ID: doc.ID}

	paras, err := svc.SaveParagraphs(ctx, []string{"p1", "p2", "p1"}, meta)
	require.NoError(t, err)
	require.Len(t, paras, 3)
	assert.Equal(t, paras[0].ID, paras[2].ID)
	assert.NotEqual(t, paras[0].ID, paras[1].ID)
	for _, p := range paras {
		assert.Equal(t, domain.LevelParagraph, p.Level)
	}

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.Paragraphs)
	assert.Equal(t, int64(3), st.DocumentOfParagraph)

	// Positions are the indices of the linked ids.
	require.Len(t, records.linkedParas, 1)
	assert.Equal(t, []int64{paras[0].ID, paras[1].ID, paras[0].ID}, records.linkedParas[0])
}

func TestDocumentService_SaveStructure_Idempotent(t *testing.T) {
	svc, _ := newTestDocumentService(t)
	ctx := context.Background()

	doc, err := svc.SaveDocument(ctx, saveRequest("a. b. c.", "file:///a"))
	require.NoError(t, err)
	meta := domain.DocumentMeta{ID: doc.ID}

	ingest := func() ([]domain.Record, [][]domain.Record) {
		paras, err := svc.SaveParagraphs(ctx, []string{"a. b.", "c."}, meta)
		require.NoError(t, err)
		sents, err := svc.SaveSentences(ctx, [][]string{{"a.", "b."}, {"c."}}, meta, paras)
		require.NoError(t, err)
		return paras, sents
	}

	p1, s1 := ingest()
	before, err := svc.Stats(ctx)
	require.NoError(t, err)

	p2, s2 := ingest()
	after, err := svc.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
	assert.Equal(t, s1, s2)
	assert.Equal(t, before, after)
	assert.Equal(t, int64(3), after.Sentences)
	assert.Equal(t, int64(3), after.ParagraphOfSentence)
	assert.Equal(t, int64(3), after.SentenceOccurrence)
}

func TestDocumentService_SaveSentences_Placements(t *testing.T) {
	svc, records := newTestDocumentService(t)
	ctx := context.Background()

	meta := domain.DocumentMeta{ID: 7}
	require.NoError(t, records.RecordStore.InsertHashes(ctx, domain.LevelParagraph, []string{"x"}))
	paras := []domain.Record{
		{Level: domain.LevelParagraph, ID: 1, Hash: "x"},
		{Level: domain.LevelParagraph, ID: 1, Hash: "x"},
	}

	sents, err := svc.SaveSentences(ctx, [][]string{{"s", "t"}, {"s"}}, meta, paras)
	require.NoError(t, err)
	require.Len(t, sents, 2)
	assert.Equal(t, sents[0][0].ID, sents[1][0].ID)

	require.Len(t, records.placements, 1)
	s, u := sents[0][0].ID, sents[0][1].ID
	assert.Equal(t, []domain.SentencePlacement{
		{SentenceID: s, DocumentID: 7, ParagraphID: 1, DocumentPos: 0, ParagraphPos: 0},
		{SentenceID: u, DocumentID: 7, ParagraphID: 1, DocumentPos: 0, ParagraphPos: 1},
		{SentenceID: s, DocumentID: 7, ParagraphID: 1, DocumentPos: 1, ParagraphPos: 0},
	}, records.placements[0])
}

func TestDocumentService_SaveSentences_GroupMismatch(t *testing.T) {
	svc, _ := newTestDocumentService(t)

	_, err := svc.SaveSentences(context.Background(), [][]string{{"a"}}, domain.DocumentMeta{ID: 1}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentService_SaveParagraphs_Empty(t *testing.T) {
	svc, _ := newTestDocumentService(t)

	paras, err := svc.SaveParagraphs(context.Background(), nil, domain.DocumentMeta{ID: 1})
	require.NoError(t, err)
	assert.Empty(t, paras)
}

func TestDocumentService_SentenceInTwoDocuments(t *testing.T) {
	svc, _ := newTestDocumentService(t)
	mapper := NewMappingService(svc.records)
	ctx := context.Background()

	for i, body := range []string{"doc one", "doc two"} {
		doc, err := svc.SaveDocument(ctx, saveRequest(body, "file:///"+body))
		require.NoError(t, err)
		meta := domain.DocumentMeta{ID: doc.ID}

		// The shared sentence sits in a different paragraph of each document.
		texts := []string{"intro " + body, "shared para " + body}
		groups := [][]string{{"own " + body}, {"shared sentence."}}
		if i == 1 {
			texts[0], texts[1] = texts[1], texts[0]
			groups[0], groups[1] = groups[1], groups[0]
		}
		paras, err := svc.SaveParagraphs(ctx, texts, meta)
		require.NoError(t, err)
		_, err = svc.SaveSentences(ctx, groups, meta, paras)
		require.NoError(t, err)
	}

	rows, err := mapper.GetMappedLevels(ctx, domain.MappingRequest{
		Values:   []string{fingerprint.Default().String("shared sentence.")},
		InType:   "hash",
		OutTypes: []string{"id"},
		InLevel:  domain.LevelSentence,
		OutLevel: domain.LevelDocument,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.MappedRow{{"id": "1"}, {"id": "2"}}, rows)
}

func TestDocumentService_SaveBinary(t *testing.T) {
	records := newFaultyRecordStore()
	blobs := newMockBlobs()
	svc := NewDocumentService(records, blobs, nil, nil, 0)
	ctx := context.Background()

	meta := domain.DocumentMeta{ID: 1, IndexerID: "idx", Path: "file:///p", ContentType: "text/plain"}
	require.NoError(t, svc.SaveBinary(ctx, 3, domain.LevelSentence, []byte("sentence"), meta))

	e, err := blobs[domain.LevelSentence].Entry(3)
	require.NoError(t, err)
	assert.Equal(t, int64(len("sentence")), e.Length)

	all, err := svc.GetMeta(ctx, domain.LevelSentence)
	require.NoError(t, err)
	assert.Equal(t, "file:///p", all[3].URL)

	err = svc.SaveBinary(ctx, 1, domain.LevelURL, []byte("x"), meta)
	assert.ErrorIs(t, err, domain.ErrUnsupportedLevel)
	_, err = svc.GetMeta(ctx, domain.LevelOccurrence)
	assert.ErrorIs(t, err, domain.ErrUnsupportedLevel)
}

// ==================== Lookups ====================

func TestDocumentService_TimeLookups(t *testing.T) {
	svc, _ := newTestDocumentService(t)
	ctx := context.Background()

	for _, v := range []struct {
		body string
		at   int64
	}{
		{"v1", 100},
		{"v2", 200},
		{"v3", 300},
	} {
		req := saveRequest(v.body, "file:///page")
		req.Clock = domain.FixedClock(time.Unix(v.at, 0))
		_, err := svc.SaveDocument(ctx, req)
		require.NoError(t, err)
	}
	hash := fingerprint.Default().String

	tests := []struct {
		name   string
		lookup func() (*domain.DocumentRecord, error)
		want   string
	}{
		{"closest", func() (*domain.DocumentRecord, error) { return svc.GetDocumentClosest(ctx, "file:///page", 240) }, "v2"},
		{"before", func() (*domain.DocumentRecord, error) { return svc.GetDocumentBefore(ctx, "file:///page", 299) }, "v2"},
		{"after", func() (*domain.DocumentRecord, error) { return svc.GetDocumentAfter(ctx, "file:///page", 201) }, "v3"},
		{"range", func() (*domain.DocumentRecord, error) { return svc.GetDocumentInRange(ctx, "file:///page", 150, 350) }, "v2"},
		{"hash", func() (*domain.DocumentRecord, error) { return svc.GetDocument(ctx, hash("v1")) }, "v1"},
		{"id", func() (*domain.DocumentRecord, error) { return svc.GetDocumentByID(ctx, 3) }, "v3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := tt.lookup()
			require.NoError(t, err)
			assert.Equal(t, hash(tt.want), doc.Hash)
		})
	}

	_, err := svc.GetDocumentBefore(ctx, "file:///page", 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	occ, err := svc.Occurrences(ctx, 1)
	require.NoError(t, err)
	require.Len(t, occ, 1)
	assert.Equal(t, int64(100), occ[0].Time)

	rec, err := svc.GetRecord(ctx, domain.LevelDocument, hash("v2"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.ID)
	rec, err = svc.GetRecordByID(ctx, domain.LevelDocument, 2)
	require.NoError(t, err)
	assert.Equal(t, hash("v2"), rec.Hash)
}

func TestDocumentService_FindDocument(t *testing.T) {
	svc, _ := newTestDocumentService(t)
	ctx := context.Background()

	for _, v := range []struct {
		body string
		at   int64
	}{
		{"v1", 100},
		{"v2", 200},
	} {
		req := saveRequest(v.body, "file:///page")
		req.Clock = domain.FixedClock(time.Unix(v.at, 0))
		_, err := svc.SaveDocument(ctx, req)
		require.NoError(t, err)
	}
	hash := fingerprint.Default().String

	tests := []struct {
		name  string
		query domain.DocumentQuery
		want  string
	}{
		{"hash", domain.DocumentQuery{Hash: hash("v2")}, "v2"},
		{"id", domain.DocumentQuery{ID: 1}, "v1"},
		{"closest", domain.DocumentQuery{URL: "file:///page", Time: 160}, "v2"},
		{"before", domain.DocumentQuery{URL: "file:///page", Time: 199, Bound: domain.TimeBefore}, "v1"},
		{"after", domain.DocumentQuery{URL: "file:///page", Time: 101, Bound: domain.TimeAfter}, "v2"},
		{"range", domain.DocumentQuery{URL: "file:///page", Range: true, Low: 0, High: 1000}, "v1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := svc.FindDocument(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, hash(tt.want), doc.Hash)
		})
	}

	_, err := svc.FindDocument(ctx, domain.DocumentQuery{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.FindDocument(ctx, domain.DocumentQuery{URL: "file:///page", Range: true, Low: 201, High: 300})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_GetBinaryRecord_Errors(t *testing.T) {
	svc, _ := newTestDocumentService(t)
	ctx := context.Background()

	_, err := svc.GetBinaryRecord(ctx, domain.LevelDocument, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetBinaryRecord(ctx, domain.LevelURL, "x")
	assert.ErrorIs(t, err, domain.ErrUnsupportedLevel)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}
