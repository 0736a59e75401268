package storagetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docstore/internal/core/domain"
	"github.com/custodia-labs/docstore/internal/core/ports/driven"
)

// Factory returns an empty store. The suite closes it.
type Factory func(t *testing.T) driven.RecordStore

// Run exercises every RecordStore operation against stores from newStore.
func Run(t *testing.T, newStore Factory) {
	open := func(t *testing.T) driven.RecordStore {
		t.Helper()
		s := newStore(t)
		t.Cleanup(func() { assert.NoError(t, s.Close()) })
		return s
	}
	loaded := func(t *testing.T) driven.RecordStore {
		t.Helper()
		s := open(t)
		Load(t, s)
		return s
	}

	t.Run("Documents", func(t *testing.T) { testDocuments(t, open(t)) })
	t.Run("URLs", func(t *testing.T) { testURLs(t, open(t)) })
	t.Run("Occurrences", func(t *testing.T) { testOccurrences(t, open(t)) })
	t.Run("ClosestAndRange", func(t *testing.T) { testClosestAndRange(t, open(t)) })
	t.Run("Hashes", func(t *testing.T) { testHashes(t, open(t)) })
	t.Run("Links", func(t *testing.T) { testLinks(t, loaded(t)) })
	t.Run("Records", func(t *testing.T) { testRecords(t, loaded(t)) })
	t.Run("DeleteCascades", func(t *testing.T) { testDeleteCascades(t, loaded(t)) })
	t.Run("NonStorageLevels", func(t *testing.T) { testNonStorageLevels(t, open(t)) })
	t.Run("ProjectPairs", func(t *testing.T) { testProjectPairs(t, loaded(t)) })
	t.Run("ProjectColumns", func(t *testing.T) { testProjectColumns(t, loaded(t)) })
	t.Run("ProjectErrors", func(t *testing.T) { testProjectErrors(t, loaded(t)) })
}

func testDocuments(t *testing.T, s driven.RecordStore) {
	ctx := context.Background()

	doc, err := s.CreateDocument(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.ID)
	assert.Equal(t, "h1", doc.Hash)
	assert.Equal(t, domain.LevelDocument, doc.Level)
	assert.Empty(t, doc.Occurrences)

	_, err = s.CreateDocument(ctx, "h1")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.True(t, domain.IsRetryable(err))

	got, err := s.GetDocumentByHash(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Empty(t, got.Occurrences)

	got, err = s.GetDocumentByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "h1", got.Hash)

	_, err = s.GetDocumentByHash(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetDocumentByID(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	second, err := s.CreateDocument(ctx, "h2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)
}

func testURLs(t *testing.T, s driven.RecordStore) {
	ctx := context.Background()

	u, err := s.CreateURL(ctx, URL1)
	require.NoError(t, err)
	assert.Equal(t, domain.URL{ID: 1, URL: URL1}, *u)

	_, err = s.CreateURL(ctx, URL1)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	got, err := s.GetURL(ctx, URL1)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.GetURL(ctx, URL2)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.UpdateURL(ctx, u.ID, URL2))
	got, err = s.GetURL(ctx, URL2)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	_, err = s.GetURL(ctx, URL1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, s.UpdateURL(ctx, 42, URL1), domain.ErrNotFound)

	require.NoError(t, s.DeleteURL(ctx, u.ID))
	_, err = s.GetURL(ctx, URL2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.DeleteURL(ctx, u.ID), domain.ErrNotFound)
}

func testOccurrences(t *testing.T, s driven.RecordStore) {
	ctx := context.Background()

	doc, err := s.CreateDocument(ctx, "h")
	require.NoError(t, err)
	u1, err := s.CreateURL(ctx, URL1)
	require.NoError(t, err)
	u2, err := s.CreateURL(ctx, URL2)
	require.NoError(t, err)

	first, err := s.CreateOccurrence(ctx, doc.ID, u1.ID, "idx", 10)
	require.NoError(t, err)
	assert.Equal(t, domain.Occurrence{
		ID: 1, DocumentID: doc.ID, URL: domain.URL{ID: u1.ID, URL: URL1}, IndexerID: "idx", Time: 10,
	}, *first)

	// Same document, url and time twice: occurrences are never deduplicated.
	_, err = s.CreateOccurrence(ctx, doc.ID, u2.ID, "idx", 5)
	require.NoError(t, err)
	_, err = s.CreateOccurrence(ctx, doc.ID, u2.ID, "idx", 5)
	require.NoError(t, err)

	got, err := s.GetDocumentByHash(ctx, "h")
	require.NoError(t, err)
	require.Len(t, got.Occurrences, 3)
	for i, o := range got.Occurrences {
		assert.Equal(t, int64(i+1), o.ID, "occurrences are ordered by id")
	}
	latest, ok := got.LatestOccurrence()
	require.True(t, ok)
	assert.Equal(t, URL2, latest.URL.URL)

	list, err := s.OccurrencesOf(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Occurrences, list)

	_, err = s.CreateOccurrence(ctx, 99, u1.ID, "idx", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.DeleteOccurrence(ctx, 2))
	list, err = s.OccurrencesOf(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []int64{1, 3}, []int64{list[0].ID, list[1].ID})
	assert.ErrorIs(t, s.DeleteOccurrence(ctx, 2), domain.ErrNotFound)

	require.NoError(t, s.DeleteURL(ctx, u2.ID))
	list, err = s.OccurrencesOf(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, list, 1, "deleting a url removes its occurrences")

	none, err := s.OccurrencesOf(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testClosestAndRange(t *testing.T, s driven.RecordStore) {
	ctx := context.Background()

	a, err := s.CreateDocument(ctx, "a")
	require.NoError(t, err)
	b, err := s.CreateDocument(ctx, "b")
	require.NoError(t, err)
	u, err := s.CreateURL(ctx, URL1)
	require.NoError(t, err)
	other, err := s.CreateURL(ctx, URL2)
	require.NoError(t, err)

	// O1 a@100, O2 b@200, O3 a@300, O4 b@300, O5 a@150 elsewhere.
	for _, o := range []struct {
		doc, url, time int64
	}{
		{a.ID, u.ID, 100},
		{b.ID, u.ID, 200},
		{a.ID, u.ID, 300},
		{b.ID, u.ID, 300},
		{a.ID, other.ID, 150},
	} {
		_, err := s.CreateOccurrence(ctx, o.doc, o.url, "idx", o.time)
		require.NoError(t, err)
	}

	closest := []struct {
		name    string
		ts      int64
		bound   domain.TimeBound
		wantDoc int64
		wantOcc int64
	}{
		{"exact", 200, domain.TimeAny, b.ID, 2},
		{"nearest below", 140, domain.TimeAny, a.ID, 1},
		{"nearest above", 170, domain.TimeAny, b.ID, 2},
		{"equidistant goes to lowest id", 150, domain.TimeAny, a.ID, 1},
		{"same time goes to lowest id", 300, domain.TimeAny, a.ID, 3},
		{"before", 250, domain.TimeBefore, b.ID, 2},
		{"before inclusive", 100, domain.TimeBefore, a.ID, 1},
		{"after", 250, domain.TimeAfter, a.ID, 3},
		{"after inclusive", 200, domain.TimeAfter, b.ID, 2},
		{"far future", 10_000, domain.TimeAny, a.ID, 3},
	}
	for _, tt := range closest {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := s.GetDocumentClosest(ctx, URL1, tt.ts, tt.bound)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDoc, doc.ID)
			require.Len(t, doc.Occurrences, 1)
			assert.Equal(t, tt.wantOcc, doc.Occurrences[0].ID)
			assert.Equal(t, URL1, doc.Occurrences[0].URL.URL)
		})
	}

	_, err = s.GetDocumentClosest(ctx, URL1, 50, domain.TimeBefore)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetDocumentClosest(ctx, URL1, 301, domain.TimeAfter)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetDocumentClosest(ctx, "https://nowhere.example", 100, domain.TimeAny)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetDocumentClosest(ctx, URL1, 100, domain.TimeBound(9))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	doc, err := s.GetDocumentInRange(ctx, URL1, 100, 300)
	require.NoError(t, err)
	assert.Equal(t, a.ID, doc.ID, "earliest occurrence in the window wins")
	require.Len(t, doc.Occurrences, 2)
	assert.Equal(t, []int64{1, 3}, []int64{doc.Occurrences[0].ID, doc.Occurrences[1].ID})

	doc, err = s.GetDocumentInRange(ctx, URL1, 150, 250)
	require.NoError(t, err)
	assert.Equal(t, b.ID, doc.ID)
	require.Len(t, doc.Occurrences, 1)

	doc, err = s.GetDocumentInRange(ctx, URL2, 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, a.ID, doc.ID)
	require.Len(t, doc.Occurrences, 1)
	assert.Equal(t, int64(5), doc.Occurrences[0].ID)

	_, err = s.GetDocumentInRange(ctx, URL1, 301, 400)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetDocumentInRange(ctx, URL1, 300, 100)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testHashes(t *testing.T, s driven.RecordStore) {
	ctx := context.Background()

	require.NoError(t, s.InsertHashes(ctx, domain.LevelParagraph, []string{"p1", "p2", "p1"}))
	require.NoError(t, s.InsertHashes(ctx, domain.LevelParagraph, []string{"p2", "p3"}))
	require.NoError(t, s.InsertHashes(ctx, domain.LevelParagraph, nil))

	ids, err := s.ResolveHashes(ctx, domain.LevelParagraph, []string{"p1", "p2", "p3", "p1", "nope"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"p1": 1, "p2": 2, "p3": 3}, ids)

	// Re-inserting known hashes consumes no ids.
	for range 3 {
		require.NoError(t, s.InsertHashes(ctx, domain.LevelParagraph, []string{"p1", "p2", "p3"}))
	}
	require.NoError(t, s.InsertHashes(ctx, domain.LevelParagraph, []string{"p3", "p4"}))
	ids, err = s.ResolveHashes(ctx, domain.LevelParagraph, []string{"p4"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"p4": 4}, ids)

	empty, err := s.ResolveHashes(ctx, domain.LevelParagraph, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	// Levels are independent id spaces.
	require.NoError(t, s.InsertHashes(ctx, domain.LevelSentence, []string{"p1"}))
	ids, err = s.ResolveHashes(ctx, domain.LevelSentence, []string{"p1", "p2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"p1": 1}, ids)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), st.Paragraphs)
	assert.Equal(t, int64(1), st.Sentences)

	// More hashes than one batch.
	many := make([]string, 1203)
	for i := range many {
		many[i] = fmt.Sprintf("s-%04d", i)
	}
	require.NoError(t, s.InsertHashes(ctx, domain.LevelSentence, many))
	ids, err = s.ResolveHashes(ctx, domain.LevelSentence, many)
	require.NoError(t, err)
	assert.Len(t, ids, len(many))
	assert.Equal(t, int64(2), ids["s-0000"])
}

func testLinks(t *testing.T, s driven.RecordStore) {
	ctx := context.Background()

	before, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{
		Documents: 2, Paragraphs: 3, Sentences: 3, URLs: 2, Occurrences: 3,
		DocumentOfParagraph: 4, ParagraphOfSentence: 4, SentenceOccurrence: 6,
	}, before)

	// Relinking the same rows is a no-op.
	require.NoError(t, s.LinkParagraphs(ctx, D1, []int64{P1, P2}))
	require.NoError(t, s.LinkSentences(ctx, []domain.SentencePlacement{
		{SentenceID: S1, DocumentID: D1, ParagraphID: P1, DocumentPos: 0, ParagraphPos: 0},
	}))
	after, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// The same paragraph at a new position is a new row.
	require.NoError(t, s.LinkParagraphs(ctx, D1, []int64{P2, P2, P1}))
	after, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.DocumentOfParagraph+2, after.DocumentOfParagraph)

	require.NoError(t, s.LinkParagraphs(ctx, D1, nil))
	require.NoError(t, s.LinkSentences(ctx, nil))
}

func testRecords(t *testing.T, s driven.RecordStore) {
	ctx := context.Background()

	for _, level := range domain.StorageLevels {
		rec, err := s.GetRecordByHash(ctx, level, Hash(level, 1))
		require.NoError(t, err)
		assert.Equal(t, domain.Record{Level: level, ID: 1, Hash: Hash(level, 1)}, *rec)

		rec, err = s.GetRecordByID(ctx, level, 2)
		require.NoError(t, err)
		assert.Equal(t, Hash(level, 2), rec.Hash)

		_, err = s.GetRecordByHash(ctx, level, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = s.GetRecordByID(ctx, level, 99)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}

	require.NoError(t, s.UpdateHash(ctx, domain.LevelSentence, S3, "sen-3b"))
	rec, err := s.GetRecordByID(ctx, domain.LevelSentence, S3)
	require.NoError(t, err)
	assert.Equal(t, "sen-3b", rec.Hash)
	_, err = s.GetRecordByHash(ctx, domain.LevelSentence, Hash(domain.LevelSentence, S3))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = s.UpdateHash(ctx, domain.LevelSentence, S3, Hash(domain.LevelSentence, S1))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.ErrorIs(t, s.UpdateHash(ctx, domain.LevelSentence, 99, "x"), domain.ErrNotFound)

	doc, err := s.GetDocumentByHash(ctx, Hash(domain.LevelDocument, D1))
	require.NoError(t, err)
	require.Len(t, doc.Occurrences, 2)
	assert.Equal(t, []int64{O1, O3}, []int64{doc.Occurrences[0].ID, doc.Occurrences[1].ID})
}

func testDeleteCascades(t *testing.T, s driven.RecordStore) {
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, domain.LevelDocument, D1))
	_, err := s.GetDocumentByID(ctx, D1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Documents)
	assert.Equal(t, int64(1), st.Occurrences)
	assert.Equal(t, int64(2), st.DocumentOfParagraph)
	assert.Equal(t, int64(3), st.SentenceOccurrence)
	assert.Equal(t, int64(3), st.Paragraphs, "paragraphs outlive their documents")

	require.NoError(t, s.Delete(ctx, domain.LevelParagraph, P1))
	st, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.DocumentOfParagraph)
	assert.Equal(t, int64(2), st.ParagraphOfSentence)
	assert.Equal(t, int64(1), st.SentenceOccurrence)

	require.NoError(t, s.Delete(ctx, domain.LevelSentence, S1))
	st, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.ParagraphOfSentence)
	assert.Equal(t, int64(0), st.SentenceOccurrence)

	assert.ErrorIs(t, s.Delete(ctx, domain.LevelSentence, S1), domain.ErrNotFound)

	// New placements still link after cascades.
	require.NoError(t, s.InsertHashes(ctx, domain.LevelSentence, []string{"fresh"}))
	ids, err := s.ResolveHashes(ctx, domain.LevelSentence, []string{"fresh"})
	require.NoError(t, err)
	require.NoError(t, s.LinkSentences(ctx, []domain.SentencePlacement{
		{SentenceID: ids["fresh"], DocumentID: D2, ParagraphID: P3, DocumentPos: 0, ParagraphPos: 0},
	}))
	st, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.SentenceOccurrence)
}

func testNonStorageLevels(t *testing.T, s driven.RecordStore) {
	ctx := context.Background()

	for _, level := range []domain.Level{domain.LevelOccurrence, domain.LevelURL, domain.Level(42)} {
		assert.ErrorIs(t, s.InsertHashes(ctx, level, []string{"x"}), domain.ErrUnsupportedLevel)
		_, err := s.ResolveHashes(ctx, level, []string{"x"})
		assert.ErrorIs(t, err, domain.ErrUnsupportedLevel)
		_, err = s.GetRecordByHash(ctx, level, "x")
		assert.ErrorIs(t, err, domain.ErrUnsupportedLevel)
		_, err = s.GetRecordByID(ctx, level, 1)
		assert.ErrorIs(t, err, domain.ErrUnsupportedLevel)
		assert.ErrorIs(t, s.UpdateHash(ctx, level, 1, "x"), domain.ErrUnsupportedLevel)
		assert.ErrorIs(t, s.Delete(ctx, level, 1), domain.ErrUnsupportedLevel)
	}
}

func testProjectPairs(t *testing.T, s driven.RecordStore) {
	ctx := context.Background()

	require.Len(t, ExpectedPairs, 20)
	for key, want := range ExpectedPairs {
		in, out := key[0], key[1]
		t.Run(in.String()+"To"+out.String(), func(t *testing.T) {
			p := IDProjection(t, in, out)
			rows, err := s.Project(ctx, p)
			require.NoError(t, err)
			assert.ElementsMatch(t, want, Pairs(p, rows))

			// Restricting to one input keeps exactly its pairs.
			p = IDProjection(t, in, out, "1")
			rows, err = s.Project(ctx, p)
			require.NoError(t, err)
			var first []Pair
			for _, pair := range want {
				if pair.In == "1" {
					first = append(first, pair)
				}
			}
			assert.ElementsMatch(t, first, Pairs(p, rows))

			// Listing every input matches the unrestricted scan.
			all := IDProjection(t, in, out, "1", "2", "3")
			rows, err = s.Project(ctx, all)
			require.NoError(t, err)
			assert.ElementsMatch(t, want, Pairs(all, rows))
		})
	}
}

func testProjectColumns(t *testing.T, s driven.RecordStore) {
	ctx := context.Background()

	t.Run("sentence hash to document hash", func(t *testing.T) {
		path, err := domain.JoinPathFor(domain.LevelSentence, domain.LevelDocument)
		require.NoError(t, err)
		p := domain.Projection{
			Path:       path,
			InColumn:   domain.Col("Sentence", "hash"),
			Values:     []string{Hash(domain.LevelSentence, S3)},
			OutColumns: []domain.Column{domain.Col("Document", "hash")},
		}
		rows, err := s.Project(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, []domain.MappedRow{{"hash": Hash(domain.LevelDocument, D1)}}, rows)
	})

	t.Run("distinct without origin", func(t *testing.T) {
		path, err := domain.JoinPathFor(domain.LevelSentence, domain.LevelDocument)
		require.NoError(t, err)
		p := domain.Projection{
			Path:       path,
			InColumn:   domain.Col("Sentence", "id"),
			OutColumns: []domain.Column{domain.Col("Document", "id")},
		}
		rows, err := s.Project(ctx, p)
		require.NoError(t, err)
		assert.ElementsMatch(t, []domain.MappedRow{{"id": "1"}, {"id": "2"}}, rows)
	})

	t.Run("url string to occurrence columns", func(t *testing.T) {
		path, err := domain.JoinPathFor(domain.LevelURL, domain.LevelOccurrence)
		require.NoError(t, err)
		p := domain.Projection{
			Path:          path,
			InColumn:      domain.Col("Url", "url"),
			Values:        []string{URL2},
			OutColumns:    []domain.Column{domain.Col("Occurrence", "time"), domain.Col("Occurrence", "indexerId")},
			IncludeOrigin: true,
		}
		rows, err := s.Project(ctx, p)
		require.NoError(t, err)
		assert.ElementsMatch(t, []domain.MappedRow{
			{"Url.url": URL2, "time": "200", "indexerId": "fixture"},
			{"Url.url": URL2, "time": "300", "indexerId": "fixture"},
		}, rows)
	})

	t.Run("occurrence url column is numeric", func(t *testing.T) {
		path, err := domain.JoinPathFor(domain.LevelOccurrence, domain.LevelDocument)
		require.NoError(t, err)
		p := domain.Projection{
			Path:       path,
			InColumn:   domain.Col("Occurrence", "url"),
			Values:     []string{" 2"},
			OutColumns: []domain.Column{domain.Col("Document", "hash")},
		}
		rows, err := s.Project(ctx, p)
		require.NoError(t, err)
		assert.ElementsMatch(t, []domain.MappedRow{
			{"hash": Hash(domain.LevelDocument, D1)},
			{"hash": Hash(domain.LevelDocument, D2)},
		}, rows)
	})

	t.Run("unknown values match nothing", func(t *testing.T) {
		rows, err := s.Project(ctx, IDProjection(t, domain.LevelParagraph, domain.LevelSentence, "77"))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("values beyond one batch", func(t *testing.T) {
		values := make([]string, 1100)
		for i := range values {
			values[i] = fmt.Sprint(i + 1)
		}
		p := IDProjection(t, domain.LevelDocument, domain.LevelURL, values...)
		rows, err := s.Project(ctx, p)
		require.NoError(t, err)
		assert.ElementsMatch(t, ExpectedPairs[[2]domain.Level{domain.LevelDocument, domain.LevelURL}], Pairs(p, rows))
	})
}

func testProjectErrors(t *testing.T, s driven.RecordStore) {
	ctx := context.Background()

	_, err := s.Project(ctx, IDProjection(t, domain.LevelSentence, domain.LevelDocument, "one"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	path, err := domain.JoinPathFor(domain.LevelSentence, domain.LevelDocument)
	require.NoError(t, err)
	_, err = s.Project(ctx, domain.Projection{
		Path:       path,
		InColumn:   domain.Col("Sentence", "url"),
		OutColumns: []domain.Column{domain.Col("Document", "id")},
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedColumn)

	_, err = s.Project(ctx, domain.Projection{Path: path, InColumn: domain.Col("Sentence", "id")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
