// Package storagetest is a conformance suite for driven.RecordStore
// implementations. Adapters call Run from their own tests.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docstore/internal/core/domain"
	"github.com/custodia-labs/docstore/internal/core/ports/driven"
)

// Fixture ids. Rows are created in order, so ids are dense from 1.
//
//	D1 "doc-1": P1 [S1 S2], P2 [S3]        seen at U1 (t=100, O1), U2 (t=300, O3)
//	D2 "doc-2": P3 [S1],    P1 [S1 S2]     seen at U2 (t=200, O2)
const (
	D1, D2     = 1, 2
	P1, P2, P3 = 1, 2, 3
	S1, S2, S3 = 1, 2, 3
	U1, U2     = 1, 2
	O1, O2, O3 = 1, 2, 3
)

// Fixture url strings.
const (
	URL1 = "https://a.example/1"
	URL2 = "https://b.example/2"
)

// Hash returns the fixture hash for a storage level row id.
func Hash(level domain.Level, id int64) string {
	switch level {
	case domain.LevelDocument:
		return []string{"", "doc-1", "doc-2"}[id]
	case domain.LevelParagraph:
		return []string{"", "par-1", "par-2", "par-3"}[id]
	default:
		return []string{"", "sen-1", "sen-2", "sen-3"}[id]
	}
}

// Load populates store with the fixture through the port.
func Load(t *testing.T, store driven.RecordStore) {
	t.Helper()
	ctx := context.Background()

	for _, id := range []int64{D1, D2} {
		doc, err := store.CreateDocument(ctx, Hash(domain.LevelDocument, id))
		require.NoError(t, err)
		require.Equal(t, id, doc.ID)
	}
	for _, u := range []string{URL1, URL2} {
		_, err := store.CreateURL(ctx, u)
		require.NoError(t, err)
	}

	require.NoError(t, store.InsertHashes(ctx, domain.LevelParagraph,
		[]string{Hash(domain.LevelParagraph, P1), Hash(domain.LevelParagraph, P2), Hash(domain.LevelParagraph, P3)}))
	require.NoError(t, store.InsertHashes(ctx, domain.LevelSentence,
		[]string{Hash(domain.LevelSentence, S1), Hash(domain.LevelSentence, S2), Hash(domain.LevelSentence, S3)}))

	require.NoError(t, store.LinkParagraphs(ctx, D1, []int64{P1, P2}))
	require.NoError(t, store.LinkParagraphs(ctx, D2, []int64{P3, P1}))

	require.NoError(t, store.LinkSentences(ctx, []domain.SentencePlacement{
		{SentenceID: S1, DocumentID: D1, ParagraphID: P1, DocumentPos: 0, ParagraphPos: 0},
		{SentenceID: S2, DocumentID: D1, ParagraphID: P1, DocumentPos: 0, ParagraphPos: 1},
		{SentenceID: S3, DocumentID: D1, ParagraphID: P2, DocumentPos: 1, ParagraphPos: 0},
	}))
	require.NoError(t, store.LinkSentences(ctx, []domain.SentencePlacement{
		{SentenceID: S1, DocumentID: D2, ParagraphID: P3, DocumentPos: 0, ParagraphPos: 0},
		{SentenceID: S1, DocumentID: D2, ParagraphID: P1, DocumentPos: 1, ParagraphPos: 0},
		{SentenceID: S2, DocumentID: D2, ParagraphID: P1, DocumentPos: 1, ParagraphPos: 1},
	}))

	occurrences := []struct {
		doc, url, time int64
	}{
		{D1, U1, 100},
		{D2, U2, 200},
		{D1, U2, 300},
	}
	for i, o := range occurrences {
		occ, err := store.CreateOccurrence(ctx, o.doc, o.url, "fixture", o.time)
		require.NoError(t, err)
		require.Equal(t, int64(i+1), occ.ID)
	}
}

// Pair is an (in id, out id) result of an id-to-id mapping.
type Pair struct{ In, Out string }

// ExpectedPairs is the hand-built join result for every ordered pair of
// levels over the fixture, keyed by [in, out].
var ExpectedPairs = map[[2]domain.Level][]Pair{
	{domain.LevelSentence, domain.LevelParagraph}: {{"1", "1"}, {"2", "1"}, {"3", "2"}, {"1", "3"}},
	{domain.LevelSentence, domain.LevelDocument}:  {{"1", "1"}, {"2", "1"}, {"3", "1"}, {"1", "2"}, {"2", "2"}},
	{domain.LevelSentence, domain.LevelOccurrence}: {
		{"1", "1"}, {"1", "2"}, {"1", "3"}, {"2", "1"}, {"2", "2"}, {"2", "3"}, {"3", "1"}, {"3", "3"},
	},
	{domain.LevelSentence, domain.LevelURL}: {{"1", "1"}, {"1", "2"}, {"2", "1"}, {"2", "2"}, {"3", "1"}, {"3", "2"}},

	{domain.LevelParagraph, domain.LevelSentence}:   {{"1", "1"}, {"1", "2"}, {"2", "3"}, {"3", "1"}},
	{domain.LevelParagraph, domain.LevelDocument}:   {{"1", "1"}, {"2", "1"}, {"3", "2"}, {"1", "2"}},
	{domain.LevelParagraph, domain.LevelOccurrence}: {{"1", "1"}, {"1", "2"}, {"1", "3"}, {"2", "1"}, {"2", "3"}, {"3", "2"}},
	{domain.LevelParagraph, domain.LevelURL}:        {{"1", "1"}, {"1", "2"}, {"2", "1"}, {"2", "2"}, {"3", "2"}},

	{domain.LevelDocument, domain.LevelSentence}:   {{"1", "1"}, {"1", "2"}, {"1", "3"}, {"2", "1"}, {"2", "2"}},
	{domain.LevelDocument, domain.LevelParagraph}:  {{"1", "1"}, {"1", "2"}, {"2", "3"}, {"2", "1"}},
	{domain.LevelDocument, domain.LevelOccurrence}: {{"1", "1"}, {"1", "3"}, {"2", "2"}},
	{domain.LevelDocument, domain.LevelURL}:        {{"1", "1"}, {"1", "2"}, {"2", "2"}},

	{domain.LevelOccurrence, domain.LevelSentence}: {
		{"1", "1"}, {"1", "2"}, {"1", "3"}, {"2", "1"}, {"2", "2"}, {"3", "1"}, {"3", "2"}, {"3", "3"},
	},
	{domain.LevelOccurrence, domain.LevelParagraph}: {{"1", "1"}, {"1", "2"}, {"2", "3"}, {"2", "1"}, {"3", "1"}, {"3", "2"}},
	{domain.LevelOccurrence, domain.LevelDocument}:  {{"1", "1"}, {"2", "2"}, {"3", "1"}},
	{domain.LevelOccurrence, domain.LevelURL}:       {{"1", "1"}, {"2", "2"}, {"3", "2"}},

	{domain.LevelURL, domain.LevelSentence}:   {{"1", "1"}, {"1", "2"}, {"1", "3"}, {"2", "1"}, {"2", "2"}, {"2", "3"}},
	{domain.LevelURL, domain.LevelParagraph}:  {{"1", "1"}, {"1", "2"}, {"2", "1"}, {"2", "2"}, {"2", "3"}},
	{domain.LevelURL, domain.LevelDocument}:   {{"1", "1"}, {"2", "1"}, {"2", "2"}},
	{domain.LevelURL, domain.LevelOccurrence}: {{"1", "1"}, {"2", "2"}, {"2", "3"}},
}

// IDProjection builds an id-to-id projection with the origin included.
func IDProjection(t *testing.T, in, out domain.Level, values ...string) domain.Projection {
	t.Helper()
	path, err := domain.JoinPathFor(in, out)
	require.NoError(t, err)
	return domain.Projection{
		Path:          path,
		InColumn:      domain.Col(in.Table(), "id"),
		Values:        values,
		OutColumns:    []domain.Column{domain.Col(out.Table(), "id")},
		IncludeOrigin: true,
	}
}

// Pairs flattens id-to-id rows into pairs.
func Pairs(p domain.Projection, rows []domain.MappedRow) []Pair {
	out := make([]Pair, 0, len(rows))
	for _, r := range rows {
		out = append(out, Pair{In: r[p.OriginKey()], Out: r[domain.OutKey(p.OutColumns[0])]})
	}
	return out
}
