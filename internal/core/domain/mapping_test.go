package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	posPreds = []Predicate{
		{Col("Sentence", "id"), Col("ParagraphOfSentence", "sentence")},
		{Col("ParagraphOfSentence", "paragraph"), Col("Paragraph", "id")},
	}
	dopPreds = []Predicate{
		{Col("Paragraph", "id"), Col("DocumentOfParagraph", "paragraph")},
		{Col("DocumentOfParagraph", "document"), Col("Document", "id")},
	}
	soPreds = []Predicate{
		{Col("Sentence", "id"), Col("SentenceOccurrence", "sentence")},
		{Col("SentenceOccurrence", "document"), Col("Document", "id")},
	}
	docOccPreds = []Predicate{
		{Col("Document", "id"), Col("Occurrence", "document")},
	}
	parOccPreds = []Predicate{
		{Col("Paragraph", "id"), Col("DocumentOfParagraph", "paragraph")},
		{Col("DocumentOfParagraph", "document"), Col("Occurrence", "document")},
	}
	senOccPreds = []Predicate{
		{Col("Sentence", "id"), Col("SentenceOccurrence", "sentence")},
		{Col("SentenceOccurrence", "document"), Col("Occurrence", "document")},
	}
	urlPred = Predicate{Col("Url", "id"), Col("Occurrence", "url")}
)

func withURL(preds []Predicate) []Predicate {
	return append(append([]Predicate(nil), preds...), urlPred)
}

func TestJoinPathFor_AllPairs(t *testing.T) {
	tests := []struct {
		in, out    Level
		connector  Connector
		tables     []string
		predicates []Predicate
	}{
		// From Sentence
		{LevelSentence, LevelParagraph, ConnectorParagraphOfSentence,
			[]string{"Sentence", "Paragraph", "ParagraphOfSentence"}, posPreds},
		{LevelSentence, LevelDocument, ConnectorSentenceOccurrence,
			[]string{"Sentence", "Document", "SentenceOccurrence"}, soPreds},
		{LevelSentence, LevelOccurrence, ConnectorSentenceToOccurrence,
			[]string{"Sentence", "Occurrence", "SentenceOccurrence"}, senOccPreds},
		{LevelSentence, LevelURL, ConnectorSentenceToOccurrence,
			[]string{"Sentence", "Url", "SentenceOccurrence", "Occurrence"}, withURL(senOccPreds)},

		// From Paragraph
		{LevelParagraph, LevelSentence, ConnectorParagraphOfSentence,
			[]string{"Paragraph", "Sentence", "ParagraphOfSentence"}, posPreds},
		{LevelParagraph, LevelDocument, ConnectorDocumentOfParagraph,
			[]string{"Paragraph", "Document", "DocumentOfParagraph"}, dopPreds},
		{LevelParagraph, LevelOccurrence, ConnectorParagraphToOccurrence,
			[]string{"Paragraph", "Occurrence", "DocumentOfParagraph"}, parOccPreds},
		{LevelParagraph, LevelURL, ConnectorParagraphToOccurrence,
			[]string{"Paragraph", "Url", "DocumentOfParagraph", "Occurrence"}, withURL(parOccPreds)},

		// From Document
		{LevelDocument, LevelSentence, ConnectorSentenceOccurrence,
			[]string{"Document", "Sentence", "SentenceOccurrence"}, soPreds},
		{LevelDocument, LevelParagraph, ConnectorDocumentOfParagraph,
			[]string{"Document", "Paragraph", "DocumentOfParagraph"}, dopPreds},
		{LevelDocument, LevelOccurrence, ConnectorDocumentToOccurrence,
			[]string{"Document", "Occurrence"}, docOccPreds},
		{LevelDocument, LevelURL, ConnectorDocumentToOccurrence,
			[]string{"Document", "Url", "Occurrence"}, withURL(docOccPreds)},

		// From Occurrence
		{LevelOccurrence, LevelSentence, ConnectorSentenceToOccurrence,
			[]string{"Occurrence", "Sentence", "SentenceOccurrence"}, senOccPreds},
		{LevelOccurrence, LevelParagraph, ConnectorParagraphToOccurrence,
			[]string{"Occurrence", "Paragraph", "DocumentOfParagraph"}, parOccPreds},
		{LevelOccurrence, LevelDocument, ConnectorDocumentToOccurrence,
			[]string{"Occurrence", "Document"}, docOccPreds},
		{LevelOccurrence, LevelURL, ConnectorNone,
			[]string{"Occurrence", "Url"}, []Predicate{urlPred}},

		// From Url
		{LevelURL, LevelSentence, ConnectorSentenceToOccurrence,
			[]string{"Url", "Sentence", "SentenceOccurrence", "Occurrence"}, withURL(senOccPreds)},
		{LevelURL, LevelParagraph, ConnectorParagraphToOccurrence,
			[]string{"Url", "Paragraph", "DocumentOfParagraph", "Occurrence"}, withURL(parOccPreds)},
		{LevelURL, LevelDocument, ConnectorDocumentToOccurrence,
			[]string{"Url", "Document", "Occurrence"}, withURL(docOccPreds)},
		{LevelURL, LevelOccurrence, ConnectorNone,
			[]string{"Url", "Occurrence"}, []Predicate{urlPred}},
	}

	require.Len(t, tests, 20)

	for _, tt := range tests {
		t.Run(tt.in.String()+"->"+tt.out.String(), func(t *testing.T) {
			path, err := JoinPathFor(tt.in, tt.out)
			require.NoError(t, err)

			assert.Equal(t, tt.in, path.In)
			assert.Equal(t, tt.out, path.Out)
			assert.Equal(t, tt.connector, path.Connector)
			assert.Equal(t, tt.tables, path.Tables)
			assert.Equal(t, tt.predicates, path.Predicates)
		})
	}
}

func TestJoinPathFor_PredicatesReferenceFromList(t *testing.T) {
	for _, in := range Levels {
		for _, out := range Levels {
			if in == out {
				continue
			}
			path, err := JoinPathFor(in, out)
			require.NoError(t, err)

			from := make(map[string]bool, len(path.Tables))
			for _, table := range path.Tables {
				assert.False(t, from[table], "%s->%s lists %s twice", in, out, table)
				from[table] = true
			}
			assert.NotEmpty(t, path.Predicates, "%s->%s has no join predicate", in, out)
			for _, p := range path.Predicates {
				assert.True(t, from[p.Left.Table], "%s->%s: %s not in FROM", in, out, p.Left)
				assert.True(t, from[p.Right.Table], "%s->%s: %s not in FROM", in, out, p.Right)
			}
		}
	}
}

func TestJoinPathFor_Errors(t *testing.T) {
	for _, l := range Levels {
		_, err := JoinPathFor(l, l)
		assert.ErrorIs(t, err, ErrInvalidInput, l.String())
	}

	_, err := JoinPathFor(Level(7), LevelDocument)
	assert.ErrorIs(t, err, ErrUnsupportedLevel)

	_, err = JoinPathFor(LevelDocument, Level(-1))
	assert.ErrorIs(t, err, ErrUnsupportedLevel)
}

func TestConnector_String(t *testing.T) {
	assert.Equal(t, "None", ConnectorNone.String())
	assert.Equal(t, "SentenceToOccurrence", ConnectorSentenceToOccurrence.String())
	assert.Equal(t, "Connector(99)", Connector(99).String())
}

func TestPredicate_String(t *testing.T) {
	assert.Equal(t, "Url.id = Occurrence.url", urlPred.String())
}

func TestMappingRequest_Validate(t *testing.T) {
	valid := MappingRequest{
		InType:   "hash",
		OutTypes: []string{"id"},
		InLevel:  LevelSentence,
		OutLevel: LevelDocument,
	}

	tests := []struct {
		name    string
		mutate  func(r *MappingRequest)
		wantErr error
	}{
		{"valid", func(r *MappingRequest) {}, nil},
		{"valid over", func(r *MappingRequest) { r.OverLevel = Via(LevelParagraph) }, nil},
		{"bad in level", func(r *MappingRequest) { r.InLevel = Level(12) }, ErrUnsupportedLevel},
		{"bad out level", func(r *MappingRequest) { r.OutLevel = Level(12) }, ErrUnsupportedLevel},
		{"bad over level", func(r *MappingRequest) { r.OverLevel = Via(Level(12)) }, ErrUnsupportedLevel},
		{"same level", func(r *MappingRequest) { r.OutLevel = LevelSentence }, ErrInvalidInput},
		{"over equals in", func(r *MappingRequest) { r.OverLevel = Via(LevelSentence) }, ErrInvalidInput},
		{"over equals out", func(r *MappingRequest) { r.OverLevel = Via(LevelDocument) }, ErrInvalidInput},
		{"unknown in type", func(r *MappingRequest) { r.InType = "url" }, ErrUnsupportedColumn},
		{"unknown out type", func(r *MappingRequest) { r.OutTypes = []string{"time"} }, ErrUnsupportedColumn},
		{"no out types", func(r *MappingRequest) { r.OutTypes = nil }, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			err := req.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDistinctRows(t *testing.T) {
	rows := []MappedRow{
		{"id": "1"},
		{"id": "2"},
		{"id": "1"},
		{"id": "1", "Sentence.hash": "abc"},
		{"Sentence.hash": "abc", "id": "1"},
	}

	got := DistinctRows(rows)

	assert.Equal(t, []MappedRow{
		{"id": "1"},
		{"id": "2"},
		{"id": "1", "Sentence.hash": "abc"},
	}, got)
}

func TestMappedRow_KeyIsUnambiguous(t *testing.T) {
	a := MappedRow{"a": "b\x00c"}
	b := MappedRow{"a": "b", "c": ""}
	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, MappedRow{"x": "1", "y": "2"}.Key(), MappedRow{"y": "2", "x": "1"}.Key())
}

func TestProjection_RowKeys(t *testing.T) {
	p := Projection{InColumn: Col("Sentence", "hash"), OutColumns: []Column{Col("Document", "hash")}}
	assert.Equal(t, "Sentence.hash", p.OriginKey())
	assert.Equal(t, "hash", OutKey(p.OutColumns[0]))
}

func TestProjection_Validate(t *testing.T) {
	path, err := JoinPathFor(LevelSentence, LevelDocument)
	require.NoError(t, err)

	ok := Projection{
		Path:       path,
		InColumn:   Col("Sentence", "hash"),
		OutColumns: []Column{Col("Document", "id")},
	}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.InColumn = Col("Document", "hash")
	assert.ErrorIs(t, bad.Validate(), ErrUnsupportedColumn)

	bad = ok
	bad.OutColumns = []Column{Col("Document", "time")}
	assert.ErrorIs(t, bad.Validate(), ErrUnsupportedColumn)

	bad = ok
	bad.OutColumns = nil
	assert.ErrorIs(t, bad.Validate(), ErrInvalidInput)

	assert.ErrorIs(t, Projection{}.Validate(), ErrInvalidInput)
}
