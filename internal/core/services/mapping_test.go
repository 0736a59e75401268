package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docstore/internal/adapters/driven/storage/memory"
	st "github.com/custodia-labs/docstore/internal/adapters/driven/storage/storagetest"
	"github.com/custodia-labs/docstore/internal/core/domain"
)

func newFixtureMapper(t *testing.T) *MappingService {
	t.Helper()
	records := memory.NewRecordStore()
	st.Load(t, records)
	return NewMappingService(records)
}

func TestMappingService_AllPairs(t *testing.T) {
	svc := newFixtureMapper(t)
	ctx := context.Background()

	for key, want := range st.ExpectedPairs {
		in, out := key[0], key[1]
		t.Run(in.String()+"To"+out.String(), func(t *testing.T) {
			rows, err := svc.GetMappedLevels(ctx, domain.MappingRequest{
				InType:        "id",
				OutTypes:      []string{"id"},
				InLevel:       in,
				OutLevel:      out,
				IncludeOrigin: true,
			})
			require.NoError(t, err)

			got := make([]st.Pair, 0, len(rows))
			for _, r := range rows {
				got = append(got, st.Pair{In: r[in.Table()+".id"], Out: r[out.Table()+".id"]})
			}
			assert.ElementsMatch(t, want, got)
		})
	}
}

func TestMappingService_EmptyValuesMatchFullScan(t *testing.T) {
	svc := newFixtureMapper(t)
	ctx := context.Background()

	all := map[domain.Level][]string{
		domain.LevelSentence:   {"1", "2", "3"},
		domain.LevelParagraph:  {"1", "2", "3"},
		domain.LevelDocument:   {"1", "2"},
		domain.LevelOccurrence: {"1", "2", "3"},
		domain.LevelURL:        {"1", "2"},
	}
	for in, ids := range all {
		for _, out := range domain.Levels {
			if in == out {
				continue
			}
			req := domain.MappingRequest{InType: "id", OutTypes: []string{"id"}, InLevel: in, OutLevel: out}
			scan, err := svc.GetMappedLevels(ctx, req)
			require.NoError(t, err)

			req.Values = ids
			listed, err := svc.GetMappedLevels(ctx, req)
			require.NoError(t, err)
			assert.ElementsMatch(t, listed, scan, "%s -> %s", in, out)
		}
	}
}

func TestMappingService_Direct(t *testing.T) {
	svc := newFixtureMapper(t)

	rows, err := svc.GetMappedLevels(context.Background(), domain.MappingRequest{
		Values:        []string{st.Hash(domain.LevelSentence, st.S1)},
		InType:        "hash",
		OutTypes:      []string{"id", "hash"},
		InLevel:       domain.LevelSentence,
		OutLevel:      domain.LevelDocument,
		IncludeOrigin: true,
	})
	require.NoError(t, err)

	s1 := st.Hash(domain.LevelSentence, st.S1)
	assert.ElementsMatch(t, []domain.MappedRow{
		{"Sentence.hash": s1, "id": "1", "hash": st.Hash(domain.LevelDocument, st.D1)},
		{"Sentence.hash": s1, "id": "2", "hash": st.Hash(domain.LevelDocument, st.D2)},
	}, rows)
}

func TestMappingService_Over(t *testing.T) {
	svc := newFixtureMapper(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  domain.MappingRequest
		want []domain.MappedRow
	}{
		{
			name: "sentences over paragraphs to documents",
			req: domain.MappingRequest{
				Values:   []string{"3"},
				InType:   "id",
				OutTypes: []string{"id"},
				InLevel:  domain.LevelSentence, OutLevel: domain.LevelDocument, OverLevel: domain.Via(domain.LevelParagraph),
			},
			want: []domain.MappedRow{{"id": "1"}},
		},
		{
			name: "origin fans out through shared intermediate ids",
			req: domain.MappingRequest{
				Values:   []string{"1", "2"},
				InType:   "id",
				OutTypes: []string{"id"},
				InLevel:  domain.LevelSentence, OutLevel: domain.LevelDocument, OverLevel: domain.Via(domain.LevelParagraph),
				IncludeOrigin: true,
			},
			want: []domain.MappedRow{
				{"Sentence.id": "1", "id": "1"},
				{"Sentence.id": "1", "id": "2"},
				{"Sentence.id": "2", "id": "1"},
				{"Sentence.id": "2", "id": "2"},
			},
		},
		{
			name: "documents over occurrences to urls",
			req: domain.MappingRequest{
				InType:   "id",
				OutTypes: []string{"url"},
				InLevel:  domain.LevelDocument, OutLevel: domain.LevelURL, OverLevel: domain.Via(domain.LevelOccurrence),
				IncludeOrigin: true,
			},
			want: []domain.MappedRow{
				{"Document.id": "1", "url": st.URL1},
				{"Document.id": "1", "url": st.URL2},
				{"Document.id": "2", "url": st.URL2},
			},
		},
		{
			name: "empty intermediate set is empty",
			req: domain.MappingRequest{
				Values:   []string{"no-such-hash"},
				InType:   "hash",
				OutTypes: []string{"id"},
				InLevel:  domain.LevelSentence, OutLevel: domain.LevelURL, OverLevel: domain.Via(domain.LevelDocument),
			},
			want: []domain.MappedRow{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := svc.GetMappedLevels(ctx, tt.req)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, rows)
			assert.NotNil(t, rows)
		})
	}
}

func TestMappingService_Errors(t *testing.T) {
	svc := newFixtureMapper(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  domain.MappingRequest
		want error
	}{
		{
			name: "same level",
			req:  domain.MappingRequest{InType: "id", OutTypes: []string{"id"}, InLevel: domain.LevelDocument, OutLevel: domain.LevelDocument},
			want: domain.ErrInvalidInput,
		},
		{
			name: "unknown level",
			req:  domain.MappingRequest{InType: "id", OutTypes: []string{"id"}, InLevel: domain.Level(9), OutLevel: domain.LevelDocument},
			want: domain.ErrUnsupportedLevel,
		},
		{
			name: "unknown in column",
			req:  domain.MappingRequest{InType: "url", OutTypes: []string{"id"}, InLevel: domain.LevelSentence, OutLevel: domain.LevelDocument},
			want: domain.ErrUnsupportedColumn,
		},
		{
			name: "unknown out column",
			req:  domain.MappingRequest{InType: "id", OutTypes: []string{"time"}, InLevel: domain.LevelSentence, OutLevel: domain.LevelDocument},
			want: domain.ErrUnsupportedColumn,
		},
		{
			name: "over equals in",
			req: domain.MappingRequest{
				InType: "id", OutTypes: []string{"id"},
				InLevel: domain.LevelSentence, OutLevel: domain.LevelDocument, OverLevel: domain.Via(domain.LevelSentence),
			},
			want: domain.ErrInvalidInput,
		},
		{
			name: "non integer id",
			req: domain.MappingRequest{
				Values: []string{"abc"}, InType: "id", OutTypes: []string{"id"},
				InLevel: domain.LevelSentence, OutLevel: domain.LevelDocument,
			},
			want: domain.ErrInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetMappedLevels(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMappingService_ParagraphsOfSentence(t *testing.T) {
	svc := newFixtureMapper(t)
	ctx := context.Background()

	ids, err := svc.ParagraphsOfSentence(ctx, st.S1)
	require.NoError(t, err)
	assert.Equal(t, []int64{st.P1, st.P3}, ids)

	ids, err = svc.ParagraphsOfSentence(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
