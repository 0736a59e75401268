package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docstore/internal/adapters/driven/storage/storagetest"
	"github.com/custodia-labs/docstore/internal/core/domain"
	"github.com/custodia-labs/docstore/internal/core/ports/driven"
)

func TestRecordStore_Conformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) driven.RecordStore {
		return NewRecordStore()
	})
}

func TestRecordStore_TableMaterialisation(t *testing.T) {
	s := NewRecordStore()
	storagetest.Load(t, s)

	s.mu.RLock()
	defer s.mu.RUnlock()

	occ, err := s.table("Occurrence")
	require.NoError(t, err)
	require.Len(t, occ, 3)
	assert.Equal(t, row{"id": "2", "url": "2", "document": "2", "time": "200", "indexerId": "fixture"}, occ[1])

	so, err := s.table("SentenceOccurrence")
	require.NoError(t, err)
	assert.Len(t, so, 6)

	_, err = s.table("Nope")
	assert.Error(t, err)
}

func TestNormalizeValues(t *testing.T) {
	path, err := domain.JoinPathFor(domain.LevelSentence, domain.LevelDocument)
	require.NoError(t, err)

	p := domain.Projection{Path: path, InColumn: domain.Col("Sentence", "id"), Values: []string{" 01", "2"}}
	got, err := normalizeValues(p)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"1": true, "2": true}, got)

	p.InColumn = domain.Col("Sentence", "hash")
	p.Values = []string{" 01"}
	got, err = normalizeValues(p)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{" 01": true}, got, "text columns are matched verbatim")

	p.InColumn = domain.Col("Sentence", "id")
	p.Values = []string{"x"}
	_, err = normalizeValues(p)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecordStore_ConcurrentCreate(t *testing.T) {
	s := NewRecordStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created, lost := 0, 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateDocument(ctx, "same")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if assert.ErrorIs(t, err, domain.ErrAlreadyExists) {
				lost++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 19, lost)
}
