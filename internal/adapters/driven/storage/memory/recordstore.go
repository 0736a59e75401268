package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/custodia-labs/docstore/internal/core/domain"
	"github.com/custodia-labs/docstore/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

type occurrenceRow struct {
	id, document, url, time int64
	indexerID               string
}

type dopRow struct{ document, paragraph, position int64 }

type posRow struct{ paragraph, sentence, position int64 }

type soRow struct{ sentence, document, paragraph, documentPos, paragraphPos int64 }

// RecordStore is an in-memory driven.RecordStore. Mapping queries are
// answered by a generic join over the same table and column names as the
// relational schema.
type RecordStore struct {
	mu sync.RWMutex

	// byHash and byID index the storage levels.
	byHash map[domain.Level]map[string]int64
	byID   map[domain.Level]map[int64]string

	urlByName map[string]int64
	urlByID   map[int64]string

	occurrences []occurrenceRow
	dop         []dopRow
	pos         []posRow
	so          []soRow

	dopSeen map[dopRow]bool
	posSeen map[posRow]bool
	soSeen  map[soRow]bool

	nextID map[string]int64
}

// NewRecordStore creates an empty in-memory record store.
func NewRecordStore() *RecordStore {
	s := &RecordStore{
		byHash:    make(map[domain.Level]map[string]int64),
		byID:      make(map[domain.Level]map[int64]string),
		urlByName: make(map[string]int64),
		urlByID:   make(map[int64]string),
		dopSeen:   make(map[dopRow]bool),
		posSeen:   make(map[posRow]bool),
		soSeen:    make(map[soRow]bool),
		nextID:    make(map[string]int64),
	}
	for _, l := range domain.StorageLevels {
		s.byHash[l] = make(map[string]int64)
		s.byID[l] = make(map[int64]string)
	}
	return s
}

func (s *RecordStore) allocate(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}

func storage(level domain.Level) error {
	if !level.IsStorage() {
		return fmt.Errorf("%w: %s is not a storage level", domain.ErrUnsupportedLevel, level)
	}
	return nil
}

// ==================== Documents ====================

// hydrate builds a document record with the occurrences accepted by keep.
// Caller holds mu.
func (s *RecordStore) hydrate(id int64, keep func(occurrenceRow) bool) *domain.DocumentRecord {
	doc := domain.NewDocumentRecord(id, s.byID[domain.LevelDocument][id])
	for _, o := range s.occurrences {
		if o.document == id && (keep == nil || keep(o)) {
			doc.AddOccurrence(s.occurrence(o))
		}
	}
	return doc
}

func (s *RecordStore) occurrence(o occurrenceRow) domain.Occurrence {
	return domain.Occurrence{
		ID:         o.id,
		DocumentID: o.document,
		URL:        domain.URL{ID: o.url, URL: s.urlByID[o.url]},
		IndexerID:  o.indexerID,
		Time:       o.time,
	}
}

// GetDocumentByHash returns the document with hash and all its occurrences.
func (s *RecordStore) GetDocumentByHash(_ context.Context, hash string) (*domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byHash[domain.LevelDocument][hash]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", hash, domain.ErrNotFound)
	}
	return s.hydrate(id, nil), nil
}

// GetDocumentByID returns the document with id and all its occurrences.
func (s *RecordStore) GetDocumentByID(_ context.Context, id int64) (*domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.byID[domain.LevelDocument][id]; !ok {
		return nil, fmt.Errorf("document %d: %w", id, domain.ErrNotFound)
	}
	return s.hydrate(id, nil), nil
}

// GetDocumentInRange returns the document of the earliest occurrence at
// url within [low, high], with its occurrences in that window.
func (s *RecordStore) GetDocumentInRange(_ context.Context, url string, low, high int64) (*domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	urlID, ok := s.urlByName[url]
	if !ok {
		return nil, fmt.Errorf("url %q: %w", url, domain.ErrNotFound)
	}

	match := func(o occurrenceRow) bool {
		return o.url == urlID && o.time >= low && o.time <= high
	}

	var first *occurrenceRow
	for i := range s.occurrences {
		o := &s.occurrences[i]
		if !match(*o) {
			continue
		}
		if first == nil || o.time < first.time || (o.time == first.time && o.id < first.id) {
			first = o
		}
	}
	if first == nil {
		return nil, fmt.Errorf("url %q in [%d, %d]: %w", url, low, high, domain.ErrNotFound)
	}

	doc := s.hydrate(first.document, match)
	sort.SliceStable(doc.Occurrences, func(i, j int) bool {
		a, b := doc.Occurrences[i], doc.Occurrences[j]
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return a.ID < b.ID
	})
	return doc, nil
}

// GetDocumentClosest returns the document of the occurrence at url
// nearest to ts. Ties go to the lowest occurrence id.
func (s *RecordStore) GetDocumentClosest(_ context.Context, url string, ts int64, bound domain.TimeBound) (*domain.DocumentRecord, error) {
	if bound != domain.TimeAny && bound != domain.TimeBefore && bound != domain.TimeAfter {
		return nil, fmt.Errorf("%w: time bound %d", domain.ErrInvalidInput, bound)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	urlID, ok := s.urlByName[url]
	if !ok {
		return nil, fmt.Errorf("url %q: %w", url, domain.ErrNotFound)
	}

	var best *occurrenceRow
	var bestDist int64
	for i := range s.occurrences {
		o := &s.occurrences[i]
		if o.url != urlID {
			continue
		}
		if bound == domain.TimeBefore && o.time > ts {
			continue
		}
		if bound == domain.TimeAfter && o.time < ts {
			continue
		}
		d := ts - o.time
		if d < 0 {
			d = -d
		}
		if best == nil || d < bestDist || (d == bestDist && o.id < best.id) {
			best, bestDist = o, d
		}
	}
	if best == nil {
		return nil, fmt.Errorf("url %q near %d: %w", url, ts, domain.ErrNotFound)
	}

	id := best.id
	return s.hydrate(best.document, func(o occurrenceRow) bool { return o.id == id }), nil
}

// CreateDocument inserts a Document row.
func (s *RecordStore) CreateDocument(_ context.Context, hash string) (*domain.DocumentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byHash[domain.LevelDocument][hash]; ok {
		return nil, fmt.Errorf("document %s: %w", hash, domain.ErrAlreadyExists)
	}
	id := s.allocate("Document")
	s.byHash[domain.LevelDocument][hash] = id
	s.byID[domain.LevelDocument][id] = hash
	return domain.NewDocumentRecord(id, hash), nil
}

// ==================== Urls and Occurrences ====================

// GetURL returns the Url row for url.
func (s *RecordStore) GetURL(_ context.Context, url string) (*domain.URL, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.urlByName[url]
	if !ok {
		return nil, fmt.Errorf("url %q: %w", url, domain.ErrNotFound)
	}
	return &domain.URL{ID: id, URL: url}, nil
}

// CreateURL inserts a Url row.
func (s *RecordStore) CreateURL(_ context.Context, url string) (*domain.URL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.urlByName[url]; ok {
		return nil, fmt.Errorf("url %q: %w", url, domain.ErrAlreadyExists)
	}
	id := s.allocate("Url")
	s.urlByName[url] = id
	s.urlByID[id] = url
	return &domain.URL{ID: id, URL: url}, nil
}

// UpdateURL changes the url string of row id.
func (s *RecordStore) UpdateURL(_ context.Context, id int64, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.urlByID[id]
	if !ok {
		return fmt.Errorf("url %d: %w", id, domain.ErrNotFound)
	}
	if other, ok := s.urlByName[url]; ok && other != id {
		return fmt.Errorf("url %q: %w", url, domain.ErrAlreadyExists)
	}
	delete(s.urlByName, old)
	s.urlByName[url] = id
	s.urlByID[id] = url
	return nil
}

// DeleteURL removes Url row id and its occurrences.
func (s *RecordStore) DeleteURL(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	url, ok := s.urlByID[id]
	if !ok {
		return fmt.Errorf("url %d: %w", id, domain.ErrNotFound)
	}
	delete(s.urlByID, id)
	delete(s.urlByName, url)
	s.occurrences = filter(s.occurrences, func(o occurrenceRow) bool { return o.url != id })
	return nil
}

// CreateOccurrence appends an Occurrence row.
func (s *RecordStore) CreateOccurrence(_ context.Context, documentID, urlID int64, indexerID string, time int64) (*domain.Occurrence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[domain.LevelDocument][documentID]; !ok {
		return nil, fmt.Errorf("occurrence document %d: %w", documentID, domain.ErrNotFound)
	}
	if _, ok := s.urlByID[urlID]; !ok {
		return nil, fmt.Errorf("occurrence url %d: %w", urlID, domain.ErrNotFound)
	}

	row := occurrenceRow{
		id:        s.allocate("Occurrence"),
		document:  documentID,
		url:       urlID,
		time:      time,
		indexerID: indexerID,
	}
	s.occurrences = append(s.occurrences, row)
	o := s.occurrence(row)
	return &o, nil
}

// OccurrencesOf lists the occurrences of a document ordered by id.
func (s *RecordStore) OccurrencesOf(_ context.Context, documentID int64) ([]domain.Occurrence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Occurrence
	for _, o := range s.occurrences {
		if o.document == documentID {
			out = append(out, s.occurrence(o))
		}
	}
	return out, nil
}

// DeleteOccurrence removes Occurrence row id.
func (s *RecordStore) DeleteOccurrence(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.occurrences)
	s.occurrences = filter(s.occurrences, func(o occurrenceRow) bool { return o.id != id })
	if len(s.occurrences) == n {
		return fmt.Errorf("occurrence %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ==================== Paragraphs and Sentences ====================

// InsertHashes inserts every hash not yet present at level.
func (s *RecordStore) InsertHashes(_ context.Context, level domain.Level, hashes []string) error {
	if err := storage(level); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, h := range hashes {
		if _, ok := s.byHash[level][h]; ok {
			continue
		}
		id := s.allocate(level.Table())
		s.byHash[level][h] = id
		s.byID[level][id] = h
	}
	return nil
}

// ResolveHashes maps each known hash to its id at level.
func (s *RecordStore) ResolveHashes(_ context.Context, level domain.Level, hashes []string) (map[string]int64, error) {
	if err := storage(level); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make(map[string]int64, len(hashes))
	for _, h := range hashes {
		if id, ok := s.byHash[level][h]; ok {
			ids[h] = id
		}
	}
	return ids, nil
}

// LinkParagraphs records DocumentOfParagraph rows at their input positions.
func (s *RecordStore) LinkParagraphs(_ context.Context, documentID int64, paragraphIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for pos, pid := range paragraphIDs {
		row := dopRow{document: documentID, paragraph: pid, position: int64(pos)}
		if s.dopSeen[row] {
			continue
		}
		s.dopSeen[row] = true
		s.dop = append(s.dop, row)
	}
	return nil
}

// LinkSentences records ParagraphOfSentence and SentenceOccurrence rows.
func (s *RecordStore) LinkSentences(_ context.Context, placements []domain.SentencePlacement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range placements {
		pr := posRow{paragraph: p.ParagraphID, sentence: p.SentenceID, position: int64(p.ParagraphPos)}
		if !s.posSeen[pr] {
			s.posSeen[pr] = true
			s.pos = append(s.pos, pr)
		}

		sr := soRow{
			sentence:     p.SentenceID,
			document:     p.DocumentID,
			paragraph:    p.ParagraphID,
			documentPos:  int64(p.DocumentPos),
			paragraphPos: int64(p.ParagraphPos),
		}
		if !s.soSeen[sr] {
			s.soSeen[sr] = true
			s.so = append(s.so, sr)
		}
	}
	return nil
}

// ==================== Records ====================

// GetRecordByHash returns the row with hash at a storage level.
func (s *RecordStore) GetRecordByHash(_ context.Context, level domain.Level, hash string) (*domain.Record, error) {
	if err := storage(level); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byHash[level][hash]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", level, hash, domain.ErrNotFound)
	}
	return &domain.Record{Level: level, ID: id, Hash: hash}, nil
}

// GetRecordByID returns the row with id at a storage level.
func (s *RecordStore) GetRecordByID(_ context.Context, level domain.Level, id int64) (*domain.Record, error) {
	if err := storage(level); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hash, ok := s.byID[level][id]
	if !ok {
		return nil, fmt.Errorf("%s %d: %w", level, id, domain.ErrNotFound)
	}
	return &domain.Record{Level: level, ID: id, Hash: hash}, nil
}

// UpdateHash replaces the hash of row id.
func (s *RecordStore) UpdateHash(_ context.Context, level domain.Level, id int64, hash string) error {
	if err := storage(level); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.byID[level][id]
	if !ok {
		return fmt.Errorf("%s %d: %w", level, id, domain.ErrNotFound)
	}
	if other, ok := s.byHash[level][hash]; ok && other != id {
		return fmt.Errorf("%s %s: %w", level, hash, domain.ErrAlreadyExists)
	}
	delete(s.byHash[level], old)
	s.byHash[level][hash] = id
	s.byID[level][id] = hash
	return nil
}

// Delete removes row id and every row referencing it.
func (s *RecordStore) Delete(_ context.Context, level domain.Level, id int64) error {
	if err := storage(level); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	hash, ok := s.byID[level][id]
	if !ok {
		return fmt.Errorf("%s %d: %w", level, id, domain.ErrNotFound)
	}
	delete(s.byID[level], id)
	delete(s.byHash[level], hash)

	switch level {
	case domain.LevelDocument:
		s.occurrences = filter(s.occurrences, func(o occurrenceRow) bool { return o.document != id })
		s.dop = filter(s.dop, func(r dopRow) bool { return r.document != id })
		s.so = filter(s.so, func(r soRow) bool { return r.document != id })
	case domain.LevelParagraph:
		s.dop = filter(s.dop, func(r dopRow) bool { return r.paragraph != id })
		s.pos = filter(s.pos, func(r posRow) bool { return r.paragraph != id })
		s.so = filter(s.so, func(r soRow) bool { return r.paragraph != id })
	case domain.LevelSentence:
		s.pos = filter(s.pos, func(r posRow) bool { return r.sentence != id })
		s.so = filter(s.so, func(r soRow) bool { return r.sentence != id })
	}
	s.reindex()
	return nil
}

// reindex rebuilds the association dedup sets after a delete.
func (s *RecordStore) reindex() {
	s.dopSeen = make(map[dopRow]bool, len(s.dop))
	for _, r := range s.dop {
		s.dopSeen[r] = true
	}
	s.posSeen = make(map[posRow]bool, len(s.pos))
	for _, r := range s.pos {
		s.posSeen[r] = true
	}
	s.soSeen = make(map[soRow]bool, len(s.so))
	for _, r := range s.so {
		s.soSeen[r] = true
	}
}

// Stats returns row counts per table.
func (s *RecordStore) Stats(_ context.Context) (domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.Stats{
		Documents:           int64(len(s.byID[domain.LevelDocument])),
		Paragraphs:          int64(len(s.byID[domain.LevelParagraph])),
		Sentences:           int64(len(s.byID[domain.LevelSentence])),
		URLs:                int64(len(s.urlByID)),
		Occurrences:         int64(len(s.occurrences)),
		DocumentOfParagraph: int64(len(s.dop)),
		ParagraphOfSentence: int64(len(s.pos)),
		SentenceOccurrence:  int64(len(s.so)),
	}, nil
}

// Close is a no-op.
func (s *RecordStore) Close() error {
	return nil
}

func filter[T any](rows []T, keep func(T) bool) []T {
	out := rows[:0]
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
