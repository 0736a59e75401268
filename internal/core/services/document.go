package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/docstore/internal/core/domain"
	"github.com/custodia-labs/docstore/internal/core/ports/driven"
	"github.com/custodia-labs/docstore/internal/core/ports/driving"
	"github.com/custodia-labs/docstore/internal/fingerprint"
	"github.com/custodia-labs/docstore/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService runs the dedup-aware ingestion protocol over a record
// store and the per-level blob stores.
type DocumentService struct {
	records     driven.RecordStore
	blobs       map[domain.Level]driven.BlobStore
	hasher      *fingerprint.Hasher
	clock       domain.Clock
	maxAttempts int

	// mu serialises every ingestion mutation. Reads do not take it.
	mu sync.Mutex
}

// NewDocumentService creates a new document service.
// A nil hasher uses MD5, a nil clock the system clock, and a
// non-positive maxAttempts domain.DefaultMaxAttempts.
func NewDocumentService(
	records driven.RecordStore,
	blobs map[domain.Level]driven.BlobStore,
	hasher *fingerprint.Hasher,
	clock domain.Clock,
	maxAttempts int,
) *DocumentService {
	if hasher == nil {
		hasher = fingerprint.Default()
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if maxAttempts <= 0 {
		maxAttempts = domain.DefaultMaxAttempts
	}
	return &DocumentService{
		records:     records,
		blobs:       blobs,
		hasher:      hasher,
		clock:       clock,
		maxAttempts: maxAttempts,
	}
}

// SaveDocument records one observation of req.Data at req.Path.
//
// Lost creation races and busy stores are retried up to the attempt cap.
// When every attempt fails that way the last resolved document, possibly
// nil, is returned with a nil error. Other errors return immediately.
func (s *DocumentService) SaveDocument(ctx context.Context, req driving.SaveDocumentRequest) (*domain.DocumentRecord, error) {
	clock := req.Clock
	if clock == nil {
		clock = s.clock
	}

	var last *domain.DocumentRecord
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		checksum := s.hasher.Bytes(req.Data)

		doc, err := s.ingest(ctx, req, checksum, clock)
		if doc != nil {
			last = doc
		}
		if err == nil {
			return doc, nil
		}
		if !domain.IsRetryable(err) {
			return nil, err
		}
		logger.Warn("Ingest of %s attempt %d/%d: %v", req.Path, attempt, s.maxAttempts, err)

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
	}

	logger.Warn("Ingest of %s gave up after %d attempts", req.Path, s.maxAttempts)
	return last, nil
}

// ingest is one attempt of the protocol. The document is returned as soon
// as it is resolved, even if a later step fails.
func (s *DocumentService) ingest(
	ctx context.Context,
	req driving.SaveDocumentRequest,
	checksum string,
	clock domain.Clock,
) (*domain.DocumentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.records.GetDocumentByHash(ctx, checksum)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		doc, err = s.records.CreateDocument(ctx, checksum)
		if err != nil {
			return nil, err
		}
		logger.Debug("Created document %d (%s)", doc.ID, checksum)

		if req.SaveBinary {
			meta := domain.BlobMeta{
				Meta:           req.Meta,
				Indexer:        req.IndexerID,
				ContentType:    req.ContentType,
				LastChangeTime: req.LastChangeTime,
				URL:            req.Path,
			}
			if err := s.saveBlob(domain.LevelDocument, doc.ID, req.Data, meta); err != nil {
				return doc, err
			}
		}
	case err != nil:
		return nil, err
	}

	url, err := s.records.GetURL(ctx, req.Path)
	if errors.Is(err, domain.ErrNotFound) {
		url, err = s.records.CreateURL(ctx, req.Path)
		if err == nil {
			logger.Debug("Created url %d (%s)", url.ID, req.Path)
		}
	}
	if err != nil {
		return doc, err
	}

	occ, err := s.records.CreateOccurrence(ctx, doc.ID, url.ID, req.IndexerID, clock.Now().Unix())
	if err != nil {
		return doc, err
	}
	doc.AddOccurrence(*occ)
	return doc, nil
}

// SaveParagraphs dedups paragraphs and links them to doc.ID at their
// input positions.
func (s *DocumentService) SaveParagraphs(ctx context.Context, paragraphs []string, doc domain.DocumentMeta) ([]domain.Record, error) {
	hashes := s.hasher.Strings(paragraphs)

	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.upsertHashes(ctx, domain.LevelParagraph, hashes)
	if err != nil {
		return nil, err
	}

	records := make([]domain.Record, len(hashes))
	for i, h := range hashes {
		records[i] = domain.Record{Level: domain.LevelParagraph, ID: ids[i], Hash: h}
	}

	if err := s.records.LinkParagraphs(ctx, doc.ID, ids); err != nil {
		return nil, fmt.Errorf("linking paragraphs of document %d: %w", doc.ID, err)
	}
	return records, nil
}

// SaveSentences dedups sentences and links each to its paragraph and
// document. sentences[i] are the sentences of paragraphs[i].
func (s *DocumentService) SaveSentences(
	ctx context.Context,
	sentences [][]string,
	doc domain.DocumentMeta,
	paragraphs []domain.Record,
) ([][]domain.Record, error) {
	if len(sentences) != len(paragraphs) {
		return nil, fmt.Errorf("%w: %d sentence groups for %d paragraphs",
			domain.ErrInvalidInput, len(sentences), len(paragraphs))
	}

	var flat []string
	for _, group := range sentences {
		flat = append(flat, s.hasher.Strings(group)...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.upsertHashes(ctx, domain.LevelSentence, flat)
	if err != nil {
		return nil, err
	}

	out := make([][]domain.Record, len(sentences))
	var placements []domain.SentencePlacement
	k := 0
	for i, group := range sentences {
		out[i] = make([]domain.Record, len(group))
		for j := range group {
			out[i][j] = domain.Record{Level: domain.LevelSentence, ID: ids[k], Hash: flat[k]}
			placements = append(placements, domain.SentencePlacement{
				SentenceID:   ids[k],
				DocumentID:   doc.ID,
				ParagraphID:  paragraphs[i].ID,
				DocumentPos:  i,
				ParagraphPos: j,
			})
			k++
		}
	}

	if err := s.records.LinkSentences(ctx, placements); err != nil {
		return nil, fmt.Errorf("linking sentences of document %d: %w", doc.ID, err)
	}
	return out, nil
}

// upsertHashes inserts the absent hashes in one batch and resolves every
// hash to its id, in input order. Caller holds mu.
func (s *DocumentService) upsertHashes(ctx context.Context, level domain.Level, hashes []string) ([]int64, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	if err := s.records.InsertHashes(ctx, level, hashes); err != nil {
		return nil, fmt.Errorf("inserting %s hashes: %w", level, err)
	}
	resolved, err := s.records.ResolveHashes(ctx, level, hashes)
	if err != nil {
		return nil, fmt.Errorf("resolving %s hashes: %w", level, err)
	}

	ids := make([]int64, len(hashes))
	for i, h := range hashes {
		id, ok := resolved[h]
		if !ok {
			return nil, fmt.Errorf("%s %s: %w", level, h, domain.ErrNotFound)
		}
		ids[i] = id
	}
	return ids, nil
}

// SaveBinary writes data for an already resolved id, bypassing dedup.
func (s *DocumentService) SaveBinary(_ context.Context, id int64, level domain.Level, data []byte, doc domain.DocumentMeta) error {
	return s.saveBlob(level, id, data, domain.BlobMetaFromDocument(doc))
}

func (s *DocumentService) saveBlob(level domain.Level, id int64, data []byte, meta domain.BlobMeta) error {
	blobs, err := s.blobStore(level)
	if err != nil {
		return err
	}
	if err := blobs.Save(id, data, meta); err != nil {
		return fmt.Errorf("saving %s %d binary: %w", level, id, err)
	}
	return nil
}

func (s *DocumentService) blobStore(level domain.Level) (driven.BlobStore, error) {
	b, ok := s.blobs[level]
	if !ok {
		return nil, fmt.Errorf("%w: no blob store for %s", domain.ErrUnsupportedLevel, level)
	}
	return b, nil
}

// GetDocument returns the document with hash and all its occurrences.
func (s *DocumentService) GetDocument(ctx context.Context, hash string) (*domain.DocumentRecord, error) {
	return s.records.GetDocumentByHash(ctx, hash)
}

// GetDocumentByID returns the document with id and all its occurrences.
func (s *DocumentService) GetDocumentByID(ctx context.Context, id int64) (*domain.DocumentRecord, error) {
	return s.records.GetDocumentByID(ctx, id)
}

// GetDocumentInRange returns the document first observed at url within [low, high].
func (s *DocumentService) GetDocumentInRange(ctx context.Context, url string, low, high int64) (*domain.DocumentRecord, error) {
	return s.records.GetDocumentInRange(ctx, url, low, high)
}

// GetDocumentClosest returns the document observed at url nearest to ts.
func (s *DocumentService) GetDocumentClosest(ctx context.Context, url string, ts int64) (*domain.DocumentRecord, error) {
	return s.records.GetDocumentClosest(ctx, url, ts, domain.TimeAny)
}

// GetDocumentBefore returns the document observed at url nearest to ts, at or before it.
func (s *DocumentService) GetDocumentBefore(ctx context.Context, url string, ts int64) (*domain.DocumentRecord, error) {
	return s.records.GetDocumentClosest(ctx, url, ts, domain.TimeBefore)
}

// GetDocumentAfter returns the document observed at url nearest to ts, at or after it.
func (s *DocumentService) GetDocumentAfter(ctx context.Context, url string, ts int64) (*domain.DocumentRecord, error) {
	return s.records.GetDocumentClosest(ctx, url, ts, domain.TimeAfter)
}

// FindDocument dispatches q to the matching lookup.
func (s *DocumentService) FindDocument(ctx context.Context, q domain.DocumentQuery) (*domain.DocumentRecord, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	switch {
	case q.Hash != "":
		return s.GetDocument(ctx, q.Hash)
	case q.ID != 0:
		return s.GetDocumentByID(ctx, q.ID)
	case q.Range:
		return s.GetDocumentInRange(ctx, q.URL, q.Low, q.High)
	default:
		return s.records.GetDocumentClosest(ctx, q.URL, q.Time, q.Bound)
	}
}

// GetRecord returns a storage level row by hash.
func (s *DocumentService) GetRecord(ctx context.Context, level domain.Level, hash string) (*domain.Record, error) {
	return s.records.GetRecordByHash(ctx, level, hash)
}

// GetRecordByID returns a storage level row by id.
func (s *DocumentService) GetRecordByID(ctx context.Context, level domain.Level, id int64) (*domain.Record, error) {
	return s.records.GetRecordByID(ctx, level, id)
}

// GetBinaryRecord returns the bytes stored for the row with hash.
func (s *DocumentService) GetBinaryRecord(ctx context.Context, level domain.Level, hash string) ([]byte, error) {
	blobs, err := s.blobStore(level)
	if err != nil {
		return nil, err
	}
	rec, err := s.records.GetRecordByHash(ctx, level, hash)
	if err != nil {
		return nil, err
	}
	entry, err := blobs.Entry(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("%s %d binary: %w", level, rec.ID, err)
	}
	return blobs.Read(entry.Offset, entry.Length)
}

// GetMeta returns the parsed metadata log of a level.
func (s *DocumentService) GetMeta(_ context.Context, level domain.Level) (map[int64]domain.BlobMeta, error) {
	blobs, err := s.blobStore(level)
	if err != nil {
		return nil, err
	}
	return blobs.AllMeta()
}

// Occurrences lists every observation of a document.
func (s *DocumentService) Occurrences(ctx context.Context, documentID int64) ([]domain.Occurrence, error) {
	return s.records.OccurrencesOf(ctx, documentID)
}

// Stats returns row counts per table.
func (s *DocumentService) Stats(ctx context.Context) (domain.Stats, error) {
	return s.records.Stats(ctx)
}
