package driven

import (
	"context"

	"github.com/custodia-labs/docstore/internal/core/domain"
)

// RecordStore persists the Document, Paragraph, Sentence, Url and
// Occurrence tables and their association tables.
//
// Create methods report a lost unique-constraint race as
// domain.ErrAlreadyExists and lock contention as domain.ErrStoreBusy.
// Lookups report a missing row as domain.ErrNotFound.
type RecordStore interface {
	// GetDocumentByHash returns the document with the given content hash,
	// hydrated with every occurrence ordered by occurrence id.
	GetDocumentByHash(ctx context.Context, hash string) (*domain.DocumentRecord, error)

	// GetDocumentByID returns the document with the given id, hydrated
	// with every occurrence ordered by occurrence id.
	GetDocumentByID(ctx context.Context, id int64) (*domain.DocumentRecord, error)

	// GetDocumentInRange returns the document of the earliest occurrence
	// at url with low <= time <= high. Only that document's occurrences
	// matching the filter are attached.
	GetDocumentInRange(ctx context.Context, url string, low, high int64) (*domain.DocumentRecord, error)

	// GetDocumentClosest returns the document of the occurrence at url
	// closest in time to ts, restricted by bound. Ties go to the lowest
	// occurrence id. Only the matched occurrence is attached.
	GetDocumentClosest(ctx context.Context, url string, ts int64, bound domain.TimeBound) (*domain.DocumentRecord, error)

	// CreateDocument inserts a document row for hash.
	CreateDocument(ctx context.Context, hash string) (*domain.DocumentRecord, error)

	// GetURL returns the Url row for url.
	GetURL(ctx context.Context, url string) (*domain.URL, error)

	// CreateURL inserts a Url row for url.
	CreateURL(ctx context.Context, url string) (*domain.URL, error)

	// UpdateURL changes the url string of an existing row.
	UpdateURL(ctx context.Context, id int64, url string) error

	// DeleteURL removes a Url row.
	DeleteURL(ctx context.Context, id int64) error

	// CreateOccurrence appends an occurrence row. Never deduplicated.
	CreateOccurrence(ctx context.Context, documentID, urlID int64, indexerID string, time int64) (*domain.Occurrence, error)

	// OccurrencesOf lists a document's occurrences ordered by id.
	OccurrencesOf(ctx context.Context, documentID int64) ([]domain.Occurrence, error)

	// DeleteOccurrence removes an occurrence row.
	DeleteOccurrence(ctx context.Context, id int64) error

	// InsertHashes inserts every hash not already present at a storage
	// level in one batch. Existing hashes are left untouched.
	InsertHashes(ctx context.Context, level domain.Level, hashes []string) error

	// ResolveHashes maps every given hash to its id at a storage level.
	// Hashes with no row are absent from the result.
	ResolveHashes(ctx context.Context, level domain.Level, hashes []string) (map[string]int64, error)

	// LinkParagraphs records DocumentOfParagraph rows with position equal
	// to the index in paragraphIDs. Existing triples are skipped.
	LinkParagraphs(ctx context.Context, documentID int64, paragraphIDs []int64) error

	// LinkSentences records one ParagraphOfSentence and one
	// SentenceOccurrence row per placement. Existing rows are skipped.
	LinkSentences(ctx context.Context, placements []domain.SentencePlacement) error

	// GetRecordByHash returns the row with hash at a storage level.
	GetRecordByHash(ctx context.Context, level domain.Level, hash string) (*domain.Record, error)

	// GetRecordByID returns the row with id at a storage level.
	GetRecordByID(ctx context.Context, level domain.Level, id int64) (*domain.Record, error)

	// UpdateHash replaces the hash of a row at a storage level.
	UpdateHash(ctx context.Context, level domain.Level, id int64, hash string) error

	// Delete removes a row at a storage level.
	Delete(ctx context.Context, level domain.Level, id int64) error

	// Project runs one direct mapping query and returns distinct rows.
	Project(ctx context.Context, p domain.Projection) ([]domain.MappedRow, error)

	// Stats returns row counts per table.
	Stats(ctx context.Context) (domain.Stats, error)

	// Close releases the underlying connection.
	Close() error
}
