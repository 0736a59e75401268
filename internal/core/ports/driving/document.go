package driving

import (
	"context"

	"github.com/custodia-labs/docstore/internal/core/domain"
)

// SaveDocumentRequest is one ingestion event for a document's bytes.
type SaveDocumentRequest struct {
	Data           []byte
	IndexerID      string
	Path           string
	Meta           string
	ContentType    string
	LastChangeTime int64

	// SaveBinary persists Data in the Document blob store when the
	// document is new.
	SaveBinary bool

	// Clock supplies the occurrence time. Nil uses the service clock.
	Clock domain.Clock
}

// DocumentService is the dedup-aware ingestion protocol and the direct
// lookups over stored records.
type DocumentService interface {
	// SaveDocument resolves or creates the Document and Url rows and
	// always appends an Occurrence. Under sustained contention it gives
	// up after the attempt cap and returns the last resolved record,
	// possibly nil, without an error.
	SaveDocument(ctx context.Context, req SaveDocumentRequest) (*domain.DocumentRecord, error)

	// SaveParagraphs dedups paragraphs and links them to doc.ID by position.
	SaveParagraphs(ctx context.Context, paragraphs []string, doc domain.DocumentMeta) ([]domain.Record, error)

	// SaveSentences dedups sentences grouped by paragraph and links them
	// to their paragraph and document. sentences[i] belongs to paragraphs[i].
	SaveSentences(ctx context.Context, sentences [][]string, doc domain.DocumentMeta, paragraphs []domain.Record) ([][]domain.Record, error)

	// SaveBinary writes data to a level's blob store for an already
	// resolved id, bypassing dedup.
	SaveBinary(ctx context.Context, id int64, level domain.Level, data []byte, doc domain.DocumentMeta) error

	// GetDocument returns the document with the given content hash.
	GetDocument(ctx context.Context, hash string) (*domain.DocumentRecord, error)

	// GetDocumentByID returns the document with the given id.
	GetDocumentByID(ctx context.Context, id int64) (*domain.DocumentRecord, error)

	// GetDocumentInRange returns the document observed at url between low and high.
	GetDocumentInRange(ctx context.Context, url string, low, high int64) (*domain.DocumentRecord, error)

	// GetDocumentClosest returns the document observed at url closest to ts.
	GetDocumentClosest(ctx context.Context, url string, ts int64) (*domain.DocumentRecord, error)

	// GetDocumentBefore returns the closest document observed at url at or before ts.
	GetDocumentBefore(ctx context.Context, url string, ts int64) (*domain.DocumentRecord, error)

	// GetDocumentAfter returns the closest document observed at url at or after ts.
	GetDocumentAfter(ctx context.Context, url string, ts int64) (*domain.DocumentRecord, error)

	// FindDocument runs whichever of the lookups above q selects.
	FindDocument(ctx context.Context, q domain.DocumentQuery) (*domain.DocumentRecord, error)

	// GetRecord returns a storage level row by hash.
	GetRecord(ctx context.Context, level domain.Level, hash string) (*domain.Record, error)

	// GetRecordByID returns a storage level row by id.
	GetRecordByID(ctx context.Context, level domain.Level, id int64) (*domain.Record, error)

	// GetBinaryRecord returns the stored bytes of the row with hash.
	GetBinaryRecord(ctx context.Context, level domain.Level, hash string) ([]byte, error)

	// GetMeta returns the parsed metadata log of a level's blob store.
	GetMeta(ctx context.Context, level domain.Level) (map[int64]domain.BlobMeta, error)

	// Occurrences lists every observation of a document.
	Occurrences(ctx context.Context, documentID int64) ([]domain.Occurrence, error)

	// Stats returns row counts per table.
	Stats(ctx context.Context) (domain.Stats, error)
}
