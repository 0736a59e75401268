package driven

import "github.com/custodia-labs/docstore/internal/core/domain"

// BlobStore is the append-only byte storage for one hierarchy level:
// a data file, a fixed-width offset/length index keyed by id, and a
// metadata log. Failures wrap domain.ErrStorageIO.
type BlobStore interface {
	// Save appends data, records its index entry under id and appends
	// one metadata line.
	Save(id int64, data []byte, meta domain.BlobMeta) error

	// Read returns exactly length bytes starting at offset.
	// A range past the end of the data file fails.
	Read(offset, length int64) ([]byte, error)

	// Entry returns the index entry for id, or domain.ErrNotFound if
	// id was never written.
	Entry(id int64) (domain.IndexEntry, error)

	// Offset returns the data file offset recorded for id.
	Offset(id int64) (int64, error)

	// Length returns the blob length recorded for id.
	Length(id int64) (int64, error)

	// AllMeta parses the whole metadata log. A malformed line fails the
	// call with domain.ErrMalformedMetadata. Later lines for the same id
	// replace earlier ones.
	AllMeta() (map[int64]domain.BlobMeta, error)

	// Close releases the underlying files.
	Close() error
}
