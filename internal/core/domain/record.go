package domain

// Record is a content-addressed row at one of the storage levels.
// The level carries the table binding, so Document, Paragraph and
// Sentence rows share one shape.
type Record struct {
	// Level is the storage level (Document, Paragraph or Sentence).
	Level Level

	// ID is the store-assigned identifier. Immutable once assigned.
	ID int64

	// Hash is the content fingerprint used as the dedup key.
	Hash string
}

// Table returns the table this record lives in.
func (r Record) Table() string {
	return r.Level.Table()
}

// DocumentRecord is a Document row with the occurrences observed for it.
type DocumentRecord struct {
	Record

	// Occurrences is the time series of observations, oldest first.
	Occurrences []Occurrence
}

// NewDocumentRecord returns a document record with no occurrences.
func NewDocumentRecord(id int64, hash string) *DocumentRecord {
	return &DocumentRecord{Record: Record{Level: LevelDocument, ID: id, Hash: hash}}
}

// AddOccurrence appends an occurrence to the in-memory history.
func (d *DocumentRecord) AddOccurrence(o Occurrence) {
	d.Occurrences = append(d.Occurrences, o)
}

// LatestOccurrence returns the most recently appended occurrence.
func (d *DocumentRecord) LatestOccurrence() (Occurrence, bool) {
	if len(d.Occurrences) == 0 {
		return Occurrence{}, false
	}
	return d.Occurrences[len(d.Occurrences)-1], true
}

// URL is a distinct location string.
type URL struct {
	ID  int64
	URL string
}

// Occurrence records that a document's content was observed at a url by an indexer.
// Occurrences are never deduplicated.
type Occurrence struct {
	ID         int64
	DocumentID int64
	URL        URL
	IndexerID  string

	// Time is the observation time in epoch seconds.
	Time int64
}

// DocumentMeta describes a resolved document for paragraph, sentence and
// binary saves.
type DocumentMeta struct {
	// ID is the resolved Document id.
	ID int64

	IndexerID   string
	Path        string
	Meta        string
	ContentType string

	// LastChangeTime is the source's modification time in epoch seconds.
	LastChangeTime int64

	// Language is recorded for callers; the store does not interpret it.
	Language string
}

// BlobMeta is one line of a blob store's metadata log.
type BlobMeta struct {
	Meta           string
	Indexer        string
	ContentType    string
	LastChangeTime int64
	URL            string
}

// BlobMetaFromDocument builds the metadata log fields for a document.
func BlobMetaFromDocument(doc DocumentMeta) BlobMeta {
	return BlobMeta{
		Meta:           doc.Meta,
		Indexer:        doc.IndexerID,
		ContentType:    doc.ContentType,
		LastChangeTime: doc.LastChangeTime,
		URL:            doc.Path,
	}
}

// IndexEntry is the position of a blob inside a data file.
type IndexEntry struct {
	Offset int64
	Length int64
}

// SentencePlacement is one sentence occurrence context inside a document.
// It produces one ParagraphOfSentence and one SentenceOccurrence row.
type SentencePlacement struct {
	SentenceID  int64
	DocumentID  int64
	ParagraphID int64

	// DocumentPos is the paragraph's index within the document.
	DocumentPos int

	// ParagraphPos is the sentence's index within the paragraph.
	ParagraphPos int
}

// TimeBound restricts closest-occurrence lookups.
type TimeBound int

// Closest-occurrence bounds.
const (
	// TimeAny matches occurrences on either side of the timestamp.
	TimeAny TimeBound = iota

	// TimeBefore matches occurrences at or before the timestamp.
	TimeBefore

	// TimeAfter matches occurrences at or after the timestamp.
	TimeAfter
)

// Stats holds row counts per table.
type Stats struct {
	Documents           int64
	Paragraphs          int64
	Sentences           int64
	URLs                int64
	Occurrences         int64
	DocumentOfParagraph int64
	ParagraphOfSentence int64
	SentenceOccurrence  int64
}
