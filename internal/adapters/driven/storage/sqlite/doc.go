// Package sqlite implements driven.RecordStore over a single SQLite file
// (modernc.org/sqlite, no cgo).
//
// Tables: Document, Paragraph, Sentence, Url and Occurrence, plus the
// DocumentOfParagraph, ParagraphOfSentence and SentenceOccurrence
// association tables. The schema lives in migrations/ and is applied
// on open.
//
// The database file is DatabaseName inside the data directory. The
// connection runs in WAL mode with a busy timeout, so readers never block
// the single writer and lock waits are bounded.
//
// Driver errors are classified: unique and primary key violations become
// domain.ErrAlreadyExists, SQLITE_BUSY and SQLITE_LOCKED become
// domain.ErrStoreBusy.
package sqlite
