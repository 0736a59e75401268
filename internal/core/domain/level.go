package domain

import (
	"fmt"
	"strings"
)

// Level is one of the five abstraction tiers the store relates.
// The ordering is significant: the mapper measures distance between levels.
type Level int

// Levels in ascending order. LevelURL is not on the main chain; it is
// reached only through LevelOccurrence.
const (
	LevelSentence Level = iota
	LevelParagraph
	LevelDocument
	LevelOccurrence
	LevelURL
)

// Levels lists every level in ascending order.
var Levels = []Level{LevelSentence, LevelParagraph, LevelDocument, LevelOccurrence, LevelURL}

// StorageLevels lists the levels that own content hashes and blob files.
var StorageLevels = []Level{LevelDocument, LevelParagraph, LevelSentence}

// String returns the table name bound to the level.
func (l Level) String() string {
	switch l {
	case LevelSentence:
		return "Sentence"
	case LevelParagraph:
		return "Paragraph"
	case LevelDocument:
		return "Document"
	case LevelOccurrence:
		return "Occurrence"
	case LevelURL:
		return "Url"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Table returns the relational table that persists rows of this level.
func (l Level) Table() string {
	return l.String()
}

// IsValid returns true if the level is one of the five known levels.
func (l Level) IsValid() bool {
	return l >= LevelSentence && l <= LevelURL
}

// IsStorage returns true for levels that carry content hashes
// (Document, Paragraph, Sentence).
func (l Level) IsStorage() bool {
	return l == LevelSentence || l == LevelParagraph || l == LevelDocument
}

// rank clamps the level to at most LevelOccurrence for distance purposes.
func (l Level) rank() int {
	if l > LevelOccurrence {
		return int(LevelOccurrence)
	}
	return int(l)
}

// Columns returns the column names of the level's table.
func (l Level) Columns() []string {
	switch l {
	case LevelSentence, LevelParagraph, LevelDocument:
		return []string{"id", "hash"}
	case LevelOccurrence:
		return []string{"id", "url", "document", "time", "indexerId"}
	case LevelURL:
		return []string{"id", "url"}
	default:
		return nil
	}
}

// HasColumn reports whether column exists on the level's table.
func (l Level) HasColumn(column string) bool {
	for _, c := range l.Columns() {
		if c == column {
			return true
		}
	}
	return false
}

// IsNumericColumn reports whether column holds integers.
func (l Level) IsNumericColumn(column string) bool {
	switch column {
	case "hash", "indexerId":
		return false
	case "url":
		return l == LevelOccurrence
	default:
		return l.HasColumn(column)
	}
}

// ParseLevel parses a level name case-insensitively ("sentence", "URL", ...).
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sentence":
		return LevelSentence, nil
	case "paragraph":
		return LevelParagraph, nil
	case "document":
		return LevelDocument, nil
	case "occurrence":
		return LevelOccurrence, nil
	case "url":
		return LevelURL, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedLevel, s)
	}
}

// DefaultColumn is the column callers usually identify records of the
// level by: hash for storage levels, url for Url and id for Occurrence.
func (l Level) DefaultColumn() string {
	switch l {
	case LevelURL:
		return "url"
	case LevelOccurrence:
		return "id"
	default:
		return "hash"
	}
}
