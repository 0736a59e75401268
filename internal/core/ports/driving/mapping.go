package driving

import (
	"context"

	"github.com/custodia-labs/docstore/internal/core/domain"
)

// MappingService answers which records at one level relate to records
// at another.
type MappingService interface {
	// GetMappedLevels runs req directly or, when req.OverLevel is set,
	// in two stages through the intermediate level. Rows are distinct;
	// their order is unspecified.
	GetMappedLevels(ctx context.Context, req domain.MappingRequest) ([]domain.MappedRow, error)

	// ParagraphsOfSentence returns the ids of every paragraph containing
	// the sentence.
	ParagraphsOfSentence(ctx context.Context, sentenceID int64) ([]int64, error)
}
