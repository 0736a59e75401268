package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/custodia-labs/docstore/internal/core/domain"
	"github.com/custodia-labs/docstore/internal/core/ports/driven"
	"github.com/custodia-labs/docstore/internal/core/ports/driving"
	"github.com/custodia-labs/docstore/internal/logger"
)

// Ensure MappingService implements the interface.
var _ driving.MappingService = (*MappingService)(nil)

// MappingService relates records across levels using the precomputed
// join paths.
type MappingService struct {
	records driven.RecordStore
}

// NewMappingService creates a new mapping service.
func NewMappingService(records driven.RecordStore) *MappingService {
	return &MappingService{records: records}
}

// GetMappedLevels runs req directly, or in two stages when req.OverLevel is set.
func (s *MappingService) GetMappedLevels(ctx context.Context, req domain.MappingRequest) ([]domain.MappedRow, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.OverLevel == nil {
		logger.Debug("Mapping %s.%s -> %s (%d values)", req.InLevel, req.InType, req.OutLevel, len(req.Values))
		return s.direct(ctx, req.InLevel, req.OutLevel, req.InType, req.Values, req.OutTypes, req.IncludeOrigin)
	}

	logger.Debug("Mapping %s.%s -> %s over %s (%d values)",
		req.InLevel, req.InType, req.OutLevel, *req.OverLevel, len(req.Values))
	return s.over(ctx, req)
}

func (s *MappingService) direct(
	ctx context.Context,
	in, out domain.Level,
	inType string,
	values, outTypes []string,
	includeOrigin bool,
) ([]domain.MappedRow, error) {
	path, err := domain.JoinPathFor(in, out)
	if err != nil {
		return nil, err
	}

	cols := make([]domain.Column, len(outTypes))
	for i, t := range outTypes {
		cols[i] = domain.Col(out.Table(), t)
	}

	return s.records.Project(ctx, domain.Projection{
		Path:          path,
		InColumn:      domain.Col(in.Table(), inType),
		Values:        values,
		OutColumns:    cols,
		IncludeOrigin: includeOrigin,
	})
}

// over maps in -> over ids, then over ids -> out. With IncludeOrigin the
// original input value is carried through the intermediate ids.
func (s *MappingService) over(ctx context.Context, req domain.MappingRequest) ([]domain.MappedRow, error) {
	over := *req.OverLevel
	overID := domain.Col(over.Table(), "id")
	originKey := domain.Col(req.InLevel.Table(), req.InType).String()

	first, err := s.direct(ctx, req.InLevel, over, req.InType, req.Values, []string{"id"}, req.IncludeOrigin)
	if err != nil {
		return nil, fmt.Errorf("mapping %s to %s: %w", req.InLevel, over, err)
	}

	var ids []string
	seen := make(map[string]bool, len(first))
	origins := make(map[string][]string)
	for _, row := range first {
		id := row[domain.OutKey(overID)]
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
		if req.IncludeOrigin {
			origins[id] = append(origins[id], row[originKey])
		}
	}

	// An empty intermediate set must not become an unrestricted scan.
	if len(ids) == 0 {
		return []domain.MappedRow{}, nil
	}

	second, err := s.direct(ctx, over, req.OutLevel, "id", ids, req.OutTypes, req.IncludeOrigin)
	if err != nil {
		return nil, fmt.Errorf("mapping %s to %s: %w", over, req.OutLevel, err)
	}
	if !req.IncludeOrigin {
		return second, nil
	}

	// Second-stage origins are intermediate ids; swap in the input values.
	viaKey := overID.String()
	var out []domain.MappedRow
	for _, row := range second {
		for _, origin := range origins[row[viaKey]] {
			mapped := make(domain.MappedRow, len(row))
			for k, v := range row {
				if k != viaKey {
					mapped[k] = v
				}
			}
			mapped[originKey] = origin
			out = append(out, mapped)
		}
	}
	return domain.DistinctRows(out), nil
}

// ParagraphsOfSentence returns the ids of the paragraphs containing a
// sentence, ascending.
func (s *MappingService) ParagraphsOfSentence(ctx context.Context, sentenceID int64) ([]int64, error) {
	rows, err := s.direct(ctx, domain.LevelSentence, domain.LevelParagraph, "id",
		[]string{strconv.FormatInt(sentenceID, 10)}, []string{"id"}, false)
	if err != nil {
		return nil, err
	}

	const key = "id"
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		id, err := strconv.ParseInt(row[key], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("paragraph id %q: %w", row[key], err)
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
