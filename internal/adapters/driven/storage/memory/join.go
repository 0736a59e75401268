package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/docstore/internal/core/domain"
)

// row is one table row keyed by column name, values rendered as strings.
type row map[string]string

// binding maps table name to the row chosen for it in a join candidate.
type binding map[string]row

func (b binding) value(c domain.Column) (string, bool) {
	r, ok := b[c.Table]
	if !ok {
		return "", false
	}
	v, ok := r[c.Name]
	return v, ok
}

// table materialises a relational table. Caller holds mu.
func (s *RecordStore) table(name string) ([]row, error) {
	switch name {
	case "Document", "Paragraph", "Sentence":
		level, err := domain.ParseLevel(name)
		if err != nil {
			return nil, err
		}
		ids := sortedIDs(s.byID[level])
		rows := make([]row, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, row{"id": itoa(id), "hash": s.byID[level][id]})
		}
		return rows, nil
	case "Url":
		ids := sortedIDs(s.urlByID)
		rows := make([]row, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, row{"id": itoa(id), "url": s.urlByID[id]})
		}
		return rows, nil
	case "Occurrence":
		rows := make([]row, 0, len(s.occurrences))
		for _, o := range s.occurrences {
			rows = append(rows, row{
				"id":        itoa(o.id),
				"url":       itoa(o.url),
				"document":  itoa(o.document),
				"time":      itoa(o.time),
				"indexerId": o.indexerID,
			})
		}
		return rows, nil
	case "DocumentOfParagraph":
		rows := make([]row, 0, len(s.dop))
		for _, r := range s.dop {
			rows = append(rows, row{"document": itoa(r.document), "paragraph": itoa(r.paragraph), "position": itoa(r.position)})
		}
		return rows, nil
	case "ParagraphOfSentence":
		rows := make([]row, 0, len(s.pos))
		for _, r := range s.pos {
			rows = append(rows, row{"paragraph": itoa(r.paragraph), "sentence": itoa(r.sentence), "position": itoa(r.position)})
		}
		return rows, nil
	case "SentenceOccurrence":
		rows := make([]row, 0, len(s.so))
		for _, r := range s.so {
			rows = append(rows, row{
				"sentence":     itoa(r.sentence),
				"document":     itoa(r.document),
				"paragraph":    itoa(r.paragraph),
				"documentPos":  itoa(r.documentPos),
				"paragraphPos": itoa(r.paragraphPos),
			})
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("%w: table %q", domain.ErrUnsupportedLevel, name)
	}
}

// Project evaluates the projection as a nested-loop join over the path's
// tables, pruning a candidate as soon as a predicate over bound tables fails.
func (s *RecordStore) Project(_ context.Context, p domain.Projection) ([]domain.MappedRow, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	tables := make([][]row, len(p.Path.Tables))
	for i, name := range p.Path.Tables {
		rows, err := s.table(name)
		if err != nil {
			s.mu.RUnlock()
			return nil, err
		}
		tables[i] = rows
	}
	s.mu.RUnlock()

	wanted, err := normalizeValues(p)
	if err != nil {
		return nil, err
	}

	var out []domain.MappedRow
	seen := make(map[string]bool)

	var walk func(depth int, b binding)
	walk = func(depth int, b binding) {
		if depth == len(tables) {
			if len(wanted) > 0 {
				v, _ := b.value(p.InColumn)
				if !wanted[v] {
					return
				}
			}
			mapped := make(domain.MappedRow, len(p.OutColumns)+1)
			if p.IncludeOrigin {
				mapped[p.OriginKey()], _ = b.value(p.InColumn)
			}
			for _, c := range p.OutColumns {
				mapped[domain.OutKey(c)], _ = b.value(c)
			}
			if k := mapped.Key(); !seen[k] {
				seen[k] = true
				out = append(out, mapped)
			}
			return
		}

		name := p.Path.Tables[depth]
		for _, r := range tables[depth] {
			b[name] = r
			if satisfied(b, p.Path.Predicates) {
				walk(depth+1, b)
			}
		}
		delete(b, name)
	}
	walk(0, binding{})

	return out, nil
}

// normalizeValues renders integer inputs the way table() renders them.
func normalizeValues(p domain.Projection) (map[string]bool, error) {
	numeric := p.Path.In.IsNumericColumn(p.InColumn.Name)

	wanted := make(map[string]bool, len(p.Values))
	for _, v := range p.Values {
		if numeric {
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s value %q is not an integer", domain.ErrInvalidInput, p.InColumn, v)
			}
			v = itoa(n)
		}
		wanted[v] = true
	}
	return wanted, nil
}

// satisfied reports whether every predicate whose tables are both bound holds.
func satisfied(b binding, preds []domain.Predicate) bool {
	for _, pred := range preds {
		l, lok := b.value(pred.Left)
		r, rok := b.value(pred.Right)
		if lok && rok && l != r {
			return false
		}
	}
	return true
}

func sortedIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
