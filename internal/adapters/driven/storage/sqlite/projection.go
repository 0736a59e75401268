package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/docstore/internal/core/domain"
)

// Project runs a direct mapping query over the projection's join path.
// Large value sets are split into batches and the union de-duplicated.
func (s *Store) Project(ctx context.Context, p domain.Projection) ([]domain.MappedRow, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	args, err := bindValues(p)
	if err != nil {
		return nil, err
	}

	if len(args) == 0 {
		return s.project(ctx, p, nil)
	}

	var all []domain.MappedRow
	for _, c := range chunks(len(args)) {
		rows, err := s.project(ctx, p, args[c[0]:c[1]])
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}
	return domain.DistinctRows(all), nil
}

func (s *Store) project(ctx context.Context, p domain.Projection, args []any) ([]domain.MappedRow, error) {
	query, keys := buildProjection(p, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(fmt.Sprintf("mapping %s to %s", p.Path.In, p.Path.Out), err)
	}
	defer rows.Close()

	var out []domain.MappedRow
	for rows.Next() {
		values := make([]sql.NullString, len(keys))
		dest := make([]any, len(keys))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, classify("scanning mapped row", err)
		}

		row := make(domain.MappedRow, len(keys))
		for i, k := range keys {
			row[k] = values[i].String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Sprintf("mapping %s to %s", p.Path.In, p.Path.Out), err)
	}
	return out, nil
}

// buildProjection renders
//
//	SELECT DISTINCT [origin,] targets FROM tables WHERE [in IN (...) AND] predicates
//
// and returns the row keys in select order. n is the number of IN values;
// zero drops the restriction.
func buildProjection(p domain.Projection, n int) (string, []string) {
	var cols, keys []string
	if p.IncludeOrigin {
		cols = append(cols, p.InColumn.String())
		keys = append(keys, p.OriginKey())
	}
	for _, c := range p.OutColumns {
		cols = append(cols, c.String())
		keys = append(keys, domain.OutKey(c))
	}

	var where []string
	if n > 0 {
		where = append(where, fmt.Sprintf("%s IN (%s)", p.InColumn, placeholders(n)))
	}
	for _, pred := range p.Path.Predicates {
		where = append(where, pred.String())
	}

	var b strings.Builder
	b.WriteString("SELECT DISTINCT ")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(" FROM ")
	b.WriteString(strings.Join(p.Path.Tables, ", "))
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	return b.String(), keys
}

// bindValues converts input values to the in column's storage type.
func bindValues(p domain.Projection) ([]any, error) {
	numeric := p.Path.In.IsNumericColumn(p.InColumn.Name)

	args := make([]any, len(p.Values))
	for i, v := range p.Values {
		if !numeric {
			args[i] = v
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s value %q is not an integer", domain.ErrInvalidInput, p.InColumn, v)
		}
		args[i] = n
	}
	return args, nil
}
