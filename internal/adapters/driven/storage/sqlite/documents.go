package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/docstore/internal/core/domain"
)

// documentColumns is the shared projection for hydrated document lookups.
const documentColumns = `D.id, D.hash, O.id, O.time, O.indexerId, U.id, U.url`

// documentRow is one row of a hydrated lookup. Occurrence and Url fields
// are NULL when a document has no occurrences yet.
type documentRow struct {
	docID     int64
	hash      string
	occID     sql.NullInt64
	time      sql.NullInt64
	indexerID sql.NullString
	urlID     sql.NullInt64
	url       sql.NullString
}

func (r documentRow) occurrence() (domain.Occurrence, bool) {
	if !r.occID.Valid {
		return domain.Occurrence{}, false
	}
	return domain.Occurrence{
		ID:         r.occID.Int64,
		DocumentID: r.docID,
		URL:        domain.URL{ID: r.urlID.Int64, URL: r.url.String},
		IndexerID:  r.indexerID.String,
		Time:       r.time.Int64,
	}, true
}

func (s *Store) queryDocumentRows(ctx context.Context, op, query string, args ...any) ([]documentRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	var out []documentRow
	for rows.Next() {
		var r documentRow
		if err := rows.Scan(&r.docID, &r.hash, &r.occID, &r.time, &r.indexerID, &r.urlID, &r.url); err != nil {
			return nil, classify(op, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return out, nil
}

// assemble builds the record for the first row's document from every row of that document.
func assemble(rows []documentRow) *domain.DocumentRecord {
	doc := domain.NewDocumentRecord(rows[0].docID, rows[0].hash)
	for _, r := range rows {
		if r.docID != doc.ID {
			continue
		}
		if o, ok := r.occurrence(); ok {
			doc.AddOccurrence(o)
		}
	}
	return doc
}

// GetDocumentByHash returns the document with hash and all its occurrences.
func (s *Store) GetDocumentByHash(ctx context.Context, hash string) (*domain.DocumentRecord, error) {
	rows, err := s.queryDocumentRows(ctx, "getting document by hash", `
		SELECT `+documentColumns+` FROM Document D
		LEFT JOIN Occurrence O ON D.id = O.document
		LEFT JOIN Url U ON U.id = O.url
		WHERE D.hash = ?
		ORDER BY O.id
	`, hash)
	if err != nil {
		return nil, err
	}
	return assemble(rows), nil
}

// GetDocumentByID returns the document with id and all its occurrences.
func (s *Store) GetDocumentByID(ctx context.Context, id int64) (*domain.DocumentRecord, error) {
	rows, err := s.queryDocumentRows(ctx, "getting document by id", `
		SELECT `+documentColumns+` FROM Document D
		LEFT JOIN Occurrence O ON D.id = O.document
		LEFT JOIN Url U ON U.id = O.url
		WHERE D.id = ?
		ORDER BY O.id
	`, id)
	if err != nil {
		return nil, err
	}
	return assemble(rows), nil
}

// GetDocumentInRange returns the document of the earliest occurrence at
// url within [low, high], with its occurrences in that window.
func (s *Store) GetDocumentInRange(ctx context.Context, url string, low, high int64) (*domain.DocumentRecord, error) {
	rows, err := s.queryDocumentRows(ctx, "getting document in time range", `
		SELECT `+documentColumns+` FROM Occurrence O
		JOIN Url U ON U.id = O.url
		JOIN Document D ON D.id = O.document
		WHERE U.url = ? AND O.time BETWEEN ? AND ?
		ORDER BY O.time, O.id
	`, url, low, high)
	if err != nil {
		return nil, err
	}
	return assemble(rows), nil
}

// GetDocumentClosest returns the document of the occurrence at url
// nearest to ts. Ties go to the lowest occurrence id.
func (s *Store) GetDocumentClosest(ctx context.Context, url string, ts int64, bound domain.TimeBound) (*domain.DocumentRecord, error) {
	var filter string
	switch bound {
	case domain.TimeAny:
	case domain.TimeBefore:
		filter = "AND O.time <= ?"
	case domain.TimeAfter:
		filter = "AND O.time >= ?"
	default:
		return nil, fmt.Errorf("%w: time bound %d", domain.ErrInvalidInput, bound)
	}

	args := []any{url}
	if filter != "" {
		args = append(args, ts)
	}
	args = append(args, ts)

	rows, err := s.queryDocumentRows(ctx, "getting closest document", `
		SELECT `+documentColumns+` FROM Occurrence O
		JOIN Url U ON U.id = O.url
		JOIN Document D ON D.id = O.document
		WHERE U.url = ? `+filter+`
		ORDER BY abs(? - O.time), O.id
		LIMIT 1
	`, args...)
	if err != nil {
		return nil, err
	}
	return assemble(rows), nil
}

// CreateDocument inserts a Document row.
func (s *Store) CreateDocument(ctx context.Context, hash string) (*domain.DocumentRecord, error) {
	res, err := s.db.ExecContext(ctx, "INSERT INTO Document (hash) VALUES (?)", hash)
	if err != nil {
		return nil, classify(fmt.Sprintf("creating document %s", hash), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, classify("reading document id", err)
	}
	return domain.NewDocumentRecord(id, hash), nil
}

// GetURL returns the Url row for url.
func (s *Store) GetURL(ctx context.Context, url string) (*domain.URL, error) {
	u := &domain.URL{}
	err := s.db.QueryRowContext(ctx, "SELECT id, url FROM Url WHERE url = ?", url).Scan(&u.ID, &u.URL)
	if err != nil {
		return nil, classify("getting url", err)
	}
	return u, nil
}

// CreateURL inserts a Url row.
func (s *Store) CreateURL(ctx context.Context, url string) (*domain.URL, error) {
	res, err := s.db.ExecContext(ctx, "INSERT INTO Url (url) VALUES (?)", url)
	if err != nil {
		return nil, classify(fmt.Sprintf("creating url %q", url), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, classify("reading url id", err)
	}
	return &domain.URL{ID: id, URL: url}, nil
}

// UpdateURL changes the url string of row id.
func (s *Store) UpdateURL(ctx context.Context, id int64, url string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE Url SET url = ? WHERE id = ?", url, id)
	return affected(fmt.Sprintf("updating url %d", id), res, err)
}

// DeleteURL removes Url row id and, by cascade, its occurrences.
func (s *Store) DeleteURL(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM Url WHERE id = ?", id)
	return affected(fmt.Sprintf("deleting url %d", id), res, err)
}

// CreateOccurrence appends an Occurrence row.
func (s *Store) CreateOccurrence(ctx context.Context, documentID, urlID int64, indexerID string, time int64) (*domain.Occurrence, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO Occurrence (url, document, time, indexerId) VALUES (?, ?, ?, ?)",
		urlID, documentID, time, indexerID)
	if err != nil {
		return nil, classify("creating occurrence", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, classify("reading occurrence id", err)
	}

	var url string
	if err := s.db.QueryRowContext(ctx, "SELECT url FROM Url WHERE id = ?", urlID).Scan(&url); err != nil {
		return nil, classify("reading occurrence url", err)
	}

	return &domain.Occurrence{
		ID:         id,
		DocumentID: documentID,
		URL:        domain.URL{ID: urlID, URL: url},
		IndexerID:  indexerID,
		Time:       time,
	}, nil
}

// OccurrencesOf lists the occurrences of a document ordered by id.
func (s *Store) OccurrencesOf(ctx context.Context, documentID int64) ([]domain.Occurrence, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT O.id, O.time, O.indexerId, U.id, U.url FROM Occurrence O
		JOIN Url U ON U.id = O.url
		WHERE O.document = ?
		ORDER BY O.id
	`, documentID)
	if err != nil {
		return nil, classify("listing occurrences", err)
	}
	defer rows.Close()

	var out []domain.Occurrence
	for rows.Next() {
		o := domain.Occurrence{DocumentID: documentID}
		if err := rows.Scan(&o.ID, &o.Time, &o.IndexerID, &o.URL.ID, &o.URL.URL); err != nil {
			return nil, classify("scanning occurrence", err)
		}
		out = append(out, o)
	}
	return out, classify("listing occurrences", rows.Err())
}

// DeleteOccurrence removes Occurrence row id.
func (s *Store) DeleteOccurrence(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM Occurrence WHERE id = ?", id)
	return affected(fmt.Sprintf("deleting occurrence %d", id), res, err)
}

// affected converts a zero-row update or delete into domain.ErrNotFound.
func affected(op string, res sql.Result, err error) error {
	if err != nil {
		return classify(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}
