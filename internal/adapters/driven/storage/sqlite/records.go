package sqlite

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docstore/internal/core/domain"
)

// InsertHashes inserts every hash not yet present in the level's table.
func (s *Store) InsertHashes(ctx context.Context, level domain.Level, hashes []string) error {
	table, err := storageTable(level)
	if err != nil {
		return err
	}
	if len(hashes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("beginning hash insert", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// INSERT OR IGNORE would burn an AUTOINCREMENT id per skipped hash,
	// leaving holes in the blob index.
	query := fmt.Sprintf("INSERT INTO %[1]s (hash) SELECT ? WHERE NOT EXISTS (SELECT 1 FROM %[1]s WHERE hash = ?)", table)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return classify(fmt.Sprintf("preparing %s hash insert", table), err)
	}
	defer stmt.Close() //nolint:errcheck

	seen := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		if seen[h] {
			continue
		}
		seen[h] = true
		if _, err := stmt.ExecContext(ctx, h, h); err != nil {
			return classify(fmt.Sprintf("inserting %s hashes", table), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return classify("committing hash insert", err)
	}
	return nil
}

// ResolveHashes maps each hash to its id in the level's table.
func (s *Store) ResolveHashes(ctx context.Context, level domain.Level, hashes []string) (map[string]int64, error) {
	table, err := storageTable(level)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]int64, len(hashes))
	for _, c := range chunks(len(hashes)) {
		batch := hashes[c[0]:c[1]]
		args := make([]any, len(batch))
		for i, h := range batch {
			args[i] = h
		}

		query := fmt.Sprintf("SELECT id, hash FROM %s WHERE hash IN (%s)", table, placeholders(len(batch)))
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, classify(fmt.Sprintf("resolving %s hashes", table), err)
		}
		for rows.Next() {
			var id int64
			var hash string
			if err := rows.Scan(&id, &hash); err != nil {
				rows.Close()
				return nil, classify("scanning hash", err)
			}
			ids[hash] = id
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, classify(fmt.Sprintf("resolving %s hashes", table), err)
		}
	}
	return ids, nil
}

// LinkParagraphs records DocumentOfParagraph rows at their input positions.
func (s *Store) LinkParagraphs(ctx context.Context, documentID int64, paragraphIDs []int64) error {
	if len(paragraphIDs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("beginning paragraph link", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO DocumentOfParagraph (document, paragraph, position)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return classify("preparing paragraph link", err)
	}
	defer stmt.Close()

	for pos, pid := range paragraphIDs {
		if _, err := stmt.ExecContext(ctx, documentID, pid, pos); err != nil {
			return classify(fmt.Sprintf("linking paragraph %d", pid), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return classify("committing paragraph link", err)
	}
	return nil
}

// LinkSentences records ParagraphOfSentence and SentenceOccurrence rows.
func (s *Store) LinkSentences(ctx context.Context, placements []domain.SentencePlacement) error {
	if len(placements) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("beginning sentence link", err)
	}
	defer tx.Rollback() //nolint:errcheck

	posStmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO ParagraphOfSentence (paragraph, sentence, position)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return classify("preparing sentence link", err)
	}
	defer posStmt.Close()

	occStmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO SentenceOccurrence (sentence, document, paragraph, documentPos, paragraphPos)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return classify("preparing sentence occurrence", err)
	}
	defer occStmt.Close()

	for _, p := range placements {
		if _, err := posStmt.ExecContext(ctx, p.ParagraphID, p.SentenceID, p.ParagraphPos); err != nil {
			return classify(fmt.Sprintf("linking sentence %d", p.SentenceID), err)
		}
		if _, err := occStmt.ExecContext(ctx, p.SentenceID, p.DocumentID, p.ParagraphID, p.DocumentPos, p.ParagraphPos); err != nil {
			return classify(fmt.Sprintf("recording sentence occurrence %d", p.SentenceID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return classify("committing sentence link", err)
	}
	return nil
}

// GetRecordByHash returns the row with hash at a storage level.
func (s *Store) GetRecordByHash(ctx context.Context, level domain.Level, hash string) (*domain.Record, error) {
	table, err := storageTable(level)
	if err != nil {
		return nil, err
	}

	r := &domain.Record{Level: level}
	query := fmt.Sprintf("SELECT id, hash FROM %s WHERE hash = ?", table)
	if err := s.db.QueryRowContext(ctx, query, hash).Scan(&r.ID, &r.Hash); err != nil {
		return nil, classify(fmt.Sprintf("getting %s by hash", table), err)
	}
	return r, nil
}

// GetRecordByID returns the row with id at a storage level.
func (s *Store) GetRecordByID(ctx context.Context, level domain.Level, id int64) (*domain.Record, error) {
	table, err := storageTable(level)
	if err != nil {
		return nil, err
	}

	r := &domain.Record{Level: level}
	query := fmt.Sprintf("SELECT id, hash FROM %s WHERE id = ?", table)
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&r.ID, &r.Hash); err != nil {
		return nil, classify(fmt.Sprintf("getting %s by id", table), err)
	}
	return r, nil
}

// UpdateHash replaces the hash of row id.
func (s *Store) UpdateHash(ctx context.Context, level domain.Level, id int64, hash string) error {
	table, err := storageTable(level)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET hash = ? WHERE id = ?", table), hash, id)
	return affected(fmt.Sprintf("updating %s %d", table, id), res, err)
}

// Delete removes row id. Association and occurrence rows referencing it
// are removed by cascade.
func (s *Store) Delete(ctx context.Context, level domain.Level, id int64) error {
	table, err := storageTable(level)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	return affected(fmt.Sprintf("deleting %s %d", table, id), res, err)
}
