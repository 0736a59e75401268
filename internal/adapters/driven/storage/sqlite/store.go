package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docstore/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docstore/internal/core/domain"
	"github.com/custodia-labs/docstore/internal/core/ports/driven"
	"github.com/custodia-labs/docstore/internal/logger"
)

// DatabaseName is the file name of the database inside the data directory.
const DatabaseName = "documentStorage.db"

// batchSize caps the number of bound parameters per statement.
const batchSize = 500

// Store is the SQLite-backed RecordStore.
type Store struct {
	db   *sql.DB
	path string
}

var _ driven.RecordStore = (*Store)(nil)

// NewStore opens or creates the database in dataDir and applies pending
// migrations. If dataDir is empty, defaults to ~/.docstore/data.
// busyTimeout bounds how long a statement waits on a lock before the
// store reports domain.ErrStoreBusy; zero uses domain.DefaultBusyTimeout.
func NewStore(dataDir string, busyTimeout time.Duration) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docstore", "data")
	}
	if busyTimeout <= 0 {
		busyTimeout = domain.DefaultBusyTimeout
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseName)

	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)",
		dbPath, busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Debug("opened record store at %s", dbPath)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending up migrations and records each applied version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		logger.Debug("applied migration %s", name)
	}

	return nil
}

func (s *Store) applyMigration(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v)
	return v, err
}

// Stats returns row counts per table.
func (s *Store) Stats(ctx context.Context) (domain.Stats, error) {
	var st domain.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM Document),
			(SELECT COUNT(*) FROM Paragraph),
			(SELECT COUNT(*) FROM Sentence),
			(SELECT COUNT(*) FROM Url),
			(SELECT COUNT(*) FROM Occurrence),
			(SELECT COUNT(*) FROM DocumentOfParagraph),
			(SELECT COUNT(*) FROM ParagraphOfSentence),
			(SELECT COUNT(*) FROM SentenceOccurrence)
	`).Scan(
		&st.Documents, &st.Paragraphs, &st.Sentences, &st.URLs, &st.Occurrences,
		&st.DocumentOfParagraph, &st.ParagraphOfSentence, &st.SentenceOccurrence,
	)
	if err != nil {
		return domain.Stats{}, classify("counting rows", err)
	}
	return st, nil
}

// placeholders returns "?, ?, ..." with n entries.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// chunks splits n items into [start, end) ranges of at most batchSize.
func chunks(n int) [][2]int {
	var out [][2]int
	for start := 0; start < n; start += batchSize {
		end := start + batchSize
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

// storageTable validates a storage level and returns its table.
func storageTable(level domain.Level) (string, error) {
	if !level.IsStorage() {
		return "", fmt.Errorf("%w: %s is not a storage level", domain.ErrUnsupportedLevel, level)
	}
	return level.Table(), nil
}
