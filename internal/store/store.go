package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added partial index over live replaceable rows
const currentSchemaVersion = 1

// DataFile is the database file created inside the store directory.
const DataFile = "data.db"

// Store provides durable note storage.
type Store struct {
	dir    string
	writer *sql.DB
	reader *sql.DB
}

// Open creates or opens a store in directory dir, creating the directory
// if needed. Applies required pragmas and migrations automatically.
//
// This function is idempotent - safe to call multiple times.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("open store: empty path")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	file := filepath.Join(dir, DataFile)

	writer, err := sql.Open("sqlite3", "file:"+file)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := writer.Ping(); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	writer.SetMaxOpenConns(1)
	writer.SetMaxIdleConns(1)

	if err := applyPragmas(writer); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(writer); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	// Per-connection settings go in the DSN because the pool opens
	// connections lazily.
	reader, err := sql.Open("sqlite3", "file:"+file+"?_busy_timeout=5000&_query_only=true")
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to open reader: %w", err)
	}
	reader.SetMaxIdleConns(4)
	if err := reader.Ping(); err != nil {
		reader.Close()
		writer.Close()
		return nil, fmt.Errorf("failed to connect reader: %w", err)
	}

	return &Store{dir: dir, writer: writer, reader: reader}, nil
}

// Dir returns the directory the store was opened in.
func (s *Store) Dir() string {
	return s.dir
}

// Close closes both connection pools.
func (s *Store) Close() error {
	if s.writer == nil {
		return nil
	}
	rerr := s.reader.Close()
	werr := s.writer.Close()
	s.writer, s.reader = nil, nil
	if werr != nil {
		return werr
	}
	return rerr
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds the index used to find the live version of a replaceable
// note on ingest.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_notes_replaceable
		ON notes(pubkey, kind, d_tag) WHERE superseded = 0
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// MaxKey returns the highest note key stored, or 0 for an empty store.
func (s *Store) MaxKey(ctx context.Context) (int64, error) {
	var key sql.NullInt64
	if err := s.reader.QueryRowContext(ctx, `SELECT MAX(key) FROM notes`).Scan(&key); err != nil {
		return 0, fmt.Errorf("max key: %w", err)
	}
	return key.Int64, nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.writer.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
