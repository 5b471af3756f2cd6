package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	stinterrors "github.com/abatilo/stint/internal/errors"
)

const memoryPath = ":memory:"

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// SQLiteStore keeps key-value pairs in a single SQLite table.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens the database at path. Nothing is written until Init.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer, and :memory: databases exist
	// per connection.
	db.SetMaxOpenConns(1)

	return &SQLiteStore{db: db, path: path}, nil
}

// Location returns the database path.
func (s *SQLiteStore) Location() string {
	return s.path
}

// IsInitialized reports whether the database file exists.
func (s *SQLiteStore) IsInitialized() bool {
	if s.path == memoryPath {
		return s.hasSchema()
	}
	info, err := os.Stat(s.path)
	return err == nil && !info.IsDir()
}

func (s *SQLiteStore) hasSchema() bool {
	var name string
	err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'kv'`).Scan(&name)
	return err == nil
}

// Init creates the database file and schema.
func (s *SQLiteStore) Init(force bool) error {
	if s.IsInitialized() && !force {
		return stinterrors.AlreadyInitializedError{}
	}

	if s.path != memoryPath {
		//nolint:gosec // G301: 0755 is appropriate for a user data directory
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// WAL keeps readers from blocking the writer
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := s.db.Exec(kvSchema); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Get returns the value stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	if !s.IsInitialized() {
		return nil, stinterrors.NotInitializedError{}
	}

	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, KeyNotFoundError{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

// Put upserts the value stored under key.
func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte) error {
	if !s.IsInitialized() {
		return stinterrors.NotInitializedError{}
	}

	query := `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
