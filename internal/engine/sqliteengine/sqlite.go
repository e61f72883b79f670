// Package sqliteengine implements kvd's alt storage backend, selected with
// --engine alt. It satisfies the same internal/engine.Engine contract as
// logengine.Store but persists to a SQLite database via mattn/go-sqlite3
// instead of an append-only log - the Go analogue of the original project's
// embedded page-cache ("sled") backend, which spec.md treats as an external
// collaborator rather than part of THE CORE.
package sqliteengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"kvd/internal/engine"
)

const dbFileName = "kv.sqlite"

const sqliteBusyTimeoutMillis = 10000

// Store is the alt engine. It satisfies internal/engine.Engine.
type Store struct {
	db *sql.DB
}

var _ engine.Engine = (*Store)(nil)

// Open opens (creating if necessary) a SQLite database inside dir and
// ensures the kv table exists.
func Open(dir string) (*Store, error) {
	path := filepath.Join(dir, dbFileName)

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite engine %q: %w: %w", path, engine.ErrOpenFile, err)
	}

	ctx := context.Background()

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping sqlite engine %q: %w: %w", path, engine.ErrOpenFile, err)
	}

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()

		return nil, err
	}

	if err := createSchema(ctx, db); err != nil {
		_ = db.Close()

		return nil, err
	}

	return &Store{db: db}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		PRAGMA busy_timeout = %d;
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = FULL;
	`, sqliteBusyTimeoutMillis))
	if err != nil {
		return fmt.Errorf("apply sqlite engine pragmas: %w", err)
	}

	return nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create sqlite engine schema: %w", err)
	}

	return nil
}

// Get returns the value for key, or ("", false, nil) if absent.
func (s *Store) Get(key string) (string, bool, error) {
	var value string

	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}

	return value, true, nil
}

// Set upserts the value for key.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}

	return nil
}

// Remove deletes key. Returns engine.ErrKeyNotFound if key is absent.
func (s *Store) Remove(key string) error {
	res, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}

	if n == 0 {
		return fmt.Errorf("remove %q: %w", key, engine.ErrKeyNotFound)
	}

	return nil
}

// Clone returns a handle sharing the same *sql.DB connection pool, which is
// already safe for concurrent use by multiple goroutines.
func (s *Store) Clone() engine.Engine {
	return &Store{db: s.db}
}

// Close closes the underlying database connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
