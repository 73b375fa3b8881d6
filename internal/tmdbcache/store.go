package tmdbcache

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
// Users will need to clear the cache database after schema changes.
const schemaVersion = 1

// timeLayout is fixed-width UTC so cached_at sorts and compares as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Entry describes one cached lookup.
type Entry struct {
	Operation string
	Key       string
	Title     string
	CachedAt  time.Time
}

// Store is the SQLite-backed lookup cache.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the cache database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to rebuild the cache)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Get decodes the cached payload for (operation, key) into out. It reports
// false when the entry is missing or older than ttl. A non-positive ttl never
// expires entries.
func (s *Store) Get(ctx context.Context, operation, key string, ttl time.Duration, out any) (bool, error) {
	var payload, cachedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload, cached_at FROM lookups WHERE operation = ? AND lookup_key = ?",
		operation, key,
	).Scan(&payload, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query lookup: %w", err)
	}
	if ttl > 0 {
		ts, err := time.Parse(timeLayout, cachedAt)
		if err != nil || s.now().Sub(ts) > ttl {
			return false, nil
		}
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", operation, err)
	}
	return true, nil
}

// Put stores value as the payload for (operation, key), replacing any prior entry.
func (s *Store) Put(ctx context.Context, operation, key, title string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", operation, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lookups (operation, lookup_key, title, payload, cached_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(operation, lookup_key) DO UPDATE SET
            title = excluded.title, payload = excluded.payload, cached_at = excluded.cached_at`,
		operation, key, title, string(payload), s.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("store lookup: %w", err)
	}
	return nil
}

// List returns every cached entry, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT operation, lookup_key, title, cached_at FROM lookups ORDER BY cached_at DESC, operation, lookup_key")
	if err != nil {
		return nil, fmt.Errorf("list lookups: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var cachedAt string
		if err := rows.Scan(&entry.Operation, &entry.Key, &entry.Title, &cachedAt); err != nil {
			return nil, fmt.Errorf("scan lookup: %w", err)
		}
		entry.CachedAt, _ = time.Parse(timeLayout, cachedAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Clear deletes every cached entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM lookups")
	if err != nil {
		return 0, fmt.Errorf("clear lookups: %w", err)
	}
	return res.RowsAffected()
}

// Prune deletes entries older than ttl and returns how many were removed.
func (s *Store) Prune(ctx context.Context, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-ttl).UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx, "DELETE FROM lookups WHERE cached_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune lookups: %w", err)
	}
	return res.RowsAffected()
}
