// ABOUTME: Local SQLite cache of recently played episodes
// ABOUTME: Powers the continue-listening list; the server stays authoritative
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped when the layout changes; the cache is disposable,
// so a mismatch just means delete and recreate.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was written by another version.
var ErrSchemaMismatch = errors.New("history schema version mismatch")

// Entry is one episode's local listening record.
type Entry struct {
	ServerURL  string
	EpisodeID  int64
	Title      string
	ChunkIndex int
	Position   float64
	Percent    float64
	Duration   float64
	LastPlayed time.Time
}

// Store is the listening-history database.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}

	var version int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case version != schemaVersion:
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// Touch records or updates an episode's listening position.
func (s *Store) Touch(ctx context.Context, e Entry) error {
	when := e.LastPlayed
	if when.IsZero() {
		when = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history (server_url, episode_id, title, chunk_index, position_secs, percent, duration_secs, last_played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (server_url, episode_id) DO UPDATE SET
			title = excluded.title,
			chunk_index = excluded.chunk_index,
			position_secs = excluded.position_secs,
			percent = excluded.percent,
			duration_secs = excluded.duration_secs,
			last_played_at = excluded.last_played_at`,
		e.ServerURL, e.EpisodeID, e.Title, e.ChunkIndex, e.Position, e.Percent, e.Duration, when.Unix())
	if err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

// Recent returns the most recently played episodes, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT server_url, episode_id, title, chunk_index, position_secs, percent, duration_secs, last_played_at
		FROM history
		ORDER BY last_played_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var unix int64
		if err := rows.Scan(&e.ServerURL, &e.EpisodeID, &e.Title, &e.ChunkIndex, &e.Position, &e.Percent, &e.Duration, &unix); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.LastPlayed = time.Unix(unix, 0)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// Get returns the local record for one episode, or nil when none exists.
func (s *Store) Get(ctx context.Context, serverURL string, episodeID int64) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT server_url, episode_id, title, chunk_index, position_secs, percent, duration_secs, last_played_at
		FROM history
		WHERE server_url = ? AND episode_id = ?`, serverURL, episodeID)

	var e Entry
	var unix int64
	err := row.Scan(&e.ServerURL, &e.EpisodeID, &e.Title, &e.ChunkIndex, &e.Position, &e.Percent, &e.Duration, &unix)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history row: %w", err)
	}
	e.LastPlayed = time.Unix(unix, 0)
	return &e, nil
}

// Clear drops every history record.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM history"); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
