package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-signage/internal/domain/slideshow"
)

const (
	// CurrentSchemaVersion is the current database schema version.
	CurrentSchemaVersion = "1"

	// DefaultDBPath is the default path for the slideshow database.
	DefaultDBPath = "data/slideshows.db"
)

const schema = `
CREATE TABLE IF NOT EXISTS slideshows (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	is_active INTEGER NOT NULL DEFAULT 1,
	record_json TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_slideshows_active ON slideshows(is_active);

CREATE TABLE IF NOT EXISTS store_meta (
	key TEXT PRIMARY KEY,
	value TEXT,
	updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);
`

// SQLite is a Store backed by a SQLite database.
type SQLite struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// NewSQLite creates a SQLite store for path. Call Open before use.
func NewSQLite(path string) *SQLite {
	if path == "" {
		path = DefaultDBPath
	}
	return &SQLite{path: path}
}

// Open opens the database and initializes the schema.
func (s *SQLite) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", s.path+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("failed to open slideshow database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s.db = db
	if err := s.initSchema(); err != nil {
		s.db.Close()
		s.db = nil
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Info().Str("path", s.path).Msg("Slideshow database opened")
	return nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLite) initSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	version := s.schemaVersion()
	if version == CurrentSchemaVersion {
		return nil
	}
	if version != "" {
		log.Info().
			Str("current", version).
			Str("target", CurrentSchemaVersion).
			Msg("Migrating slideshow schema")
	}
	return s.setMeta("schema_version", CurrentSchemaVersion)
}

func (s *SQLite) schemaVersion() string {
	var version string
	if err := s.db.QueryRow("SELECT value FROM store_meta WHERE key = 'schema_version'").Scan(&version); err != nil {
		return ""
	}
	return version
}

func (s *SQLite) setMeta(key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`
		INSERT INTO store_meta (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, now)
	return err
}

// GetSlideshow returns the record with the given id.
func (s *SQLite) GetSlideshow(ctx context.Context, id string) (*slideshow.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrClosed
	}

	var data string
	err := s.db.QueryRowContext(ctx, "SELECT record_json FROM slideshows WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load slideshow %s: %w", id, err)
	}
	return slideshow.DecodeRecord([]byte(data))
}

// PutSlideshow inserts or replaces a record.
func (s *SQLite) PutSlideshow(ctx context.Context, rec *slideshow.Record) error {
	if rec == nil || rec.ID == "" {
		return ErrMissingID
	}
	data, err := rec.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode slideshow %s: %w", rec.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrClosed
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO slideshows (id, name, is_active, record_json, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			is_active = excluded.is_active,
			record_json = excluded.record_json,
			updated_at = excluded.updated_at
	`, rec.ID, rec.Name, rec.Active(), string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to store slideshow %s: %w", rec.ID, err)
	}

	log.Debug().Str("id", rec.ID).Int("slides", len(rec.Images)).Msg("Slideshow stored")
	return nil
}

// ListSlideshows returns a summary of every record, ordered by id.
func (s *SQLite) ListSlideshows(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, "SELECT record_json, updated_at FROM slideshows ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list slideshows: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var data, updated string
		if err := rows.Scan(&data, &updated); err != nil {
			return nil, err
		}
		rec, err := slideshow.DecodeRecord([]byte(data))
		if err != nil {
			log.Warn().Err(err).Msg("Skipping unreadable slideshow row")
			continue
		}
		ts, _ := time.Parse(time.RFC3339Nano, updated)
		out = append(out, summarize(rec, ts))
	}
	return out, rows.Err()
}

// SetActive updates the activation flag of a record.
func (s *SQLite) SetActive(ctx context.Context, id string, active bool) error {
	rec, err := s.GetSlideshow(ctx, id)
	if err != nil {
		return err
	}
	rec.IsActive = &active
	return s.PutSlideshow(ctx, rec)
}
