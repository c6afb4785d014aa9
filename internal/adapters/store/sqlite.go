package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fenestra-io/configurator/internal/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS saved_configurations (
	name TEXT PRIMARY KEY,
	model_code TEXT NOT NULL,
	model_guid TEXT NOT NULL DEFAULT '',
	compatibility_hash TEXT NOT NULL,
	options_json TEXT NOT NULL,
	saved_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_saved_model_code ON saved_configurations(model_code);

INSERT OR IGNORE INTO schema_migrations (version, applied_at) VALUES (1, datetime('now'));
`

// SQLiteStore persists saved configurations in a single SQLite database.
type SQLiteStore struct {
	dbPath string
	db     *sql.DB
	mu     sync.RWMutex
}

// NewSQLiteStore opens (or creates) the database at dbPath and applies the
// schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	// WAL mode keeps the HTTP handlers from serializing on writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("applying schema: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &SQLiteStore{dbPath: dbPath, db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save upserts a configuration by name.
func (s *SQLiteStore) Save(ctx context.Context, cfg *core.ExportedConfiguration) error {
	if err := validateName(cfg.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	optionsJSON, err := json.Marshal(cfg.Options)
	if err != nil {
		return fmt.Errorf("marshaling options: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saved_configurations (name, model_code, model_guid, compatibility_hash, options_json, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			model_code = excluded.model_code,
			model_guid = excluded.model_guid,
			compatibility_hash = excluded.compatibility_hash,
			options_json = excluded.options_json,
			saved_at = excluded.saved_at`,
		cfg.Name, cfg.ModelCode, cfg.ModelGUID, cfg.CompatibilityHash,
		string(optionsJSON), cfg.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving configuration: %w", err)
	}
	return nil
}

// Load retrieves a configuration by name.
func (s *SQLiteStore) Load(ctx context.Context, name string) (*core.ExportedConfiguration, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT name, model_code, model_guid, compatibility_hash, options_json, saved_at
		FROM saved_configurations WHERE name = ?`, name)

	var cfg core.ExportedConfiguration
	var optionsJSON, savedAt string
	err := row.Scan(&cfg.Name, &cfg.ModelCode, &cfg.ModelGUID, &cfg.CompatibilityHash, &optionsJSON, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound("saved configuration", name)
	}
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	if err := json.Unmarshal([]byte(optionsJSON), &cfg.Options); err != nil {
		return nil, core.ErrState(core.CodeStoreCorrupted, fmt.Sprintf("saved configuration %q has invalid options", name)).WithCause(err)
	}
	if ts, err := time.Parse(time.RFC3339Nano, savedAt); err == nil {
		cfg.Timestamp = ts
	}
	return &cfg, nil
}

// List returns summaries of all saved configurations, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]core.SavedSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, model_code, compatibility_hash, saved_at
		FROM saved_configurations ORDER BY saved_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing configurations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []core.SavedSummary
	for rows.Next() {
		var sum core.SavedSummary
		var savedAt string
		if err := rows.Scan(&sum.Name, &sum.ModelCode, &sum.CompatibilityHash, &savedAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, savedAt); err == nil {
			sum.Timestamp = ts
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Delete removes a saved configuration.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_configurations WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting configuration: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound("saved configuration", name)
	}
	return nil
}
