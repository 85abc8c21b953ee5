// Package cache is the durable local report store. It persists the
// last-known full collection as JSON in SQLite so the client keeps a
// usable view across restarts and while the server is unreachable.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/model"
)

// DefaultKey is the collection key used for the report set.
const DefaultKey = "civic_reports"

// SQLiteCache stores whole report collections keyed by name. A write
// replaces the stored collection atomically; a reader never observes a
// partial collection.
type SQLiteCache struct {
	db *sqlx.DB
}

// New opens (or creates) a SQLite database at dbPath, enables WAL
// mode, and runs any pending schema migrations.
func New(dbPath string) (*SQLiteCache, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	c := &SQLiteCache{db: db}
	if err := c.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return c, nil
}

// Close closes the underlying database connection.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (c *SQLiteCache) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := c.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = c.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := c.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Read returns the collection stored under key. A missing key yields
// an empty (non-nil) collection, not an error.
func (c *SQLiteCache) Read(ctx context.Context, key string) ([]model.Report, error) {
	var data string
	err := c.db.GetContext(ctx, &data,
		"SELECT data FROM collections WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return []model.Report{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading collection %q: %w", key, err)
	}

	var reports []model.Report
	if err := json.Unmarshal([]byte(data), &reports); err != nil {
		return nil, fmt.Errorf("decoding collection %q: %w", key, err)
	}
	if reports == nil {
		reports = []model.Report{}
	}
	return reports, nil
}

// Write replaces the collection stored under key with reports. The
// replacement happens in one transaction, so readers see either the
// old collection or the new one, never a mix.
func (c *SQLiteCache) Write(ctx context.Context, key string, reports []model.Report) error {
	data, err := json.Marshal(reports)
	if err != nil {
		return fmt.Errorf("encoding collection %q: %w", key, err)
	}

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO collections (key, data, updated_at) VALUES (?, ?, ?)`,
		key, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing collection %q: %w", key, err)
	}

	return tx.Commit()
}
