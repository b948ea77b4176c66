package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection.
type DB struct {
	conn *sql.DB
}

// Ensure DB implements Store interface.
var _ Store = (*DB)(nil)

// New opens or creates an SQLite database at the given path.
func New(ctx context.Context, path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite allows a single writer.
	conn.SetMaxOpenConns(1)
	if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	db := &DB{conn: conn}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// DatabaseType returns the database backend name.
func (db *DB) DatabaseType() string {
	return "SQLite"
}

// SupportsHighConcurrency returns false for SQLite.
func (db *DB) SupportsHighConcurrency() bool {
	return false
}

func (db *DB) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS document (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		version INTEGER NOT NULL,
		data TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS migration_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		version INTEGER NOT NULL,
		name TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	INSERT OR IGNORE INTO settings (key, value) VALUES ('polling_interval_minutes', '15');
	`
	_, err := db.conn.ExecContext(ctx, schema)
	return err
}

// --- Document Methods ---

// LoadDocument returns the stored document and the version recorded with it.
func (db *DB) LoadDocument(ctx context.Context) ([]byte, int, bool, error) {
	var data string
	var version int
	err := db.conn.QueryRowContext(ctx, "SELECT data, version FROM document WHERE id = 1").Scan(&data, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, err
	}
	return []byte(data), version, true, nil
}

// SaveDocument replaces the stored document.
func (db *DB) SaveDocument(ctx context.Context, data []byte, version int) error {
	return saveDocumentSQLite(ctx, db.conn, data, version)
}

// SaveMigration stores a migrated document together with its migration log entries.
func (db *DB) SaveMigration(ctx context.Context, data []byte, version int, applied []MigrationRecord) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := saveDocumentSQLite(ctx, tx, data, version); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO migration_log (version, name, started_at, finished_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range applied {
		if _, err := stmt.ExecContext(ctx, r.Version, r.Name, formatTime(r.StartedAt), formatTime(r.FinishedAt)); err != nil {
			return fmt.Errorf("log migration %d: %w", r.Version, err)
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveDocumentSQLite(ctx context.Context, conn execer, data []byte, version int) error {
	_, err := conn.ExecContext(ctx, `
		INSERT INTO document (id, version, data, updated_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET version = excluded.version, data = excluded.data, updated_at = excluded.updated_at`,
		version, string(data), formatTime(time.Now()))
	return err
}

// MigrationLog returns every logged migration step, oldest first.
func (db *DB) MigrationLog(ctx context.Context) ([]MigrationRecord, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT version, name, started_at, finished_at FROM migration_log ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []MigrationRecord
	for rows.Next() {
		var r MigrationRecord
		var startedAt, finishedAt string
		if err := rows.Scan(&r.Version, &r.Name, &startedAt, &finishedAt); err != nil {
			return nil, err
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// --- Settings Methods ---

// GetSetting retrieves a setting value.
func (db *DB) GetSetting(ctx context.Context, key string) (string, error) {
	var val string
	err := db.conn.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrSettingNotFound, key)
	}
	return val, err
}

// SetSetting saves a setting.
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx, "INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value", key, value)
	return err
}

// GetPollingInterval returns the polling interval in minutes.
func (db *DB) GetPollingInterval(ctx context.Context) (int, error) {
	return pollingInterval(db.GetSetting(ctx, SettingPollingInterval))
}
