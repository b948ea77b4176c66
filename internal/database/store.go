// Package database persists the state document and its migration history.
package database

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Settings keys.
const (
	SettingPollingInterval = "polling_interval_minutes"
	SettingGitHubUsername  = "github_username"
)

// DefaultPollingIntervalMinutes is used when no valid interval is stored.
const DefaultPollingIntervalMinutes = 15

// ErrSettingNotFound is returned by GetSetting for unknown keys.
var ErrSettingNotFound = errors.New("setting not found")

// MigrationRecord is a row of the migration log.
type MigrationRecord struct {
	Version    int       `json:"version"`
	Name       string    `json:"name"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Store defines the interface for database operations.
// Both SQLite and PostgreSQL implementations satisfy this interface.
type Store interface {
	Close() error

	// DatabaseType returns the name of the database backend ("SQLite" or "PostgreSQL").
	DatabaseType() string

	// SupportsHighConcurrency returns true if the database can handle
	// many concurrent write operations (e.g., PostgreSQL).
	// SQLite returns false due to write locking limitations.
	SupportsHighConcurrency() bool

	// Document operations. There is a single document; found is false until the
	// first save.
	LoadDocument(ctx context.Context) (data []byte, version int, found bool, err error)
	SaveDocument(ctx context.Context, data []byte, version int) error
	// SaveMigration stores a migrated document and appends the steps that produced it,
	// in one transaction.
	SaveMigration(ctx context.Context, data []byte, version int, applied []MigrationRecord) error
	MigrationLog(ctx context.Context) ([]MigrationRecord, error)

	// Settings operations
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	GetPollingInterval(ctx context.Context) (int, error)
}

// Open selects a backend: PostgreSQL when databaseURL is a postgres URL, SQLite at path
// otherwise.
func Open(ctx context.Context, databaseURL, path string) (Store, error) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return NewPostgres(ctx, databaseURL)
	}
	return New(ctx, path)
}

// pollingInterval parses a stored interval, falling back to the default for missing or
// invalid values.
func pollingInterval(val string, err error) (int, error) {
	if errors.Is(err, ErrSettingNotFound) {
		return DefaultPollingIntervalMinutes, nil
	}
	if err != nil {
		return DefaultPollingIntervalMinutes, err
	}
	mins, convErr := strconv.Atoi(strings.TrimSpace(val))
	if convErr != nil || mins < 1 {
		return DefaultPollingIntervalMinutes, nil
	}
	return mins, nil
}
