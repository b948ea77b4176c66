// Package state owns the live state document.
//
// Open loads the persisted document, migrates it to the current schema and validates
// it before anything else can read it. Afterwards every change goes through Store,
// which applies it to a private copy, persists the copy and only then publishes it, so
// readers never observe a half-applied mutation.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bryan-buckman/feedcolumns/internal/database"
	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/github"
	"github.com/bryan-buckman/feedcolumns/internal/migration"
	"github.com/bryan-buckman/feedcolumns/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalidDocument wraps the invariant violations of a migrated document.
	ErrInvalidDocument = errors.New("invalid state document")
	// ErrUnknownSubscription is returned for subscription ids not in the document.
	ErrUnknownSubscription = errors.New("unknown subscription")
	// ErrUnknownColumn is returned for column ids not in the document.
	ErrUnknownColumn = errors.New("unknown column")
)

// maxErrorMessageLen bounds the fetch error stored on a subscription.
const maxErrorMessageLen = 200

// Store serializes access to the state document.
type Store struct {
	logger *zap.Logger
	db     database.Store

	mu  sync.RWMutex
	doc document.Object

	now   func() time.Time
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithNow overrides the clock used for timestamps.
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the source of new column and subscription ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// Open loads the stored document, brings it to the migrator's latest version and
// returns a Store over it. A fresh database gets an empty document.
//
// When steps ran, the migrated document and the migration log are written in one
// transaction. Any failure leaves the stored document as it was.
func Open(ctx context.Context, logger *zap.Logger, db database.Store, migrator *migration.Migrator, opts ...Option) (*Store, error) {
	s := &Store{
		logger: logger.With(zap.String("component", "state")),
		db:     db,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	data, storedVersion, found, err := db.LoadDocument(ctx)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	if !found {
		doc := model.NewDocument(migrator.Latest())
		if err := s.save(ctx, doc); err != nil {
			return nil, fmt.Errorf("save new document: %w", err)
		}
		s.logger.Info("Created empty state document", zap.Int("version", migrator.Latest()))
		s.doc = doc
		return s, nil
	}

	doc, err := document.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if v := document.Version(doc); v != storedVersion {
		s.logger.Warn("Stored version column disagrees with document tag; using the tag",
			zap.Int("column_version", storedVersion),
			zap.Int("document_version", v))
	}

	migrated, res, err := migrator.Migrate(doc)
	if err != nil {
		return nil, fmt.Errorf("migrate document: %w", err)
	}
	if err := Check(migrated); err != nil {
		return nil, err
	}

	if len(res.Applied) > 0 {
		b, err := document.Encode(migrated)
		if err != nil {
			return nil, err
		}
		if err := db.SaveMigration(ctx, b, res.To, Records(res.Applied)); err != nil {
			return nil, fmt.Errorf("save migrated document: %w", err)
		}
		s.logger.Info("Migrated state document",
			zap.Int("from_version", res.From),
			zap.Int("to_version", res.To),
			zap.Int("migration_count", len(res.Applied)))
	}

	s.doc = migrated
	return s, nil
}

// Check decodes doc and verifies the model invariants.
func Check(doc document.Object) error {
	st, err := model.FromDocument(doc)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if err := model.Validate(st); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return nil
}

// Records converts migration results to log rows.
func Records(applied []migration.Applied) []database.MigrationRecord {
	out := make([]database.MigrationRecord, len(applied))
	for i, a := range applied {
		out[i] = database.MigrationRecord{
			Version:    a.Version,
			Name:       a.Name,
			StartedAt:  a.StartedAt,
			FinishedAt: a.FinishedAt,
		}
	}
	return out
}

// Snapshot returns a copy of the current document.
func (s *Store) Snapshot() document.Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return document.CloneObject(s.doc)
}

// Version returns the schema version of the current document.
func (s *Store) Version() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return document.Version(s.doc)
}

// State returns the typed view of the current document.
func (s *Store) State() (model.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.FromDocument(s.doc)
}

func (s *Store) timestamp() string {
	return github.Timestamp(s.now())
}

func (s *Store) save(ctx context.Context, doc document.Object) error {
	b, err := document.Encode(doc)
	if err != nil {
		return err
	}
	return s.db.SaveDocument(ctx, b, document.Version(doc))
}

// mutate applies fn to a copy of the document, persists the copy and publishes it.
// If fn or the write fails the current document is kept.
func (s *Store) mutate(ctx context.Context, fn func(doc document.Object) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := document.CloneObject(s.doc)
	if err := fn(working); err != nil {
		return err
	}
	if err := s.save(ctx, working); err != nil {
		return fmt.Errorf("persist document: %w", err)
	}
	s.doc = working
	return nil
}
