// Package migration upgrades the persisted state document, release over release, to the
// schema version the running code expects.
//
// A Registry holds one Step per version. The Migrator reads the version tag of a
// document, applies every step above it in ascending order and stamps the new version
// only once all of them succeeded. Each step runs against its own deep copy of the
// document, so a failing step never leaves a partially rewritten tree behind, and the
// caller's document is never modified.
package migration

import (
	"errors"
	"fmt"
	"time"

	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNilDocument is returned when Migrate is called without a document.
var ErrNilDocument = errors.New("nil document")

// StepError reports the step that stopped a migration.
type StepError struct {
	Version int
	Name    string
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("migration %d (%s): %v", e.Version, e.Name, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Applied is a record of a step that ran.
type Applied struct {
	Version    int       `json:"version"`
	Name       string    `json:"name"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Result describes a migration run.
type Result struct {
	From    int       `json:"from"`
	To      int       `json:"to"`
	Applied []Applied `json:"applied,omitempty"`
	// Ahead is set when the document was written by a newer schema than the registry
	// knows. Such documents are returned untouched.
	Ahead bool `json:"ahead,omitempty"`
}

// Migrator applies registry steps to documents.
type Migrator struct {
	logger   *zap.Logger
	registry *Registry

	now   func() time.Time
	newID func() string
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithNow overrides the clock handed to steps and used for Applied records.
func WithNow(now func() time.Time) Option {
	return func(m *Migrator) { m.now = now }
}

// WithIDGenerator overrides the identifier source handed to steps.
func WithIDGenerator(newID func() string) Option {
	return func(m *Migrator) { m.newID = newID }
}

// NewMigrator constructs a Migrator over a validated registry.
func NewMigrator(logger *zap.Logger, registry *Registry, opts ...Option) *Migrator {
	m := &Migrator{
		logger:   logger,
		registry: registry,
		now: func() time.Time {
			return time.Now().UTC()
		},
		newID: func() string {
			return uuid.NewString()
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Latest returns the version documents are migrated to.
func (m *Migrator) Latest() int {
	return m.registry.Latest()
}

// Plan returns the steps Migrate would apply to doc.
func (m *Migrator) Plan(doc document.Object) []Step {
	return append([]Step(nil), m.registry.after(document.Version(doc))...)
}

// Migrate returns a copy of doc upgraded to the latest version.
//
// A document already at the latest version comes back as a structurally equal copy
// with no steps applied. On failure the returned document is nil and the error is a
// *StepError; doc itself is never modified.
func (m *Migrator) Migrate(doc document.Object) (document.Object, Result, error) {
	if doc == nil {
		return nil, Result{}, ErrNilDocument
	}

	from := document.Version(doc)
	latest := m.registry.Latest()
	res := Result{From: from, To: from}

	if from > latest {
		m.logger.Warn("Document schema is newer than this build; leaving it untouched",
			zap.Int("document_version", from),
			zap.Int("latest_version", latest))
		res.Ahead = true
		return document.CloneObject(doc), res, nil
	}

	steps := m.registry.after(from)
	if len(steps) == 0 {
		return document.CloneObject(doc), res, nil
	}

	m.logger.Info("Bringing up store migrations",
		zap.Int("migration_count", len(steps)),
		zap.Int("from_version", from),
		zap.Int("to_version", latest))

	env := NewEnv(m.logger, m.now, m.newID)
	current := doc
	for _, step := range steps {
		startedAt := m.now()
		m.logStepEvent(step, "started")

		next, err := m.apply(step, current, env)
		if err != nil {
			m.logger.Error("Store migration failed; document left at previous version",
				zap.Int("document_version", from),
				zap.Int("migration_version", step.Version()),
				zap.String("migration_name", step.MigrationName()),
				zap.Error(err))
			return nil, res, &StepError{Version: step.Version(), Name: step.MigrationName(), Err: err}
		}
		current = next

		res.Applied = append(res.Applied, Applied{
			Version:    step.Version(),
			Name:       step.MigrationName(),
			StartedAt:  startedAt,
			FinishedAt: m.now(),
		})
		m.logStepEvent(step, "completed")
	}

	document.SetVersion(current, latest)
	res.To = latest
	return current, res, nil
}

// apply runs step against a private copy of doc and converts panics into errors.
func (m *Migrator) apply(step Step, doc document.Object, env *Env) (out document.Object, err error) {
	working := document.CloneObject(doc)
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	if err := step.Up(working, env); err != nil {
		return nil, err
	}
	return working, nil
}

func (m *Migrator) logStepEvent(step Step, event string) {
	m.logger.Debug(
		"Executing store migration",
		zap.String("migration_name", step.MigrationName()),
		zap.Int("migration_version", step.Version()),
		zap.String("migration_event", event),
	)
}
