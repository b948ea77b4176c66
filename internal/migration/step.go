package migration

import (
	"time"

	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/github"
	"go.uber.org/zap"
)

// Step is a specification for a single schema version.
// Up receives a working copy of a document at Version()-1 and rewrites it in place to
// the Version() shape. The copy is private to the step; on error it is discarded.
type Step interface {
	Version() int
	MigrationName() string
	Up(doc document.Object, env *Env) error
}

// Env carries the non-deterministic inputs a step may use.
type Env struct {
	Logger *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewEnv returns an Env backed by the given clock and identifier source.
func NewEnv(logger *zap.Logger, now func() time.Time, newID func() string) *Env {
	return &Env{Logger: logger, now: now, newID: newID}
}

// Now returns the current time as a client timestamp.
func (e *Env) Now() string {
	return github.Timestamp(e.now())
}

// NewID returns a fresh unique identifier.
func (e *Env) NewID() string {
	return e.newID()
}

type stepFunc struct {
	version int
	name    string
	up      func(document.Object, *Env) error
}

// StepFunc builds a Step from a function.
func StepFunc(version int, name string, up func(doc document.Object, env *Env) error) Step {
	return &stepFunc{version: version, name: name, up: up}
}

// Identity builds a Step that leaves the document unchanged.
func Identity(version int, name string) Step {
	return StepFunc(version, name, func(document.Object, *Env) error { return nil })
}

func (s *stepFunc) Version() int          { return s.version }
func (s *stepFunc) MigrationName() string { return s.name }

func (s *stepFunc) Up(doc document.Object, env *Env) error {
	return s.up(doc, env)
}
