package migration

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrNoSteps is returned when a registry is built from an empty list.
	ErrNoSteps = errors.New("no migration steps")
	// ErrDuplicateStep is returned when two steps claim the same version.
	ErrDuplicateStep = errors.New("duplicate migration step")
	// ErrMissingStep is returned when a version between 0 and the latest has no step.
	ErrMissingStep = errors.New("missing migration step")
)

// Registry is an ordered, gap-free set of steps covering versions 0 through Latest.
type Registry struct {
	steps []Step
}

// NewRegistry validates steps and returns them as a Registry. Steps may be passed in
// any order. A duplicate or missing version is a configuration error.
func NewRegistry(steps ...Step) (*Registry, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}

	sorted := append([]Step(nil), steps...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Version() < sorted[j].Version()
	})

	for i, s := range sorted {
		if i > 0 && s.Version() == sorted[i-1].Version() {
			return nil, fmt.Errorf("%w: version %d (%q and %q)", ErrDuplicateStep, s.Version(), sorted[i-1].MigrationName(), s.MigrationName())
		}
		if s.Version() != i {
			return nil, fmt.Errorf("%w: version %d", ErrMissingStep, i)
		}
	}

	return &Registry{steps: sorted}, nil
}

// Latest returns the highest version the registry can migrate to.
func (r *Registry) Latest() int {
	return len(r.steps) - 1
}

// Step returns the step for a version.
func (r *Registry) Step(version int) (Step, bool) {
	if version < 0 || version >= len(r.steps) {
		return nil, false
	}
	return r.steps[version], true
}

// Steps returns every step in ascending version order.
func (r *Registry) Steps() []Step {
	return append([]Step(nil), r.steps...)
}

// after returns the steps with a version strictly greater than version.
func (r *Registry) after(version int) []Step {
	if version < -1 {
		version = -1
	}
	if version >= r.Latest() {
		return nil
	}
	return r.steps[version+1:]
}
