// Package domain contains the core domain models for the target graph.
package domain

import (
	"fmt"
	"slices"

	"go.trai.ch/zerr"
)

// Registry holds every declared target. It is filled during loading and
// treated as read-only afterwards, so concurrent readers need no locking.
type Registry struct {
	targets map[InternedString]*Target
	order   []InternedString
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		targets: make(map[InternedString]*Target),
	}
}

// Register adds a target to the registry.
// It returns ErrDuplicateTarget if a target with the same name already exists.
func (r *Registry) Register(t *Target) error {
	if t.Name.IsZero() {
		return ErrEmptyTargetName
	}
	if _, exists := r.targets[t.Name]; exists {
		return zerr.With(fmt.Errorf("%w %q", ErrDuplicateTarget, t.Name.String()), "target", t.Name.String())
	}
	r.targets[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Lookup returns the target with the given name or ErrUnknownTarget.
func (r *Registry) Lookup(name string) (*Target, error) {
	t, ok := r.targets[NewInternedString(name)]
	if !ok {
		return nil, unknownTarget(name)
	}
	return t, nil
}

// Len returns the number of registered targets.
func (r *Registry) Len() int {
	return len(r.targets)
}

// Names returns the registered target names in lexical order.
func (r *Registry) Names() []string {
	names := slices.Clone(r.order)
	slices.SortFunc(names, InternedString.Compare)
	return Strings(names)
}

// Validate checks the whole registry: every prerequisite must be registered
// and no cycle may exist. Targets are visited in lexical order so the
// reported error is stable.
func (r *Registry) Validate() error {
	res := newResolver(r)
	for _, name := range r.Names() {
		if err := res.visit(NewInternedString(name), InternedString{}); err != nil {
			return err
		}
	}
	return nil
}
