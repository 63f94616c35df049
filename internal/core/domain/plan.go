package domain

import (
	"fmt"
	"iter"
	"strings"

	"go.trai.ch/zerr"
)

// Plan is the ordered list of targets to execute for one request. Every
// prerequisite precedes its dependents and the requested target comes last.
type Plan struct {
	requested InternedString
	order     []*Target
}

// Requested returns the name of the target the plan was resolved for.
func (p Plan) Requested() string {
	return p.requested.String()
}

// Len returns the number of targets in the plan.
func (p Plan) Len() int {
	return len(p.order)
}

// Names returns the target names in execution order.
func (p Plan) Names() []string {
	names := make([]string, len(p.order))
	for i, t := range p.order {
		names[i] = t.Name.String()
	}
	return names
}

// Targets returns an iterator over the targets in execution order.
func (p Plan) Targets() iter.Seq2[int, *Target] {
	return func(yield func(int, *Target) bool) {
		for i, t := range p.order {
			if !yield(i, t) {
				return
			}
		}
	}
}

// String renders the plan as "a -> b -> c".
func (p Plan) String() string {
	return strings.Join(p.Names(), " -> ")
}

// Resolve computes the execution plan for the named target.
//
// Prerequisites are visited depth first in declaration order. A target shared
// by several branches runs once, at the position where it is first reached.
// It fails with ErrUnknownTarget or a *CycleError.
func (r *Registry) Resolve(name string) (Plan, error) {
	root := NewInternedString(name)
	if _, ok := r.targets[root]; !ok {
		return Plan{}, unknownTarget(name)
	}

	res := newResolver(r)
	if err := res.visit(root, InternedString{}); err != nil {
		return Plan{}, err
	}

	return Plan{requested: root, order: res.order}, nil
}

type mark uint8

const (
	unvisited mark = iota
	visiting
	done
)

type resolver struct {
	registry *Registry
	marks    map[InternedString]mark
	path     []InternedString
	order    []*Target
}

func newResolver(r *Registry) *resolver {
	return &resolver{
		registry: r,
		marks:    make(map[InternedString]mark, len(r.targets)),
	}
}

func (res *resolver) visit(name, dependent InternedString) error {
	switch res.marks[name] {
	case done:
		return nil
	case visiting:
		return res.cycleError(name)
	}

	t, ok := res.registry.targets[name]
	if !ok {
		err := unknownTarget(name.String())
		if !dependent.IsZero() {
			err = zerr.With(err, "required_by", dependent.String())
		}
		return err
	}

	res.marks[name] = visiting
	res.path = append(res.path, name)

	for _, prereq := range t.Prerequisites {
		if err := res.visit(prereq, name); err != nil {
			return err
		}
	}

	res.path = res.path[:len(res.path)-1]
	res.marks[name] = done
	res.order = append(res.order, t)
	return nil
}

// cycleError builds the chain from the first occurrence of name on the
// current path back to name itself.
func (res *resolver) cycleError(name InternedString) error {
	start := 0
	for i, n := range res.path {
		if n == name {
			start = i
			break
		}
	}

	cycle := make([]string, 0, len(res.path)-start+1)
	for _, n := range res.path[start:] {
		cycle = append(cycle, n.String())
	}
	cycle = append(cycle, name.String())

	return zerr.With(&CycleError{Path: cycle}, "cycle", strings.Join(cycle, " -> "))
}

// describe is used by the plan printer to annotate a target.
func describe(t *Target) string {
	var b strings.Builder
	b.WriteString(t.Name.String())
	if t.Phony {
		b.WriteString(" (phony)")
	}
	if t.Mode == ModeFanOutJoin {
		fmt.Fprintf(&b, " [fanout x%d]", len(t.Actions))
	}
	return b.String()
}

// Describe returns one annotated line per planned target.
func (p Plan) Describe() []string {
	lines := make([]string, len(p.order))
	for i, t := range p.order {
		lines[i] = describe(t)
	}
	return lines
}
