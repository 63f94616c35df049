package domain

import (
	"context"
	"io"
	"strings"
)

// ConcurrencyMode controls how a target's own actions are run.
type ConcurrencyMode int

const (
	// ModeSequential runs actions one after another, stopping at the first failure.
	ModeSequential ConcurrencyMode = iota
	// ModeFanOutJoin starts every action at once and waits for all of them to exit.
	ModeFanOutJoin
)

// String returns the declaration keyword for the mode.
func (m ConcurrencyMode) String() string {
	switch m {
	case ModeFanOutJoin:
		return "fanout"
	default:
		return "sequential"
	}
}

// ParseConcurrencyMode maps a declaration keyword to a ConcurrencyMode.
// The empty string selects ModeSequential.
func ParseConcurrencyMode(s string) (ConcurrencyMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sequential", "serial":
		return ModeSequential, true
	case "fanout", "fan-out", "parallel", "background":
		return ModeFanOutJoin, true
	default:
		return ModeSequential, false
	}
}

// Target is a named unit of work with prerequisites and a recipe.
// Targets are immutable once registered.
type Target struct {
	Name          InternedString
	Description   string
	Phony         bool
	Prerequisites []InternedString
	Actions       []Action
	Mode          ConcurrencyMode
	WorkingDir    string
	Environment   map[string]string
}

// Action is one step of a recipe. The set of implementations is closed:
// Command spawns an external process and Func calls native Go code.
type Action interface {
	// Label is a short human-readable description used in logs and plans.
	Label() string
	isAction()
}

// Command is an action that spawns an external process.
// Exactly one of Script or Argv is set. Script runs through "sh -c".
type Command struct {
	Script string
	Argv   []string
}

// Label returns the command line as written in the declaration.
func (c Command) Label() string {
	if c.Script != "" {
		return c.Script
	}
	return strings.Join(c.Argv, " ")
}

// Args returns the argv to execute.
func (c Command) Args() []string {
	if c.Script != "" {
		return []string{"sh", "-c", c.Script}
	}
	return c.Argv
}

func (Command) isAction() {}

// Func is an action implemented by a Go function. Output written to w is
// treated exactly like process output.
type Func struct {
	Name string
	Fn   func(ctx context.Context, w io.Writer) error
}

// Label returns the function's name.
func (f Func) Label() string {
	return f.Name
}

func (Func) isAction() {}
