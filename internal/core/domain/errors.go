package domain

import (
	"fmt"
	"strings"

	"go.trai.ch/zerr"
)

var (
	// ErrDuplicateTarget is returned when registering a target whose name is already taken.
	ErrDuplicateTarget = zerr.New("duplicate target")

	// ErrUnknownTarget is returned when a requested or referenced target is not registered.
	ErrUnknownTarget = zerr.New("unknown target")

	// ErrCyclicDependency is returned when the prerequisites of a target form a cycle.
	ErrCyclicDependency = zerr.New("cyclic dependency")

	// ErrActionFailed is returned when an action of a recipe exits unsuccessfully.
	ErrActionFailed = zerr.New("action failed")

	// ErrInterrupted is returned when a run is cancelled by the operator or a signal.
	ErrInterrupted = zerr.New("interrupted")

	// ErrStopped is the cause recorded for fan-out members stopped because a sibling failed.
	ErrStopped = zerr.New("stopped after a sibling action failed")

	// ErrEmptyTargetName is returned when a target is declared without a name.
	ErrEmptyTargetName = zerr.New("target name must not be empty")

	// ErrInvalidTargetName is returned when a target name contains whitespace or starts with '-'.
	ErrInvalidTargetName = zerr.New("invalid target name")

	// ErrInvalidMode is returned when a declaration names an unknown concurrency mode.
	ErrInvalidMode = zerr.New("invalid mode, expected 'sequential' or 'fanout'")

	// ErrInvalidAction is returned when an action declaration is neither a string nor a list of strings.
	ErrInvalidAction = zerr.New("invalid action, expected a string or a list of strings")

	// ErrNoTargetSpecified is returned when a command needs a target name and none was given.
	ErrNoTargetSpecified = zerr.New("no target specified")

	// ErrInvalidJobs is returned when fewer than one parallel job is requested.
	ErrInvalidJobs = zerr.New("jobs must be at least 1")

	// ErrConfigNotFound is returned when no declaration file can be found.
	ErrConfigNotFound = zerr.New("could not find rigfile.yaml, rigfile.yml or rigfile.hcl")

	// ErrConfigReadFailed is returned when the declaration file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read declaration file")

	// ErrConfigParseFailed is returned when the declaration file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse declaration file")

	// ErrUnsupportedConfigFormat is returned for declaration files with an unknown extension.
	ErrUnsupportedConfigFormat = zerr.New("unsupported declaration format")

	// ErrSpawnFailed is returned when an external process cannot be started.
	ErrSpawnFailed = zerr.New("failed to start process")

	// ErrJournalReadFailed is returned when the run journal cannot be read.
	ErrJournalReadFailed = zerr.New("failed to read run journal")

	// ErrJournalWriteFailed is returned when the run journal cannot be written.
	ErrJournalWriteFailed = zerr.New("failed to write run journal")
)

// CycleError reports a dependency cycle. Path starts and ends with the same
// target, e.g. [a b a].
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCyclicDependency.Error(), strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCyclicDependency
}

// ActionFailedError identifies the action that stopped a recipe.
type ActionFailedError struct {
	Target      string
	ActionIndex int
	ExitCode    int
	Cause       error
}

func (e *ActionFailedError) Error() string {
	msg := fmt.Sprintf("%s: target %q action #%d exited with status %d",
		ErrActionFailed.Error(), e.Target, e.ActionIndex, e.ExitCode)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is and errors.As.
func (e *ActionFailedError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrActionFailed}
	}
	return []error{ErrActionFailed, e.Cause}
}

// unknownTarget builds an ErrUnknownTarget error for name.
func unknownTarget(name string) error {
	return zerr.With(fmt.Errorf("%w %q", ErrUnknownTarget, name), "target", name)
}

// Annotate attaches metadata to err. Bare sentinels are wrapped first so that
// errors.Is still matches them.
func Annotate(err error, key string, value any) error {
	if err == nil {
		return nil
	}
	if z, ok := err.(*zerr.Error); ok && z.Unwrap() == nil {
		err = zerr.Wrap(err, "")
	}
	return zerr.With(err, key, value)
}
