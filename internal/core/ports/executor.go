// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"
)

// ProcessSpec describes an external process to spawn.
type ProcessSpec struct {
	// Argv is the program and its arguments. Argv[0] is looked up in PATH.
	Argv []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env holds overrides applied on top of the host environment.
	Env map[string]string

	Stdout io.Writer
	Stderr io.Writer
}

// Executor spawns external processes.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Start launches the process described by spec and returns immediately.
	// Stopping the process is the caller's job: cancelling ctx after Start
	// does not signal it.
	Start(ctx context.Context, spec ProcessSpec) (Process, error)
}

// Process is a handle to one spawned external process and everything it forks.
type Process interface {
	// Pid returns the operating system process id.
	Pid() int

	// Done is closed once the process has exited and its output is drained.
	Done() <-chan struct{}

	// Wait blocks until the process exits and returns its exit status.
	// A process killed by a signal reports 128+signal. The error is only
	// set when the status could not be determined.
	Wait() (int, error)

	// Terminate asks the process and its children to stop (SIGTERM).
	Terminate() error

	// Kill stops the process and its children immediately (SIGKILL).
	Kill() error
}
