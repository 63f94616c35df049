package domain

import (
	"errors"
	"strings"
	"time"
)

// TargetStatus is the lifecycle state of one target within one run.
// Pending is initial; Succeeded, Failed and Skipped are terminal.
type TargetStatus string

const (
	// StatusPending indicates the target has not been started yet.
	StatusPending TargetStatus = "pending"
	// StatusRunning indicates the target's recipe is executing.
	StatusRunning TargetStatus = "running"
	// StatusSucceeded indicates every action of the target exited successfully.
	StatusSucceeded TargetStatus = "succeeded"
	// StatusFailed indicates an action failed or was stopped.
	StatusFailed TargetStatus = "failed"
	// StatusSkipped indicates the target never started because an earlier target failed.
	StatusSkipped TargetStatus = "skipped"
)

// IsTerminal reports whether the status can no longer change.
func (s TargetStatus) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving from s to next is allowed.
func (s TargetStatus) CanTransition(next TargetStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusRunning || next == StatusSkipped
	case StatusRunning:
		return next == StatusSucceeded || next == StatusFailed
	default:
		return false
	}
}

// NormalizeTargetStatus converts a string to a TargetStatus, defaulting to pending if unknown.
func NormalizeTargetStatus(s string) TargetStatus {
	switch st := TargetStatus(strings.ToLower(s)); st {
	case StatusRunning, StatusSucceeded, StatusFailed, StatusSkipped:
		return st
	default:
		return StatusPending
	}
}

// TargetResult is the outcome of one target in a run.
type TargetResult struct {
	Target       string
	Status       TargetStatus
	Err          error
	ActionIndex  int
	ExitCode     int
	Duration     time.Duration
	OutputDigest string
}

// Outcome summarises a whole run.
type Outcome string

const (
	// OutcomeSucceeded means every planned target succeeded.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeFailed means at least one target failed.
	OutcomeFailed Outcome = "failed"
	// OutcomeInterrupted means the run was cancelled before it could finish.
	OutcomeInterrupted Outcome = "interrupted"
)

// RunResult is the aggregate result of running one target and its plan.
type RunResult struct {
	Plan     Plan
	Outcome  Outcome
	Results  []TargetResult
	Duration time.Duration
}

// Success reports whether every target in the plan succeeded.
func (r RunResult) Success() bool {
	return r.Outcome == OutcomeSucceeded
}

// Result returns the result recorded for the named target.
func (r RunResult) Result(name string) (TargetResult, bool) {
	for _, res := range r.Results {
		if res.Target == name {
			return res, true
		}
	}
	return TargetResult{}, false
}

// FirstFailure returns the first failed target in plan order.
func (r RunResult) FirstFailure() (TargetResult, bool) {
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			return res, true
		}
	}
	return TargetResult{}, false
}

// Err converts a non-successful result into an error: ErrInterrupted for
// interrupted runs, otherwise the first failed target's error.
func (r RunResult) Err() error {
	switch r.Outcome {
	case OutcomeSucceeded:
		return nil
	case OutcomeInterrupted:
		return ErrInterrupted
	}
	if first, ok := r.FirstFailure(); ok && first.Err != nil {
		return first.Err
	}
	return ErrActionFailed
}

// Exit codes reported by the command line.
const (
	ExitSuccess     = 0
	ExitRecipe      = 1
	ExitUsage       = 2
	ExitInterrupted = 130
)

// ExitCode maps an error returned by the engine to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrInterrupted):
		return ExitInterrupted
	case errors.Is(err, ErrActionFailed):
		return ExitRecipe
	default:
		return ExitUsage
	}
}
