package scheduler

import (
	"sync"
	"time"

	"go.trai.ch/rig/internal/core/ports"
)

// ProcessTable tracks the live processes of one run, keyed by process and
// labelled with the target that owns them.
type ProcessTable struct {
	mu    sync.Mutex
	procs map[ports.Process]string
}

// NewProcessTable creates an empty ProcessTable.
func NewProcessTable() *ProcessTable {
	return &ProcessTable{procs: make(map[ports.Process]string)}
}

// Add records p as owned by target.
func (t *ProcessTable) Add(target string, p ports.Process) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.procs[p] = target
}

// Remove forgets p.
func (t *ProcessTable) Remove(p ports.Process) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.procs, p)
}

// Len returns the number of live processes.
func (t *ProcessTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.procs)
}

// Teardown stops every live process and waits for them to exit.
func (t *ProcessTable) Teardown(grace time.Duration) {
	stopProcesses(t.snapshot(func(string) bool { return true }), grace)
}

// TeardownTarget stops the live processes of one target and waits for them.
func (t *ProcessTable) TeardownTarget(target string, grace time.Duration) {
	stopProcesses(t.snapshot(func(owner string) bool { return owner == target }), grace)
}

func (t *ProcessTable) snapshot(match func(owner string) bool) []ports.Process {
	t.mu.Lock()
	defer t.mu.Unlock()

	var procs []ports.Process
	for p, owner := range t.procs {
		if match(owner) {
			procs = append(procs, p)
		}
	}
	return procs
}

// stopProcesses sends SIGTERM to every process, waits up to grace for them to
// exit, kills the survivors and waits for them too.
func stopProcesses(procs []ports.Process, grace time.Duration) {
	if len(procs) == 0 {
		return
	}

	for _, p := range procs {
		_ = p.Terminate()
	}

	deadline := time.NewTimer(grace)
	defer deadline.Stop()

	for _, p := range procs {
		select {
		case <-p.Done():
		case <-deadline.C:
			killSurvivors(procs)
			return
		}
	}
}

func killSurvivors(procs []ports.Process) {
	for _, p := range procs {
		select {
		case <-p.Done():
		default:
			_ = p.Kill()
		}
	}
	for _, p := range procs {
		<-p.Done()
	}
}
