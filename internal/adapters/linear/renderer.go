// Package linear provides a synchronous, line-buffered renderer: every output
// line is prefixed with its target name, lifecycle lines go to stderr.
package linear

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/core/ports"
	"go.trai.ch/rig/internal/ui/output"
	"go.trai.ch/rig/internal/ui/style"
)

// Renderer implements ports.Renderer for terminals and CI logs alike.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	paint  *output.Painter

	mu      sync.Mutex
	targets map[string]*targetState
}

var _ ports.Renderer = (*Renderer)(nil)

type targetState struct {
	startTime time.Time
	buf       []byte
}

// NewRenderer creates a new Renderer. Nil writers default to os.Stdout and os.Stderr.
func NewRenderer(stdout, stderr io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Renderer{
		stdout:  stdout,
		stderr:  stderr,
		paint:   output.NewPainter(stderr, output.Log),
		targets: make(map[string]*targetState),
	}
}

// Start is a no-op for the linear renderer.
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop flushes the partial lines of targets that are still running.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, state := range r.targets {
		r.flushLocked(name, state)
	}

	return nil
}

// OnPlanEmit prints the resolved plan.
func (r *Renderer) OnPlanEmit(plan []string, requested string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.stderr, "%s\n", r.paint.Faint(fmt.Sprintf("Planning %d target(s) for %s: %s",
		len(plan), requested, strings.Join(plan, " "+style.Arrow+" "))))
}

// OnTargetStart prints a start line.
func (r *Renderer) OnTargetStart(name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.targets[name] = &targetState{startTime: startTime}

	_, _ = fmt.Fprintf(r.stderr, "%s Starting...\n", r.paint.Faint(prefix(name)))
}

// OnTargetLog prints every complete line of data with the target prefix and
// keeps the trailing partial line for later.
func (r *Renderer) OnTargetLog(name string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.targets[name]
	if !ok {
		return
	}

	state.buf = append(state.buf, data...)
	for {
		i := bytes.IndexByte(state.buf, '\n')
		if i < 0 {
			break
		}
		r.printLineLocked(name, state.buf[:i])
		state.buf = state.buf[i+1:]
	}
}

// OnTargetComplete flushes the remaining output and prints the outcome.
func (r *Renderer) OnTargetComplete(name string, endTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.targets[name]
	if !ok {
		return
	}
	r.flushLocked(name, state)
	delete(r.targets, name)

	duration := endTime.Sub(state.startTime).Round(time.Millisecond)

	if err != nil {
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %v: %v\n",
			prefix(name), r.icon(domain.StatusFailed), duration, err)
		return
	}
	_, _ = fmt.Fprintf(r.stderr, "%s %s Completed in %v\n",
		prefix(name), r.icon(domain.StatusSucceeded), duration)
}

// OnTargetSkipped prints a skip line for a target that never started.
func (r *Renderer) OnTargetSkipped(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.stderr, "%s %s Skipped\n", prefix(name), r.icon(domain.StatusSkipped))
}

func (r *Renderer) flushLocked(name string, state *targetState) {
	if len(state.buf) > 0 {
		r.printLineLocked(name, state.buf)
		state.buf = nil
	}
}

func (r *Renderer) printLineLocked(name string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return
	}
	_, _ = fmt.Fprintf(r.stdout, "%s %s\n", prefix(name), line)
}

func (r *Renderer) icon(status domain.TargetStatus) string {
	icon, color := style.Status(status)
	return r.paint.Paint(icon, color)
}

func prefix(name string) string {
	return "[" + name + "]"
}
