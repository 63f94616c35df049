// Package telemetry records one progrock vertex per executed target.
package telemetry

import (
	"context"
	"strconv"
	"sync"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/rig/internal/core/ports"
)

// Recorder implements ports.Telemetry on top of a progrock tape.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder

	mu    sync.Mutex
	count map[string]int
}

var _ ports.Telemetry = (*Recorder)(nil)

// New creates a Recorder writing to an in-memory tape.
func New() *Recorder {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a Recorder with the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:     w,
		rec:   progrock.NewRecorder(w),
		count: make(map[string]int),
	}
}

// Record starts a vertex for the named target. Repeated records of the same
// name get distinct digests.
func (r *Recorder) Record(ctx context.Context, name string) (context.Context, ports.Vertex) {
	v := &Vertex{vertex: r.rec.Vertex(r.digest(name), name)}
	return ports.ContextWithVertex(ctx, v), v
}

// Digest returns the vertex digest the nth record of name receives.
func Digest(name string, n int) digest.Digest {
	if n == 0 {
		return digest.FromString(name)
	}
	return digest.FromString(name + "#" + strconv.Itoa(n))
}

func (r *Recorder) digest(name string) digest.Digest {
	r.mu.Lock()
	n := r.count[name]
	r.count[name] = n + 1
	r.mu.Unlock()
	return Digest(name, n)
}

// Close flushes the recording and closes the writer if it supports it.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
