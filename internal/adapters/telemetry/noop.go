package telemetry

import (
	"context"
	"io"

	"go.trai.ch/rig/internal/core/ports"
)

// Noop is a ports.Telemetry that records nothing.
type Noop struct{}

var _ ports.Telemetry = Noop{}

// Record returns a vertex that discards everything.
func (Noop) Record(ctx context.Context, _ string) (context.Context, ports.Vertex) {
	v := noopVertex{}
	return ports.ContextWithVertex(ctx, v), v
}

// Close does nothing.
func (Noop) Close() error { return nil }

type noopVertex struct{}

func (noopVertex) Stdout() io.Writer { return io.Discard }
func (noopVertex) Stderr() io.Writer { return io.Discard }
func (noopVertex) Complete(error)    {}
