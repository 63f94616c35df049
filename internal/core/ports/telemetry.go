package ports

import (
	"context"
	"io"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Telemetry records one vertex per executed target.
type Telemetry interface {
	// Record starts a new vertex.
	Record(ctx context.Context, name string) (context.Context, Vertex)
	// Close flushes the recording.
	Close() error
}

// Vertex is the telemetry handle of a single target execution.
type Vertex interface {
	// Stdout returns a writer capturing the target's output.
	Stdout() io.Writer
	// Stderr returns a writer capturing the target's diagnostics.
	Stderr() io.Writer
	// Complete marks the vertex as finished. err is nil on success.
	Complete(err error)
}

type vertexKey struct{}

// ContextWithVertex returns a copy of ctx carrying v.
func ContextWithVertex(ctx context.Context, v Vertex) context.Context {
	return context.WithValue(ctx, vertexKey{}, v)
}

// VertexFromContext returns the vertex stored in ctx, if any.
func VertexFromContext(ctx context.Context) (Vertex, bool) {
	v, ok := ctx.Value(vertexKey{}).(Vertex)
	return v, ok
}
