package ports

import (
	"context"
	"time"
)

// Renderer receives the lifecycle events and output of a run.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// Stop flushes any buffered output.
	Stop() error

	// OnPlanEmit is called once the plan for the requested target is known.
	OnPlanEmit(plan []string, requested string)

	// OnTargetStart is called when a target's recipe begins.
	OnTargetStart(name string, startTime time.Time)

	// OnTargetLog is called with raw output of a target. data may hold
	// partial lines.
	OnTargetLog(name string, data []byte)

	// OnTargetComplete is called when a target finishes. err is nil on success.
	OnTargetComplete(name string, endTime time.Time, err error)

	// OnTargetSkipped is called for a target that never started.
	OnTargetSkipped(name string)
}
