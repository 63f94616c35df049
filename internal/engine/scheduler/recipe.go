package scheduler

import (
	"context"
	"errors"
	"io"
	"maps"
	"time"

	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

// spawnFailedExitCode is reported when an action's process could not be started.
const spawnFailedExitCode = 127

// recipe executes the actions of one target.
type recipe struct {
	executor  ports.Executor
	telemetry ports.Telemetry
	sink      ports.Renderer
	procs     *ProcessTable
	grace     time.Duration

	// runCtx is the context of the whole run; its cancellation means interrupt.
	runCtx context.Context
	target *domain.Target
	vertex ports.Vertex
}

func (r *recipe) name() string {
	return r.target.Name.String()
}

func (r *recipe) run() domain.TargetResult {
	name := r.name()
	start := time.Now()
	r.sink.OnTargetStart(name, start)

	ctx, vertex := r.telemetry.Record(r.runCtx, name)
	r.vertex = vertex

	digests := make([]*digestWriter, len(r.target.Actions))
	for i := range digests {
		digests[i] = newDigestWriter()
	}

	var err error
	if r.target.Mode == domain.ModeFanOutJoin {
		err = r.runFanOut(ctx, digests)
	} else {
		err = r.runSequential(ctx, digests)
	}

	vertex.Complete(err)
	end := time.Now()
	r.sink.OnTargetComplete(name, end, err)

	res := domain.TargetResult{
		Target:       name,
		Status:       domain.StatusSucceeded,
		Duration:     end.Sub(start),
		OutputDigest: combineDigests(digests),
	}
	if err != nil {
		res.Status = domain.StatusFailed
		res.Err = err
		var failure *domain.ActionFailedError
		if errors.As(err, &failure) {
			res.ActionIndex = failure.ActionIndex
			res.ExitCode = failure.ExitCode
		}
	}
	return res
}

func (r *recipe) runSequential(ctx context.Context, digests []*digestWriter) error {
	for i, action := range r.target.Actions {
		if err := r.runAction(ctx, i, action, digests[i]); err != nil {
			return err
		}
	}
	return nil
}

// runFanOut starts every action at once and joins them. The first failure
// stops the remaining members of this target.
func (r *recipe) runFanOut(ctx context.Context, digests []*digestWriter) error {
	g, gctx := errgroup.WithContext(ctx)

	stop := context.AfterFunc(gctx, func() {
		r.procs.TeardownTarget(r.name(), r.grace)
	})
	defer stop()

	for i, action := range r.target.Actions {
		g.Go(func() error {
			return r.runAction(gctx, i, action, digests[i])
		})
	}
	return g.Wait()
}

func (r *recipe) runAction(ctx context.Context, i int, action domain.Action, digest *digestWriter) error {
	if ctx.Err() != nil {
		return r.failure(ctx, i, -1, nil)
	}

	stdout := newLineWriter(r.sink, r.name())
	stderr := newLineWriter(r.sink, r.name())
	defer stdout.Flush()
	defer stderr.Flush()

	out := io.MultiWriter(stdout, r.vertex.Stdout(), digest)
	errOut := io.MultiWriter(stderr, r.vertex.Stderr())

	switch a := action.(type) {
	case domain.Func:
		if err := a.Fn(ctx, out); err != nil {
			return r.failure(ctx, i, 1, err)
		}
		return nil
	case domain.Command:
		return r.runCommand(ctx, i, a, out, errOut)
	default:
		return r.failure(ctx, i, -1, domain.ErrInvalidAction)
	}
}

func (r *recipe) runCommand(ctx context.Context, i int, cmd domain.Command, out, errOut io.Writer) error {
	p, err := r.executor.Start(ctx, ports.ProcessSpec{
		Argv:   cmd.Args(),
		Dir:    r.target.WorkingDir,
		Env:    maps.Clone(r.target.Environment),
		Stdout: out,
		Stderr: errOut,
	})
	if err != nil {
		return r.failure(ctx, i, spawnFailedExitCode, err)
	}

	r.procs.Add(r.name(), p)
	defer r.procs.Remove(p)

	// A teardown may have run between Start and Add.
	if ctx.Err() != nil {
		stopProcesses([]ports.Process{p}, r.grace)
	}

	code, err := p.Wait()
	if err == nil && code == 0 {
		return nil
	}
	return r.failure(ctx, i, code, err)
}

// failure builds the error for action i. Actions cut short by an interrupt or
// a failing fan-out sibling record that as their cause.
func (r *recipe) failure(ctx context.Context, i, code int, cause error) error {
	switch {
	case r.runCtx.Err() != nil:
		cause = domain.ErrInterrupted
	case ctx.Err() != nil && r.target.Mode == domain.ModeFanOutJoin:
		cause = domain.ErrStopped
	}
	return &domain.ActionFailedError{
		Target:      r.name(),
		ActionIndex: i,
		ExitCode:    code,
		Cause:       cause,
	}
}
