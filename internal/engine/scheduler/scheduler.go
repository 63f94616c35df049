// Package scheduler executes resolved plans.
package scheduler

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/core/ports"
)

// DefaultGrace is how long stopped processes get to exit before they are killed.
const DefaultGrace = 5 * time.Second

// Options controls a single run.
type Options struct {
	// Jobs is the number of targets that may run at once. Values below 1 mean 1.
	Jobs int
	// Grace is the time between SIGTERM and SIGKILL during teardown.
	Grace time.Duration
}

func (o Options) normalize() Options {
	if o.Jobs < 1 {
		o.Jobs = 1
	}
	if o.Grace <= 0 {
		o.Grace = DefaultGrace
	}
	return o
}

// Scheduler runs the targets of a plan.
type Scheduler struct {
	executor  ports.Executor
	telemetry ports.Telemetry
	logger    ports.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(executor ports.Executor, telemetry ports.Telemetry, logger ports.Logger) *Scheduler {
	return &Scheduler{
		executor:  executor,
		telemetry: telemetry,
		logger:    logger,
	}
}

// Run executes plan and reports every target to sink.
//
// Targets start in plan order as soon as their prerequisites succeeded, at
// most opts.Jobs at a time. After the first failure, or once ctx is
// cancelled, no further target starts: running targets are joined and the
// rest are reported as skipped. Cancelling ctx also stops every live process.
func (s *Scheduler) Run(ctx context.Context, plan domain.Plan, sink ports.Renderer, opts Options) domain.RunResult {
	opts = opts.normalize()
	start := time.Now()

	procs := NewProcessTable()
	stop := context.AfterFunc(ctx, func() {
		if n := procs.Len(); n > 0 {
			s.logger.Warn(fmt.Sprintf("interrupted, stopping %d process(es)", n))
		}
		procs.Teardown(opts.Grace)
	})
	defer stop()

	state := s.newRunState(ctx, plan, sink, procs, opts)
	state.loop()

	return domain.RunResult{
		Plan:     plan,
		Outcome:  state.outcome(),
		Results:  state.results,
		Duration: time.Since(start),
	}
}

type result struct {
	index int
	res   domain.TargetResult
}

type runState struct {
	s     *Scheduler
	ctx   context.Context
	sink  ports.Renderer
	procs *ProcessTable
	opts  Options

	targets    []*domain.Target
	dependents [][]int
	inDegree   []int
	ready      []int
	results    []domain.TargetResult

	active    int
	failed    bool
	resultsCh chan result
}

func (s *Scheduler) newRunState(
	ctx context.Context,
	plan domain.Plan,
	sink ports.Renderer,
	procs *ProcessTable,
	opts Options,
) *runState {
	n := plan.Len()
	state := &runState{
		s:          s,
		ctx:        ctx,
		sink:       sink,
		procs:      procs,
		opts:       opts,
		targets:    make([]*domain.Target, 0, n),
		dependents: make([][]int, n),
		inDegree:   make([]int, n),
		results:    make([]domain.TargetResult, n),
		resultsCh:  make(chan result, n),
	}

	index := make(map[domain.InternedString]int, n)
	for i, t := range plan.Targets() {
		index[t.Name] = i
		state.targets = append(state.targets, t)
		state.results[i] = domain.TargetResult{Target: t.Name.String(), Status: domain.StatusPending}
	}

	for i, t := range state.targets {
		seen := make(map[int]bool, len(t.Prerequisites))
		for _, prereq := range t.Prerequisites {
			j, ok := index[prereq]
			if !ok || seen[j] {
				continue
			}
			seen[j] = true
			state.inDegree[i]++
			state.dependents[j] = append(state.dependents[j], i)
		}
		if state.inDegree[i] == 0 {
			state.ready = append(state.ready, i)
		}
	}

	return state
}

func (state *runState) loop() {
	for {
		state.schedule()
		if state.active == 0 {
			break
		}
		state.handleResult(<-state.resultsCh)
	}

	for i := range state.results {
		state.skip(i)
	}
}

func (state *runState) canStart() bool {
	return len(state.ready) > 0 &&
		state.active < state.opts.Jobs &&
		!state.failed &&
		state.ctx.Err() == nil
}

// schedule starts ready targets, lowest plan index first. With one job this
// is exactly plan order.
func (state *runState) schedule() {
	for state.canStart() {
		i := state.ready[0]
		state.ready = state.ready[1:]

		if !state.transition(i, domain.StatusRunning) {
			continue
		}
		state.active++

		r := &recipe{
			executor:  state.s.executor,
			telemetry: state.s.telemetry,
			sink:      state.sink,
			procs:     state.procs,
			grace:     state.opts.Grace,
			runCtx:    state.ctx,
			target:    state.targets[i],
		}
		go func() {
			state.resultsCh <- result{index: i, res: r.run()}
		}()
	}
}

func (state *runState) handleResult(res result) {
	state.active--

	if !state.transition(res.index, res.res.Status) {
		return
	}
	state.results[res.index] = res.res

	if res.res.Status != domain.StatusSucceeded {
		state.failed = true
		return
	}

	for _, dep := range state.dependents[res.index] {
		state.inDegree[dep]--
		if state.inDegree[dep] == 0 {
			pos, _ := slices.BinarySearch(state.ready, dep)
			state.ready = slices.Insert(state.ready, pos, dep)
		}
	}
}

func (state *runState) skip(i int) {
	if state.transition(i, domain.StatusSkipped) {
		state.sink.OnTargetSkipped(state.results[i].Target)
	}
}

// transition moves target i to next if the state machine allows it.
func (state *runState) transition(i int, next domain.TargetStatus) bool {
	if !state.results[i].Status.CanTransition(next) {
		return false
	}
	state.results[i].Status = next
	return true
}

func (state *runState) outcome() domain.Outcome {
	for _, res := range state.results {
		if res.Status != domain.StatusSucceeded {
			if state.ctx.Err() != nil {
				return domain.OutcomeInterrupted
			}
			return domain.OutcomeFailed
		}
	}
	return domain.OutcomeSucceeded
}
