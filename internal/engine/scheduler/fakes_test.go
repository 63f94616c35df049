package scheduler_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.trai.ch/rig/internal/adapters/telemetry"
	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/core/ports"
	"go.trai.ch/rig/internal/core/ports/mocks"
	"go.trai.ch/rig/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

// behavior scripts what a fake process does once started.
type behavior struct {
	output     string
	code       int
	delay      time.Duration
	hang       bool
	ignoreTerm bool
	spawnErr   error
}

type fakeProcess struct {
	done       chan struct{}
	once       sync.Once
	code       int
	ignoreTerm bool
	terminated atomic.Bool
	killed     atomic.Bool
}

func newFakeProcess(ignoreTerm bool) *fakeProcess {
	return &fakeProcess{done: make(chan struct{}), ignoreTerm: ignoreTerm}
}

func (p *fakeProcess) exit(code int) {
	p.once.Do(func() {
		p.code = code
		close(p.done)
	})
}

func (p *fakeProcess) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *fakeProcess) Pid() int { return 4242 }
func (p *fakeProcess) Done() <-chan struct{} { return p.done }
func (p *fakeProcess) Wait() (int, error) { <-p.done; return p.code, nil }
func (p *fakeProcess) Kill() error { p.killed.Store(true); p.exit(137); return nil }
func (p *fakeProcess) Terminate() error {
	p.terminated.Store(true)
	if !p.ignoreTerm {
		p.exit(143)
	}
	return nil
}

// fakeExecutor starts fake processes keyed by their joined argv.
type fakeExecutor struct {
	mu         sync.Mutex
	behaviors  map[string]behavior
	started    []string
	procs      map[string]*fakeProcess
	specs      map[string]ports.ProcessSpec
	running    int
	maxRunning int
}

func newFakeExecutor(behaviors map[string]behavior) *fakeExecutor {
	return &fakeExecutor{
		behaviors: behaviors,
		procs:     make(map[string]*fakeProcess),
		specs:     make(map[string]ports.ProcessSpec),
	}
}

func (e *fakeExecutor) Start(_ context.Context, spec ports.ProcessSpec) (ports.Process, error) {
	label := strings.Join(spec.Argv, " ")

	e.mu.Lock()
	b := e.behaviors[label]
	e.started = append(e.started, label)
	e.specs[label] = spec
	if b.spawnErr != nil {
		e.mu.Unlock()
		return nil, b.spawnErr
	}
	p := newFakeProcess(b.ignoreTerm)
	e.procs[label] = p
	e.running++
	e.maxRunning = max(e.maxRunning, e.running)
	e.mu.Unlock()

	go func() {
		if b.output != "" {
			_, _ = io.WriteString(spec.Stdout, b.output)
		}
		switch {
		case b.hang:
			<-p.done
		case b.delay > 0:
			select {
			case <-time.After(b.delay):
			case <-p.done:
			}
		}
		e.mu.Lock()
		e.running--
		e.mu.Unlock()
		p.exit(b.code)
	}()

	return p, nil
}

func (e *fakeExecutor) Started() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.started...)
}

func (e *fakeExecutor) Process(label string) *fakeProcess {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.procs[label]
}

func (e *fakeExecutor) MaxRunning() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxRunning
}

type event struct {
	kind   string
	target string
	err    error
}

// recordingSink is a ports.Renderer that remembers every call.
type recordingSink struct {
	mu     sync.Mutex
	events []event
	logs   map[string]*bytes.Buffer
}

var _ ports.Renderer = (*recordingSink)(nil)

func newRecordingSink() *recordingSink {
	return &recordingSink{logs: make(map[string]*bytes.Buffer)}
}

func (s *recordingSink) record(e event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) Start(context.Context) error { return nil }
func (s *recordingSink) Stop() error { return nil }
func (s *recordingSink) OnPlanEmit([]string, string) {}
func (s *recordingSink) OnTargetSkipped(name string) { s.record(event{kind: "skip", target: name}) }
func (s *recordingSink) OnTargetStart(name string, _ time.Time) {
	s.record(event{kind: "start", target: name})
}

func (s *recordingSink) OnTargetComplete(name string, _ time.Time, err error) {
	s.record(event{kind: "complete", target: name, err: err})
}

func (s *recordingSink) OnTargetLog(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, ok := s.logs[name]
	if !ok {
		buf = &bytes.Buffer{}
		s.logs[name] = buf
	}
	buf.Write(data)
}

func (s *recordingSink) Log(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if buf, ok := s.logs[name]; ok {
		return buf.String()
	}
	return ""
}

// Trace renders the lifecycle events as "kind:target".
func (s *recordingSink) Trace() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	trace := make([]string, len(s.events))
	for i, e := range s.events {
		trace[i] = e.kind + ":" + e.target
	}
	return trace
}

func cmd(argv ...string) domain.Action {
	return domain.Command{Argv: argv}
}

func newTarget(name string, deps []string, actions ...domain.Action) *domain.Target {
	return &domain.Target{
		Name:          domain.NewInternedString(name),
		Phony:         true,
		Prerequisites: domain.InternStrings(deps),
		Actions:       actions,
	}
}

func fanOut(name string, deps []string, actions ...domain.Action) *domain.Target {
	t := newTarget(name, deps, actions...)
	t.Mode = domain.ModeFanOutJoin
	return t
}

func planFor(t *testing.T, requested string, targets ...*domain.Target) domain.Plan {
	t.Helper()
	reg := domain.NewRegistry()
	for _, target := range targets {
		require.NoError(t, reg.Register(target))
	}
	plan, err := reg.Resolve(requested)
	require.NoError(t, err)
	return plan
}

func newScheduler(t *testing.T, exec ports.Executor) *scheduler.Scheduler {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	return scheduler.NewScheduler(exec, telemetry.Noop{}, log)
}

func statuses(res domain.RunResult) map[string]domain.TargetStatus {
	out := make(map[string]domain.TargetStatus, len(res.Results))
	for _, r := range res.Results {
		out[r.Target] = r.Status
	}
	return out
}
