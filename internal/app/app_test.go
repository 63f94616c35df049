package app_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"testing/synctest"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rig/internal/adapters/telemetry"
	"go.trai.ch/rig/internal/app"
	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/core/ports"
	"go.trai.ch/rig/internal/core/ports/mocks"
	"go.trai.ch/rig/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	ctrl     *gomock.Controller
	loader   *mocks.MockConfigLoader
	executor *mocks.MockExecutor
	logger   *mocks.MockLogger
	journal  *mocks.MockJournal
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	app      *app.App
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		ctrl:     ctrl,
		loader:   mocks.NewMockConfigLoader(ctrl),
		executor: mocks.NewMockExecutor(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
		journal:  mocks.NewMockJournal(ctrl),
		stdout:   new(bytes.Buffer),
		stderr:   new(bytes.Buffer),
	}
	sched := scheduler.NewScheduler(f.executor, telemetry.Noop{}, f.logger)
	f.app = app.New(f.loader, sched, f.logger, f.journal).WithOutput(f.stdout, f.stderr)
	return f
}

// expectCommands makes every started process print "<argv0> done" and exit
// with the code configured for its argv0 (zero by default).
func (f *fixture) expectCommands(codes map[string]int) {
	f.executor.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, spec ports.ProcessSpec) (ports.Process, error) {
			_, _ = fmt.Fprintf(spec.Stdout, "%s done\n", spec.Argv[0])
			proc := mocks.NewMockProcess(f.ctrl)
			proc.EXPECT().Wait().Return(codes[spec.Argv[0]], nil)
			return proc, nil
		},
	).AnyTimes()
}

func target(name string, deps []string, argv ...string) *domain.Target {
	t := &domain.Target{
		Name:          domain.NewInternedString(name),
		Phony:         true,
		Prerequisites: domain.InternStrings(deps),
	}
	if len(argv) > 0 {
		t.Actions = []domain.Action{domain.Command{Argv: argv}}
	}
	return t
}

func registryOf(t *testing.T, targets ...*domain.Target) *domain.Registry {
	t.Helper()
	reg := domain.NewRegistry()
	for _, target := range targets {
		require.NoError(t, reg.Register(target))
	}
	return reg
}

func TestApp_RunTarget_Success(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		reg := registryOf(t,
			target("install", nil, "setup"),
			target("test", []string{"install"}, "pytest", "-q"),
		)

		f.loader.EXPECT().Load(".").Return(reg, nil)
		f.expectCommands(nil)

		var recorded []domain.JournalEntry
		f.journal.EXPECT().Put(gomock.Any(), gomock.Any()).DoAndReturn(func(entries ...domain.JournalEntry) error {
			recorded = entries
			return nil
		})

		res, err := f.app.RunTarget(context.Background(), "test", app.RunOptions{})
		require.NoError(t, err)
		assert.True(t, res.Success())
		assert.Equal(t, []string{"install", "test"}, res.Plan.Names())

		g := goldie.New(t)
		g.Assert(t, "run_success_stdout", f.stdout.Bytes())
		g.Assert(t, "run_success_stderr", f.stderr.Bytes())

		require.Len(t, recorded, 2)
		assert.Equal(t, "install", recorded[0].Target)
		assert.Equal(t, domain.StatusSucceeded, recorded[0].Status)
		assert.Equal(t, "test", recorded[1].Target)
		assert.Len(t, recorded[1].OutputDigest, 16)
		assert.False(t, recorded[1].Timestamp.IsZero())
	})
}

func TestApp_RunTarget_RecipeFailure(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		reg := registryOf(t,
			target("install", nil, "setup"),
			target("test", []string{"install"}, "run-tests"),
			target("lint", nil, "lint"),
			target("check", []string{"test", "lint"}),
		)

		f.loader.EXPECT().Load(".").Return(reg, nil)
		f.expectCommands(map[string]int{"lint": 1})

		var recorded []string
		f.journal.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(entries ...domain.JournalEntry) error {
			for _, e := range entries {
				recorded = append(recorded, e.Target+"="+string(e.Status))
			}
			return nil
		})

		res, err := f.app.RunTarget(context.Background(), "check", app.RunOptions{})
		require.NoError(t, err, "recipe failures are reported through the result")
		assert.Equal(t, domain.OutcomeFailed, res.Outcome)
		assert.Equal(t, domain.ExitRecipe, domain.ExitCode(res.Err()))
		assert.Equal(t, []string{"install=succeeded", "test=succeeded", "lint=failed"}, recorded)

		goldie.New(t).Assert(t, "run_failure_stderr", f.stderr.Bytes())
	})
}

func TestApp_RunTarget_ResolutionErrors(t *testing.T) {
	cyclic := registryOf(t,
		target("a", []string{"b"}, "a"),
		target("b", []string{"a"}, "b"),
	)
	simple := registryOf(t, target("a", nil, "a"))

	tests := []struct {
		name     string
		target   string
		registry *domain.Registry
		loadErr  error
		wantErr  error
	}{
		{name: "unknown target", target: "missing", registry: simple, wantErr: domain.ErrUnknownTarget},
		{name: "cycle", target: "a", registry: cyclic, wantErr: domain.ErrCyclicDependency},
		{name: "load failure", target: "a", loadErr: domain.ErrConfigNotFound, wantErr: domain.ErrConfigNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.loader.EXPECT().Load(".").Return(tt.registry, tt.loadErr)

			_, err := f.app.RunTarget(context.Background(), tt.target, app.RunOptions{})
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, domain.ExitUsage, domain.ExitCode(err))
			assert.Empty(t, f.stdout.String())
			assert.Empty(t, f.stderr.String(), "nothing is rendered before resolution succeeds")
		})
	}
}

func TestApp_RunTarget_JournalFailureIsOnlyLogged(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		f.loader.EXPECT().Load("rigfile.yaml").Return(registryOf(t, target("a", nil, "a")), nil)
		f.expectCommands(nil)
		f.journal.EXPECT().Put(gomock.Any()).Return(domain.ErrJournalWriteFailed)
		f.logger.EXPECT().Warn(gomock.Any()).Do(func(msg string) {
			assert.True(t, strings.HasPrefix(msg, "could not update run journal: "), msg)
		})

		res, err := f.app.RunTarget(context.Background(), "a", app.RunOptions{File: "rigfile.yaml"})
		require.NoError(t, err)
		assert.True(t, res.Success())
	})
}

func TestApp_RunTarget_EmptyRecipeIsRecorded(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(".").Return(registryOf(t, target("all", nil)), nil)

	var recorded []domain.JournalEntry
	f.journal.EXPECT().Put(gomock.Any()).DoAndReturn(func(entries ...domain.JournalEntry) error {
		recorded = entries
		return nil
	})

	res, err := f.app.RunTarget(context.Background(), "all", app.RunOptions{})
	require.NoError(t, err)
	assert.True(t, res.Success())

	require.Len(t, recorded, 1)
	assert.Equal(t, "all", recorded[0].Target)
	assert.Equal(t, domain.StatusSucceeded, recorded[0].Status)
}

func TestApp_RunTarget_NothingToRecord(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(".").Return(registryOf(t,
		target("install", nil, "setup"),
		target("test", []string{"install"}, "pytest"),
	), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Skipped targets are not journaled, so Put must not be called.
	res, err := f.app.RunTarget(ctx, "test", app.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeInterrupted, res.Outcome)
	require.Len(t, res.Results, 2)
	for _, r := range res.Results {
		assert.Equal(t, domain.StatusSkipped, r.Status, r.Target)
	}
}

func TestApp_Plan(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(".").Return(registryOf(t,
		target("install", nil, "setup"),
		target("test", []string{"install", "install"}, "run-tests"),
	), nil)

	plan, err := f.app.Plan("", "test")
	require.NoError(t, err)
	assert.Equal(t, []string{"install", "test"}, plan.Names())
}

func TestApp_Plan_NoTarget(t *testing.T) {
	f := newFixture(t)

	_, err := f.app.Plan("", "")
	require.ErrorIs(t, err, domain.ErrNoTargetSpecified)
}

func TestApp_List(t *testing.T) {
	f := newFixture(t)
	serve := target("serve", []string{"install"}, "api")
	serve.Mode = domain.ModeFanOutJoin
	serve.Description = "Run all services"
	serve.Phony = false

	f.loader.EXPECT().Load(".").Return(registryOf(t, serve, target("install", nil, "setup")), nil)

	infos, err := f.app.List("")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, app.TargetInfo{Name: "install", Phony: true, Prerequisites: []string{}, Actions: 1}, infos[0])
	assert.Equal(t, app.TargetInfo{
		Name:          "serve",
		Description:   "Run all services",
		Mode:          domain.ModeFanOutJoin,
		Prerequisites: []string{"install"},
		Actions:       1,
	}, infos[1])
}

func TestApp_Status(t *testing.T) {
	f := newFixture(t)
	entries := []domain.JournalEntry{{Target: "a", Status: domain.StatusSucceeded}}
	f.journal.EXPECT().All().Return(entries, nil)

	got, err := f.app.Status()
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestApp_Status_Error(t *testing.T) {
	f := newFixture(t)
	f.journal.EXPECT().All().Return(nil, errors.Join(domain.ErrJournalReadFailed, errors.New("bad json")))

	_, err := f.app.Status()
	require.ErrorIs(t, err, domain.ErrJournalReadFailed)
}
