// Package app implements the application layer for rig.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.trai.ch/rig/internal/adapters/linear" //nolint:depguard // Renderer is chosen by the app layer
	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/core/ports"
	"go.trai.ch/rig/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	scheduler    *scheduler.Scheduler
	logger       ports.Logger
	journal      ports.Journal

	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	sched *scheduler.Scheduler,
	log ports.Logger,
	journal ports.Journal,
) *App {
	return &App{
		configLoader: loader,
		scheduler:    sched,
		logger:       log,
		journal:      journal,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		now:          time.Now,
	}
}

// WithOutput redirects the run output. Used by tests and embedding callers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// RunOptions configuration for the RunTarget method.
type RunOptions struct {
	// File is the declaration file or the directory to search from. Empty means ".".
	File string
	// Jobs is the number of targets that may run at once.
	Jobs int
	// Grace is the time between SIGTERM and SIGKILL when stopping processes.
	Grace time.Duration
}

// RunTarget loads the declarations, resolves name and executes its plan.
//
// The returned error covers unknown targets, cycles and load failures only.
// Recipe failures and interrupts are reported through RunResult.Outcome.
func (a *App) RunTarget(ctx context.Context, name string, opts RunOptions) (domain.RunResult, error) {
	plan, err := a.Plan(opts.File, name)
	if err != nil {
		return domain.RunResult{}, err
	}

	renderer := linear.NewRenderer(a.stdout, a.stderr)
	if err := renderer.Start(ctx); err != nil {
		return domain.RunResult{}, err
	}

	renderer.OnPlanEmit(plan.Names(), plan.Requested())
	result := a.scheduler.Run(ctx, plan, renderer, scheduler.Options{
		Jobs:  opts.Jobs,
		Grace: opts.Grace,
	})
	_ = renderer.Stop()

	a.record(result)
	return result, nil
}

// record stores the outcome of every target that ran. Journal failures are
// logged and never change the run's outcome.
func (a *App) record(result domain.RunResult) {
	at := a.now()
	entries := make([]domain.JournalEntry, 0, len(result.Results))
	for _, res := range result.Results {
		if res.Status == domain.StatusSucceeded || res.Status == domain.StatusFailed {
			entries = append(entries, domain.NewJournalEntry(res, at))
		}
	}
	if len(entries) == 0 {
		return
	}
	if err := a.journal.Put(entries...); err != nil {
		a.logger.Warn(fmt.Sprintf("could not update run journal: %v", err))
	}
}

// Plan loads the declarations and resolves the plan for name without running it.
func (a *App) Plan(file, name string) (domain.Plan, error) {
	if name == "" {
		return domain.Plan{}, domain.ErrNoTargetSpecified
	}

	registry, err := a.load(file)
	if err != nil {
		return domain.Plan{}, err
	}

	plan, err := registry.Resolve(name)
	if err != nil {
		return domain.Plan{}, domain.Annotate(zerr.Wrap(err, "failed to resolve target"), "target", name)
	}
	return plan, nil
}

// TargetInfo describes a declared target for listings.
type TargetInfo struct {
	Name          string
	Description   string
	Phony         bool
	Mode          domain.ConcurrencyMode
	Prerequisites []string
	Actions       int
}

// List returns every declared target sorted by name.
func (a *App) List(file string) ([]TargetInfo, error) {
	registry, err := a.load(file)
	if err != nil {
		return nil, err
	}

	names := registry.Names()
	infos := make([]TargetInfo, 0, len(names))
	for _, name := range names {
		t, err := registry.Lookup(name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, TargetInfo{
			Name:          name,
			Description:   t.Description,
			Phony:         t.Phony,
			Mode:          t.Mode,
			Prerequisites: domain.Strings(t.Prerequisites),
			Actions:       len(t.Actions),
		})
	}
	return infos, nil
}

// Status returns the last recorded outcome of every target.
func (a *App) Status() ([]domain.JournalEntry, error) {
	entries, err := a.journal.All()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read run journal")
	}
	return entries, nil
}

func (a *App) load(file string) (*domain.Registry, error) {
	if file == "" {
		file = "."
	}
	registry, err := a.configLoader.Load(file)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load declarations")
	}
	return registry, nil
}
