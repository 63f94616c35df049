// Package main is the entry point for the rig task runner.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/rig/cmd/rig/commands"
	"go.trai.ch/rig/internal/app"
	"go.trai.ch/rig/internal/core/domain"
	_ "go.trai.ch/rig/internal/wiring"
)

// ComponentProvider is a function that returns the application components.
type ComponentProvider func(context.Context) (*app.Components, func(), error)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, func(ctx context.Context) (*app.Components, func(), error) {
		c, _, err := graft.ExecuteFor[*app.Components](ctx)
		return c, func() {}, err
	}))
}

func run(
	ctx context.Context,
	args []string,
	stdout, stderr io.Writer,
	provider ComponentProvider,
	opts ...func(*app.App),
) int {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	components, cleanup, err := provider(ctx)
	if err != nil {
		// The logger may not exist yet.
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return domain.ExitUsage
	}
	defer cleanup()

	if components.Telemetry != nil {
		defer func() {
			if err := components.Telemetry.Close(); err != nil {
				components.Logger.Warn(fmt.Sprintf("could not flush telemetry: %v", err))
			}
		}()
	}

	components.App.WithOutput(stdout, stderr)
	for _, opt := range opts {
		opt(components.App)
	}

	cli := commands.New(components.App, components.Logger)
	cli.SetArgs(args)
	cli.SetOutput(stdout, stderr)

	if err := cli.Execute(ctx); err != nil {
		// The renderer has already reported failed and interrupted targets.
		if errors.Is(err, domain.ErrActionFailed) || errors.Is(err, domain.ErrInterrupted) {
			return domain.ExitCode(err)
		}
		components.Logger.Error(err)
		return domain.ExitCode(err)
	}
	return domain.ExitSuccess
}
