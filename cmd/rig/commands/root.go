// Package commands implements the CLI commands for rig.
package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.trai.ch/rig/internal/app"
	"go.trai.ch/rig/internal/build"
	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/core/ports"
	"go.trai.ch/rig/internal/engine/scheduler"
)

// CLI represents the command line interface for rig.
type CLI struct {
	app     Application
	logger  ports.Logger
	rootCmd *cobra.Command
	flags   globalFlags
}

type globalFlags struct {
	file  string
	json  bool
	jobs  int
	grace time.Duration
}

// Application represents the application logic interface.
type Application interface {
	RunTarget(ctx context.Context, name string, opts app.RunOptions) (domain.RunResult, error)
	Plan(file, name string) (domain.Plan, error)
	List(file string) ([]app.TargetInfo, error)
	Status() ([]domain.JournalEntry, error)
}

type jsonSwitch interface {
	SetJSON(enable bool)
}

// New creates a new CLI instance with the given app and logger.
func New(a Application, log ports.Logger) *CLI {
	rootCmd := &cobra.Command{
		Use:           "rig",
		Short:         "Run declarative task graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		logger:  log,
		rootCmd: rootCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&c.flags.file, "file", "f", "",
		"Declaration file or directory to search from (default: rigfile.yaml, rigfile.yml or rigfile.hcl)")
	pf.BoolVar(&c.flags.json, "json", false, "Write logs as JSON")
	pf.IntVarP(&c.flags.jobs, "jobs", "j", 1, "Number of independent targets to run at once")
	pf.DurationVar(&c.flags.grace, "grace", scheduler.DefaultGrace, "Time between SIGTERM and SIGKILL when stopping processes")

	rootCmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		if c.flags.jobs < 1 {
			return domain.Annotate(domain.ErrInvalidJobs, "jobs", c.flags.jobs)
		}
		if c.flags.json {
			if s, ok := c.logger.(jsonSwitch); ok {
				s.SetJSON(true)
			}
		}
		return nil
	}

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newPlanCmd())
	rootCmd.AddCommand(c.newListCmd())
	rootCmd.AddCommand(c.newStatusCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func (c *CLI) runOptions() app.RunOptions {
	return app.RunOptions{
		File:  c.flags.file,
		Jobs:  c.flags.jobs,
		Grace: c.flags.grace,
	}
}
