// Package shell provides an os/exec based executor for recipe actions.
package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/rig/internal/core/ports"
	"go.trai.ch/zerr"
)

// pipeDrainDelay bounds how long Wait keeps copying output after the process
// exited, for children that inherited the pipes and outlive their parent.
const pipeDrainDelay = 2 * time.Second

// Executor implements ports.Executor using os/exec. Every process is started
// in its own process group so that signals reach everything it forks.
type Executor struct{}

// NewExecutor creates a new Executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Start launches spec.Argv and returns a handle to the running process.
func (e *Executor) Start(ctx context.Context, spec ports.ProcessSpec) (ports.Process, error) {
	if len(spec.Argv) == 0 {
		return nil, zerr.Wrap(domain.ErrInvalidAction, "empty command")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := spec.Argv[0]
	args := spec.Argv[1:]

	cmdEnv := resolveEnvironment(os.Environ(), spec.Env)

	// Resolve the executable against the PATH the child will see.
	executable := name
	if !filepath.IsAbs(name) && !strings.ContainsRune(name, filepath.Separator) {
		if lp, err := lookPath(name, cmdEnv); err == nil {
			executable = lp
		}
	}

	cmd := exec.Command(executable, args...) //nolint:gosec // user provided command
	if len(cmd.Args) > 0 {
		cmd.Args[0] = name
	}
	cmd.Dir = spec.Dir
	cmd.Env = cmdEnv
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr
	cmd.WaitDelay = pipeDrainDelay
	configureProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, zerr.With(fmt.Errorf("%w: %w", domain.ErrSpawnFailed, err), "command", name)
	}

	p := &process{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go p.wait()

	return p, nil
}

type process struct {
	cmd  *exec.Cmd
	done chan struct{}
	code int
	err  error
}

func (p *process) wait() {
	defer close(p.done)

	err := p.cmd.Wait()
	if err == nil || errors.Is(err, exec.ErrWaitDelay) {
		p.code = 0
		return
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		p.code = exitStatus(exitErr)
		return
	}

	p.code = -1
	p.err = zerr.Wrap(err, "failed to wait for process")
}

func (p *process) Pid() int {
	return p.cmd.Process.Pid
}

func (p *process) Done() <-chan struct{} {
	return p.done
}

func (p *process) Wait() (int, error) {
	<-p.done
	return p.code, p.err
}

func (p *process) Terminate() error {
	return p.signal(false)
}

func (p *process) Kill() error {
	return p.signal(true)
}

func (p *process) signal(kill bool) error {
	select {
	case <-p.done:
		return nil
	default:
	}
	if err := signalGroup(p.cmd, kill); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return zerr.With(zerr.Wrap(err, "failed to signal process"), "pid", p.cmd.Process.Pid)
	}
	return nil
}

// resolveEnvironment applies overrides on top of the host environment.
// The result is sorted by key.
func resolveEnvironment(sysEnv []string, overrides map[string]string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(overrides))
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if ok {
			envMap[k] = v
		}
	}

	for k, v := range overrides {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// lookPath searches for an executable in the directories named by the PATH environment variable.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		if err := findExecutable(path); err == nil {
			return path, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
