//go:build windows

package shell

import (
	"os/exec"
	"strconv"
)

func configureProcessGroup(_ *exec.Cmd) {
	// Windows does not support Unix Setpgid process groups.
}

func signalGroup(cmd *exec.Cmd, kill bool) error {
	if !kill {
		// There is no SIGTERM; ask taskkill to close the whole tree politely.
		pid := strconv.Itoa(cmd.Process.Pid)
		return exec.Command("taskkill", "/T", "/PID", pid).Run()
	}

	pid := strconv.Itoa(cmd.Process.Pid)
	if err := exec.Command("taskkill", "/T", "/F", "/PID", pid).Run(); err == nil {
		return nil
	}
	return cmd.Process.Kill()
}

func exitStatus(exitErr *exec.ExitError) int {
	return exitErr.ExitCode()
}
