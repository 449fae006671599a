//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

func setProcAttr(cmd *exec.Cmd) {}

func signalTerm(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	// Windows has no polite signal; Kill is the graceful phase here and
	// taskkill sweeps the tree in the forced phase.
	return cmd.Process.Kill()
}

func forceKill(pid int) error {
	if pid <= 0 {
		return nil
	}
	return exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(pid)).Run()
}
