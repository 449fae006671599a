//go:build unix

package process

import (
	"os/exec"
	"syscall"
)

// setProcAttr puts the child in its own process group so a forced kill
// reaches the whole tree.
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func signalTerm(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Signal(syscall.SIGTERM)
}

func forceKill(pid int) error {
	if pid <= 0 {
		return nil
	}
	// Negative pid targets the process group; fall back to the single
	// process if the group is already gone.
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
		return syscall.Kill(pid, syscall.SIGKILL)
	}
	return nil
}
