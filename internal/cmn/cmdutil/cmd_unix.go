//go:build !windows

package cmdutil

import (
	"os"
	"os/exec"
	"syscall"
)

// SetupCommand starts cmd in a new process group so signals can be
// delivered to the program and everything it spawns.
func SetupCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    0,
	}
}

// KillProcessGroup sends sig to the process group of cmd.
func KillProcessGroup(cmd *exec.Cmd, sig os.Signal) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	s, ok := sig.(syscall.Signal)
	if !ok {
		s = syscall.SIGKILL
	}
	return syscall.Kill(-cmd.Process.Pid, s)
}
