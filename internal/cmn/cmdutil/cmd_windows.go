//go:build windows

package cmdutil

import (
	"fmt"
	"os"
	"os/exec"
	"unsafe"

	"golang.org/x/sys/windows"
)

// SetupCommand is a no-op on Windows, which has no process groups in the
// Unix sense.
func SetupCommand(_ *exec.Cmd) {}

// KillProcessGroup terminates the process of cmd and its descendants. The
// signal is ignored.
func KillProcessGroup(cmd *exec.Cmd, _ os.Signal) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return killProcessTree(uint32(cmd.Process.Pid))
}

func killProcessTree(pid uint32) error {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return fmt.Errorf("failed to snapshot processes: %w", err)
	}
	defer func() { _ = windows.CloseHandle(snapshot) }()

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	var children []uint32
	for err = windows.Process32First(snapshot, &entry); err == nil; err = windows.Process32Next(snapshot, &entry) {
		if entry.ParentProcessID == pid {
			children = append(children, entry.ProcessID)
		}
	}
	for _, child := range children {
		_ = killProcessTree(child)
	}

	h, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, pid)
	if err != nil {
		return nil
	}
	defer func() { _ = windows.CloseHandle(h) }()
	return windows.TerminateProcess(h, 1)
}
