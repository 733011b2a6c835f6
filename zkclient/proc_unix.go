//go:build unix

package zkclient

import (
	"errors"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// setProcessGroup starts the child in its own process group, so that a
// ctrl-c on the harness is handled by the harness. Cancellation sends
// SIGTERM to the group and SIGKILL after grace. The returned func must
// be called once the command returned; it kills what is left of a
// cancelled group.
func setProcessGroup(cmd *exec.Cmd, grace time.Duration) func() {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var (
		mu        sync.Mutex
		cancelled bool
		kill      *time.Timer
	)
	cmd.Cancel = func() error {
		mu.Lock()
		defer mu.Unlock()
		cancelled = true
		kill = time.AfterFunc(grace, func() {
			_ = signalGroup(cmd, unix.SIGKILL)
		})
		return signalGroup(cmd, unix.SIGTERM)
	}
	return func() {
		mu.Lock()
		defer mu.Unlock()
		if !cancelled {
			return
		}
		kill.Stop()
		_ = signalGroup(cmd, unix.SIGKILL)
	}
}

func signalGroup(cmd *exec.Cmd, sig unix.Signal) error {
	if cmd.Process == nil {
		return nil
	}
	err := unix.Kill(-cmd.Process.Pid, sig)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}
