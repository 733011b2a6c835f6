//go:build !unix

package zkclient

import (
	"os/exec"
	"time"
)

func setProcessGroup(cmd *exec.Cmd, grace time.Duration) func() {
	return func() {}
}
