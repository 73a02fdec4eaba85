//go:build !windows

package actions

import (
	"os/exec"
	"syscall"
)

// detach starts cmd in its own session so launched applications outlive us.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
