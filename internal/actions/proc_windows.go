//go:build windows

package actions

import "os/exec"

func detach(cmd *exec.Cmd) {
	// Processes started through "cmd /C start" are already independent.
}
