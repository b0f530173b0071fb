//go:build !windows

package provider

import (
	"os/exec"
	"syscall"
)

// detach puts the child in its own process group so signals aimed at the
// short-lived CLI do not propagate to it.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
