//go:build windows

package provider

import (
	"os/exec"
	"syscall"
)

const createNewProcessGroup = 0x00000200

// detach gives the child its own console process group so Ctrl+C sent to the
// CLI does not reach it.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNewProcessGroup}
}
