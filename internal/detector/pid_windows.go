//go:build windows

package detector

import (
	"errors"
	"os"
	"syscall"
)

const (
	stillActive = 259 // STILL_ACTIVE exit code

	// PROCESS_QUERY_LIMITED_INFORMATION; not exported by the stdlib
	// syscall package.
	processQueryLimitedInformation = 0x1000
)

// PIDAlive returns true if a process with the given pid exists using a
// non-destructive OS handle check.
func PIDAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	h, err := syscall.OpenProcess(processQueryLimitedInformation, false, uint32(pid))
	if err != nil {
		return false
	}
	defer func() { _ = syscall.CloseHandle(h) }()
	var code uint32
	if err := syscall.GetExitCodeProcess(h, &code); err != nil {
		return false
	}
	return code == stillActive
}

// Terminate kills the process. Windows has no SIGTERM equivalent for
// unrelated processes, so this maps to TerminateProcess via os.Process.Kill.
func Terminate(pid int) error {
	if !PIDAlive(pid) {
		return errGone
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

var errGone = errors.New("process does not exist")

// AlreadyGone reports whether a Terminate error means the process no longer
// exists.
func AlreadyGone(err error) bool {
	return errors.Is(err, errGone)
}
