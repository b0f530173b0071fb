//go:build !windows

package detector

import (
	"errors"
	"syscall"
)

// PIDAlive returns true if a process with the given pid exists. Signal zero
// probes the process table without delivering anything; EPERM still means
// the pid is taken.
func PIDAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}

// Terminate asks the process to shut down with SIGTERM. ESRCH is reported
// as-is so callers can treat "already gone" as success.
func Terminate(pid int) error {
	if pid <= 0 {
		return syscall.ESRCH
	}
	return syscall.Kill(pid, syscall.SIGTERM)
}

// AlreadyGone reports whether a Terminate error means the process no longer
// exists.
func AlreadyGone(err error) bool {
	return errors.Is(err, syscall.ESRCH)
}
