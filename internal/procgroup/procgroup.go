// SPDX-License-Identifier: MIT

// Package procgroup places external commands in their own process group so
// the whole process tree can be terminated, not just the direct child.
package procgroup

import (
	"errors"
	"os/exec"
)

var ErrKillFailed = errors.New("kill operation failed")

// Set configures the command to start in a new process group.
// Mandatory for Terminate and ForceKill to act as group reapers.
func Set(cmd *exec.Cmd) {
	set(cmd)
}

// Terminate sends a graceful termination signal to the command's process
// group. Returns nil if the process has already exited.
func Terminate(cmd *exec.Cmd) error {
	return terminate(cmd)
}

// ForceKill sends an unconditional kill to the command's process group.
// Returns nil if the process has already exited.
func ForceKill(cmd *exec.Cmd) error {
	return forceKill(cmd)
}
