// SPDX-License-Identifier: MIT

//go:build unix

package capture

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// classifyExit translates a Wait error and process state into an exit code or
// the terminating signal.
func classifyExit(err error, ps *os.ProcessState) (code int, signalled bool, signal string) {
	if err == nil {
		return 0, false, ""
	}

	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return -1, true, ws.Signal().String()
		}
		return ee.ExitCode(), false, ""
	}

	if ps != nil {
		if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return -1, true, ws.Signal().String()
		}
		return ps.ExitCode(), false, ""
	}

	// Wait failed without an exit status (e.g. already reaped).
	return -1, false, ""
}
