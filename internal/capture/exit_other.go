// SPDX-License-Identifier: MIT

//go:build !unix

package capture

import (
	"errors"
	"os"
	"os/exec"
)

// classifyExit translates a Wait error into an exit code. Signal detail is
// unavailable off unix.
func classifyExit(err error, ps *os.ProcessState) (code int, signalled bool, signal string) {
	if err == nil {
		return 0, false, ""
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode(), false, ""
	}
	if ps != nil {
		return ps.ExitCode(), false, ""
	}
	return -1, false, ""
}
