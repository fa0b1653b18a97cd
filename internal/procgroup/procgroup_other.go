// SPDX-License-Identifier: MIT

//go:build !unix

package procgroup

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// set is a no-op on platforms without process groups.
func set(cmd *exec.Cmd) {}

func terminate(cmd *exec.Cmd) error {
	return kill(cmd)
}

func forceKill(cmd *exec.Cmd) error {
	return kill(cmd)
}

func kill(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrKillFailed, err)
	}
	return nil
}
