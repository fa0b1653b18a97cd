// SPDX-License-Identifier: MIT

package recorder

import (
	"errors"
	"fmt"
)

// Admission errors, returned synchronously by Submit and Cancel. No side
// effects occur when one of these is returned.
var (
	ErrAlreadyRunning  = errors.New("channel already has an active job")
	ErrChannelNotFound = errors.New("channel not found")
	ErrInvalidDuration = errors.New("duration must be a positive number of seconds")
	ErrNotRunning      = errors.New("channel has no active job")
)

// PathError reports that the output directory could not be prepared. The job
// fails before any process is spawned.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("prepare output path %s: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }
