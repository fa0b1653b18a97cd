// SPDX-License-Identifier: MIT

package capture

import "fmt"

// LaunchError reports that the external capture tool could not be spawned
// (missing binary, permission denied, invalid path).
type LaunchError struct {
	Bin string
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Bin, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }
