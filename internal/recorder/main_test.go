// SPDX-License-Identifier: MIT

package recorder

import (
	"testing"

	"go.uber.org/goleak"
)

// Every supervisor and fake process goroutine must be reaped by Shutdown;
// a leak here means a capture could outlive the daemon.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
