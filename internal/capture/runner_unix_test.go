// SPDX-License-Identifier: MIT

//go:build unix

package capture

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStub writes an executable shell script standing in for the capture
// tool, so lifecycle behavior can be exercised without ffmpeg.
func writeStub(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stub.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func testSpec(t *testing.T) Spec {
	t.Helper()
	return Spec{
		StreamURL:  "http://example.test/s",
		Duration:   time.Second,
		OutputPath: filepath.Join(t.TempDir(), "out.mkv"),
	}
}

func TestWaitReportsNonZeroExit(t *testing.T) {
	r := NewFFmpegRunner(writeStub(t, "exit 3"))

	h, err := r.Start(context.Background(), testSpec(t))
	require.NoError(t, err)

	res := r.Wait(h)
	assert.Equal(t, 3, res.Code)
	assert.False(t, res.Signalled)
}

func TestWaitReportsCleanExit(t *testing.T) {
	r := NewFFmpegRunner(writeStub(t, "exit 0"))

	h, err := r.Start(context.Background(), testSpec(t))
	require.NoError(t, err)

	res := r.Wait(h)
	assert.Equal(t, 0, res.Code)
	assert.False(t, res.Signalled)
}

func TestKillTerminatesProcessGroup(t *testing.T) {
	r := NewFFmpegRunner(writeStub(t, "sleep 30"))

	h, err := r.Start(context.Background(), testSpec(t))
	require.NoError(t, err)

	done := make(chan ExitResult, 1)
	go func() { done <- r.Wait(h) }()

	// Give the shell a moment to exec before signalling the group.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, r.Kill(h))

	select {
	case res := <-done:
		assert.True(t, res.Signalled, "killed process must report a signal, got %+v", res)
		assert.Less(t, res.Duration, 10*time.Second)
	case <-time.After(10 * time.Second):
		t.Fatal("process not reaped after kill")
	}

	// A second kill on the exited process is a no-op.
	assert.NoError(t, r.Kill(h))
}

func TestContextCancellationKillsProcess(t *testing.T) {
	r := NewFFmpegRunner(writeStub(t, "sleep 30"))

	ctx, cancel := context.WithCancel(context.Background())
	h, err := r.Start(ctx, testSpec(t))
	require.NoError(t, err)

	cancel()

	done := make(chan ExitResult, 1)
	go func() { done <- r.Wait(h) }()
	select {
	case res := <-done:
		assert.True(t, res.Signalled)
	case <-time.After(10 * time.Second):
		t.Fatal("process survived context cancellation")
	}
}
