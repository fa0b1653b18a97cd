// SPDX-License-Identifier: MIT

package capture

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildArgs(t *testing.T) {
	spec := Spec{
		StreamURL:  "http://example.test/stream.m3u8",
		UserAgent:  "Mozilla/5.0",
		Duration:   90 * time.Second,
		OutputPath: "/recordings/tf1-20250101_200000.mkv",
	}

	args := buildArgs(spec)

	assert.Contains(t, args, "-reconnect")
	assert.Contains(t, args, "-user_agent")

	// -t must carry the requested duration in whole seconds.
	for i, a := range args {
		if a == "-t" {
			require.Less(t, i+1, len(args))
			assert.Equal(t, "90", args[i+1])
		}
		if a == "-user_agent" {
			require.Less(t, i+1, len(args))
			assert.Equal(t, "Mozilla/5.0", args[i+1])
		}
	}

	// Output path is the final argument.
	assert.Equal(t, spec.OutputPath, args[len(args)-1])
}

func TestBuildArgsOmitsEmptyUserAgent(t *testing.T) {
	args := buildArgs(Spec{
		StreamURL:  "http://example.test/s",
		Duration:   time.Second,
		OutputPath: "/tmp/out.mkv",
	})
	assert.NotContains(t, args, "-user_agent")
}

func TestStartMissingBinary(t *testing.T) {
	r := NewFFmpegRunner("/nonexistent/ffmpeg-binary")

	_, err := r.Start(context.Background(), Spec{
		StreamURL:  "http://example.test/s",
		Duration:   time.Second,
		OutputPath: t.TempDir() + "/out.mkv",
	})
	require.Error(t, err)

	var le *LaunchError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "/nonexistent/ffmpeg-binary", le.Bin)
}

func TestKillUnknownHandleIsIdempotent(t *testing.T) {
	r := NewFFmpegRunner("ffmpeg")
	assert.NoError(t, r.Kill(Handle("never-started")))
}
