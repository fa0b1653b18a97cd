// SPDX-License-Identifier: MIT

// Package capture wraps invocation of the external capture tool. The tool is
// treated as an opaque subprocess: start it, wait for it, kill it, interpret
// its exit status. Everything else is the supervisor's problem.
package capture

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamrec/streamrec/internal/log"
	"github.com/streamrec/streamrec/internal/procgroup"
)

// hardKillDelay is how long Kill waits for a graceful exit before escalating
// to an unconditional group kill.
const hardKillDelay = 5 * time.Second

// Spec describes one capture invocation.
type Spec struct {
	StreamURL  string
	UserAgent  string
	Duration   time.Duration
	OutputPath string
}

// ExitResult is the translated exit status of a capture process.
type ExitResult struct {
	Code      int
	Signalled bool
	Signal    string
	Duration  time.Duration
}

// Handle is an opaque reference to a running capture process.
type Handle string

// Runner starts, reaps, and terminates capture processes.
type Runner interface {
	Start(ctx context.Context, spec Spec) (Handle, error)
	// Wait blocks until the process exits; it never busy-polls.
	Wait(h Handle) ExitResult
	// Kill requests termination of the whole process tree. Idempotent if the
	// process has already exited.
	Kill(h Handle) error
}

type proc struct {
	cmd     *exec.Cmd
	started time.Time
	done    chan struct{}
	result  ExitResult
}

// FFmpegRunner invokes ffmpeg for reconnect-tolerant stream capture.
type FFmpegRunner struct {
	bin    string
	logger zerolog.Logger

	mu    sync.Mutex
	procs map[Handle]*proc
}

// NewFFmpegRunner creates a runner using the given ffmpeg binary.
func NewFFmpegRunner(bin string) *FFmpegRunner {
	return &FFmpegRunner{
		bin:    bin,
		logger: log.WithComponent("capture"),
		procs:  make(map[Handle]*proc),
	}
}

// buildArgs composes the ffmpeg invocation for best-effort live ingestion:
// persistent connections, automatic reconnect on transient drops, corrupt
// packets discarded, timestamps regenerated, codec copy. The -t self-limit is
// advisory only; the supervisor enforces its own deadline.
func buildArgs(spec Spec) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "10",
	}
	if spec.UserAgent != "" {
		args = append(args, "-user_agent", spec.UserAgent)
	}
	args = append(args,
		"-i", spec.StreamURL,
		"-t", strconv.Itoa(int(spec.Duration.Seconds())),
		"-c", "copy",
		"-fflags", "+discardcorrupt+genpts",
		"-y", spec.OutputPath,
	)
	return args
}

// Start spawns the capture process in its own process group.
func (r *FFmpegRunner) Start(ctx context.Context, spec Spec) (Handle, error) {
	cmd := exec.CommandContext(ctx, r.bin, buildArgs(spec)...) // #nosec G204 -- binary comes from configuration
	cmd.Stdout = nil
	cmd.Stderr = nil
	procgroup.Set(cmd)

	if err := cmd.Start(); err != nil {
		return "", &LaunchError{Bin: r.bin, Err: err}
	}

	p := &proc{
		cmd:     cmd,
		started: time.Now(),
		done:    make(chan struct{}),
	}
	handle := Handle(fmt.Sprintf("cap-%d-%d", cmd.Process.Pid, p.started.UnixNano()))

	r.mu.Lock()
	r.procs[handle] = p
	r.mu.Unlock()

	go reap(p)

	logger := r.logger
	if jobID := log.JobIDFromContext(ctx); jobID != "" {
		logger = logger.With().Str(log.FieldJobID, jobID).Logger()
	}
	logger.Info().
		Str(log.FieldHandle, string(handle)).
		Int(log.FieldPID, cmd.Process.Pid).
		Str(log.FieldStreamURL, spec.StreamURL).
		Str(log.FieldOutputPath, spec.OutputPath).
		Dur("duration", spec.Duration).
		Msg("capture process started")
	return handle, nil
}

// reap waits for the process exactly once and caches the translated result.
func reap(p *proc) {
	err := p.cmd.Wait()
	code, signalled, signal := classifyExit(err, p.cmd.ProcessState)
	p.result = ExitResult{
		Code:      code,
		Signalled: signalled,
		Signal:    signal,
		Duration:  time.Since(p.started),
	}
	close(p.done)
}

// Wait blocks until the process has been reaped, then forgets the handle.
func (r *FFmpegRunner) Wait(h Handle) ExitResult {
	r.mu.Lock()
	p, ok := r.procs[h]
	r.mu.Unlock()
	if !ok {
		return ExitResult{Code: -1}
	}

	<-p.done

	r.mu.Lock()
	delete(r.procs, h)
	r.mu.Unlock()
	return p.result
}

// Kill terminates the process group: graceful signal first, unconditional
// kill if the tool has not exited after hardKillDelay.
func (r *FFmpegRunner) Kill(h Handle) error {
	r.mu.Lock()
	p, ok := r.procs[h]
	r.mu.Unlock()
	if !ok {
		return nil
	}

	select {
	case <-p.done:
		return nil
	default:
	}

	if err := procgroup.Terminate(p.cmd); err != nil {
		return fmt.Errorf("terminate capture process: %w", err)
	}

	select {
	case <-p.done:
	case <-time.After(hardKillDelay):
		r.logger.Warn().
			Str(log.FieldHandle, string(h)).
			Int(log.FieldPID, p.cmd.Process.Pid).
			Msg("capture process ignored termination signal, force killing group")
		if err := procgroup.ForceKill(p.cmd); err != nil {
			return fmt.Errorf("force kill capture process: %w", err)
		}
	}
	return nil
}

var _ Runner = (*FFmpegRunner)(nil)
