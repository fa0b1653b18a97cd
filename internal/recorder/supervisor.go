// SPDX-License-Identifier: MIT

package recorder

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamrec/streamrec/internal/capture"
	"github.com/streamrec/streamrec/internal/catalog"
	"github.com/streamrec/streamrec/internal/log"
	"github.com/streamrec/streamrec/internal/metrics"
)

// supervise owns one job from admission to its terminal state. It is the only
// writer of the job's registry slot while the job is active, and it holds no
// registry lock while blocked on the process.
func (r *Recorder) supervise(job Job, ch catalog.Channel, cancelCh <-chan struct{}) {
	logger := r.logger.With().
		Str(log.FieldJobID, job.ID).
		Str(log.FieldChannelID, job.ChannelID).
		Logger()

	// 1. Prepare output directory. Failure is terminal; nothing is spawned.
	if err := os.MkdirAll(filepath.Dir(job.OutputPath), 0o755); err != nil {
		perr := &PathError{Path: filepath.Dir(job.OutputPath), Err: err}
		r.finishUnspawned(job, CausePathError, perr.Error(), logger)
		return
	}

	duration := time.Duration(job.Duration) * time.Second

	// 2. Pending → Running.
	now := r.deps.Clock()
	job.State = StateRunning
	job.StartedAt = &now

	handle, err := r.deps.Runner.Start(log.ContextWithJobID(r.ctx, job.ID), capture.Spec{
		StreamURL:  ch.StreamURL,
		UserAgent:  r.userAgentFor(ch),
		Duration:   duration,
		OutputPath: job.OutputPath,
	})
	if err != nil {
		r.finishUnspawned(job, CauseLaunchFailed, err.Error(), logger)
		return
	}
	job.handle = handle
	r.registry.Update(job.ChannelID, job)
	metrics.IncCaptureStarted()
	logger.Info().
		Str(log.FieldOldState, string(StatePending)).
		Str(log.FieldNewState, string(StateRunning)).
		Msg("capture running")

	// 3. Race natural exit against cancellation and the hard deadline. The
	// tool's own -t limit is advisory; the deadline guarantees we reclaim the
	// process even if the tool hangs.
	waitCh := make(chan capture.ExitResult, 1)
	go func() { waitCh <- r.deps.Runner.Wait(handle) }()

	deadline := time.NewTimer(duration + r.deps.KillGrace)
	defer deadline.Stop()

	var res capture.ExitResult
	var state State
	var cause Cause
	var message string

	select {
	case res = <-waitCh:
		if cancelRequested(cancelCh) {
			state, cause, message = StateCancelled, CauseCancelled, "cancelled by request"
		} else {
			state, cause, message = classifyResult(res)
		}

	case <-cancelCh:
		if err := r.deps.Runner.Kill(handle); err != nil {
			logger.Warn().Err(err).Msg("kill after cancel failed")
		}
		res = <-waitCh
		state, cause, message = StateCancelled, CauseCancelled, "cancelled by request"

	case <-deadline.C:
		logger.Warn().
			Dur("deadline", duration+r.deps.KillGrace).
			Msg("capture exceeded deadline, killing process")
		if err := r.deps.Runner.Kill(handle); err != nil {
			logger.Error().Err(err).Msg("kill after deadline failed")
		}
		res = <-waitCh
		if cancelRequested(cancelCh) {
			state, cause, message = StateCancelled, CauseCancelled, "cancelled by request"
		} else {
			state, cause, message = StateFailed, CauseDeadlineExceeded, "capture did not finish within duration plus grace period"
		}
	}

	// 4. Commit the terminal record.
	ended := r.deps.Clock()
	job.State = state
	job.EndedAt = &ended
	job.ExitInfo = &ExitInfo{
		Code:      res.Code,
		Signalled: res.Signalled,
		Signal:    res.Signal,
		Cause:     cause,
		Message:   message,
	}
	job.handle = ""
	r.registry.Update(job.ChannelID, job)
	metrics.ObserveCaptureCompleted(string(state), string(cause), res.Duration)
	r.emit(job)

	evt := logger.Info()
	if state == StateFailed {
		evt = logger.Warn()
	}
	evt.
		Str(log.FieldOldState, string(StateRunning)).
		Str(log.FieldNewState, string(state)).
		Str(log.FieldCause, string(cause)).
		Int(log.FieldExitCode, res.Code).
		Str(log.FieldSignal, res.Signal).
		Dur("elapsed", res.Duration).
		Msg("capture finished")
}

// finishUnspawned retires a job that failed before its process existed. The
// job skips Running entirely; only EndedAt is recorded.
func (r *Recorder) finishUnspawned(job Job, cause Cause, message string, logger zerolog.Logger) {
	ended := r.deps.Clock()
	job.State = StateFailed
	job.StartedAt = nil
	job.EndedAt = &ended
	job.ExitInfo = &ExitInfo{Code: -1, Cause: cause, Message: message}
	r.registry.Update(job.ChannelID, job)
	metrics.ObserveCaptureNeverStarted(string(StateFailed), string(cause))
	r.emit(job)

	logger.Warn().
		Str(log.FieldNewState, string(StateFailed)).
		Str(log.FieldCause, string(cause)).
		Msg(message)
}

// classifyResult maps a process exit onto a terminal state. A clean exit is
// Succeeded even when it arrives early; duration-shortfall detection is the
// caller's policy.
func classifyResult(res capture.ExitResult) (State, Cause, string) {
	switch {
	case res.Signalled:
		return StateFailed, CauseKilled, "capture process terminated by signal " + res.Signal
	case res.Code == 0:
		return StateSucceeded, "", "clean exit"
	default:
		return StateFailed, CauseProcessError, "capture process exited with nonzero status"
	}
}

func cancelRequested(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
