// SPDX-License-Identifier: MIT

package recorder

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/streamrec/streamrec/internal/capture"
	"github.com/streamrec/streamrec/internal/catalog"
	"github.com/streamrec/streamrec/internal/log"
	"github.com/streamrec/streamrec/internal/metrics"
)

const janitorInterval = 10 * time.Minute

// Deps holds the collaborators and tunables of a Recorder.
type Deps struct {
	Catalog   *catalog.Catalog
	Runner    capture.Runner
	OutputDir string
	UserAgent string        // fallback user agent for channels without one
	KillGrace time.Duration // slack past the requested duration before force kill
	Retention time.Duration // how long terminal jobs stay queryable
	Clock     func() time.Time
}

// Recorder is the public orchestration surface: submit, cancel, query, list.
// It never exposes the capture adapter or raw process handles.
type Recorder struct {
	deps     Deps
	registry *Registry
	logger   zerolog.Logger
	events   chan Completion

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Recorder. Call Start to enable background eviction and
// Shutdown to reap running captures.
func New(deps Deps) *Recorder {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.KillGrace <= 0 {
		deps.KillGrace = 15 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Recorder{
		deps:     deps,
		registry: NewRegistry(),
		logger:   log.WithComponent("recorder"),
		events:   make(chan Completion, 64),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Events delivers one Completion per finished job. Slow consumers lose
// events rather than blocking supervisors.
func (r *Recorder) Events() <-chan Completion {
	return r.events
}

// Start launches the retention janitor.
func (r *Recorder) Start() {
	if r.deps.Retention <= 0 {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(janitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				if n := r.registry.Sweep(r.deps.Clock(), r.deps.Retention); n > 0 {
					r.logger.Debug().Int("evicted", n).Msg("evicted finished jobs")
				}
			}
		}
	}()
}

// Shutdown kills all running captures and waits for their supervisors, or
// gives up when ctx expires.
func (r *Recorder) Shutdown(ctx context.Context) error {
	r.cancel()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit admits a capture job for the channel and returns immediately; the
// capture runs in its own goroutine. See SubmitNamed for the error contract.
func (r *Recorder) Submit(channelID string, durationSeconds int) (Job, error) {
	return r.SubmitNamed(channelID, "", durationSeconds)
}

// SubmitNamed is Submit with a human-readable title folded into the output
// filename. Errors: ErrInvalidDuration, ErrChannelNotFound, ErrAlreadyRunning.
func (r *Recorder) SubmitNamed(channelID, title string, durationSeconds int) (Job, error) {
	if durationSeconds <= 0 {
		metrics.IncAdmissionRejected("invalid_duration")
		return Job{}, ErrInvalidDuration
	}
	ch, ok := r.deps.Catalog.Lookup(channelID)
	if !ok {
		metrics.IncAdmissionRejected("channel_not_found")
		return Job{}, fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
	}

	job := Job{
		ID:         uuid.NewString(),
		ChannelID:  channelID,
		Title:      title,
		OutputPath: r.outputPath(channelID, title),
		Duration:   durationSeconds,
		State:      StatePending,
	}

	cancelCh, admitted := r.registry.TryAdmit(channelID, job)
	if !admitted {
		metrics.IncAdmissionRejected("already_running")
		return Job{}, fmt.Errorf("%w: %s", ErrAlreadyRunning, channelID)
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.supervise(job, ch, cancelCh)
	}()

	r.logger.Info().
		Str(log.FieldJobID, job.ID).
		Str(log.FieldChannelID, channelID).
		Int("duration_seconds", durationSeconds).
		Str(log.FieldOutputPath, job.OutputPath).
		Msg("job admitted")
	return job, nil
}

// Cancel requests termination of the channel's active job. The job reaches
// the Cancelled state asynchronously, once its supervisor has reaped the
// process.
func (r *Recorder) Cancel(channelID string) error {
	if !r.registry.RequestCancel(channelID) {
		return fmt.Errorf("%w: %s", ErrNotRunning, channelID)
	}
	r.logger.Info().Str(log.FieldChannelID, channelID).Msg("cancellation requested")
	return nil
}

// Status returns the channel's most recent job.
func (r *Recorder) Status(channelID string) (Job, bool) {
	return r.registry.Get(channelID)
}

// ListActive returns all Pending and Running jobs.
func (r *Recorder) ListActive() []Job {
	return r.registry.ListActive()
}

// userAgentFor resolves the user agent: channel override, then catalog
// default, then recorder default.
func (r *Recorder) userAgentFor(ch catalog.Channel) string {
	if ch.UserAgent != "" {
		return ch.UserAgent
	}
	if ua := r.deps.Catalog.Settings().UserAgent; ua != "" {
		return ua
	}
	return r.deps.UserAgent
}

// outputPath derives a deterministic destination from channel id, optional
// title, and start time.
func (r *Recorder) outputPath(channelID, title string) string {
	stamp := r.deps.Clock().Format("20060102_150405")
	name := channelID + "-" + stamp + ".mkv"
	if slug := sanitizeTitle(title); slug != "" {
		name = channelID + "-" + slug + "-" + stamp + ".mkv"
	}
	return filepath.Join(r.deps.OutputDir, name)
}

func (r *Recorder) emit(job Job) {
	select {
	case r.events <- Completion{Job: job}:
	default:
		r.logger.Debug().Str(log.FieldJobID, job.ID).Msg("completion event dropped, no consumer")
	}
}
