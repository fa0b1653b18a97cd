// SPDX-License-Identifier: MIT

package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamrec/streamrec/internal/log"
	"github.com/streamrec/streamrec/internal/metrics"
	"github.com/streamrec/streamrec/internal/recorder"
)

// dueWindow is how far either side of an entry's start time the scheduler
// still considers it due.
const dueWindow = 30 * time.Second

// Submitter is the slice of the recorder surface the scheduler needs.
type Submitter interface {
	SubmitNamed(channelID, title string, durationSeconds int) (recorder.Job, error)
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) Timer
}

// Timer abstracts time.Timer for tests.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
	Reset(d time.Duration) bool
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
func (RealClock) NewTimer(d time.Duration) Timer {
	return &realTimer{t: time.NewTimer(d)}
}

type realTimer struct {
	t *time.Timer
}

func (r *realTimer) C() <-chan time.Time        { return r.t.C }
func (r *realTimer) Stop() bool                 { return r.t.Stop() }
func (r *realTimer) Reset(d time.Duration) bool { return r.t.Reset(d) }

// Scheduler polls the store and submits due entries to the recorder.
type Scheduler struct {
	store     *Store
	submitter Submitter
	tick      time.Duration
	clock     Clock
	logger    zerolog.Logger
}

// NewScheduler creates a scheduler polling every tick.
func NewScheduler(store *Store, submitter Submitter, tick time.Duration) *Scheduler {
	return &Scheduler{
		store:     store,
		submitter: submitter,
		tick:      tick,
		clock:     RealClock{},
		logger:    log.WithComponent("scheduler"),
	}
}

// Start begins the polling loop in a background goroutine. It returns
// immediately; the loop stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	s.logger.Info().Dur("tick", s.tick).Msg("scheduler started")

	timer := s.clock.NewTimer(s.tick)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler stopping")
			return
		case <-timer.C():
			s.runOnce(s.clock.Now())
			timer.Reset(s.tick)
		}
	}
}

// runOnce submits every due entry. An entry that fails admission is dropped;
// re-submitting it every tick would hammer a channel that is already busy.
func (s *Scheduler) runOnce(now time.Time) {
	due := s.store.takeDue(now, dueWindow)
	ok := true
	for _, e := range due {
		job, err := s.submitter.SubmitNamed(e.ChannelID, e.Title, e.Duration)
		if err != nil {
			ok = false
			evt := s.logger.Error()
			if errors.Is(err, recorder.ErrAlreadyRunning) {
				evt = s.logger.Warn()
			}
			evt.Err(err).
				Str(log.FieldEntryID, e.ID).
				Str(log.FieldChannelID, e.ChannelID).
				Msg("scheduled recording rejected")
			continue
		}
		s.logger.Info().
			Str(log.FieldEntryID, e.ID).
			Str(log.FieldJobID, job.ID).
			Str(log.FieldChannelID, e.ChannelID).
			Int("duration_seconds", e.Duration).
			Msg("scheduled recording started")
	}
	metrics.IncSchedulerRun(ok)
}
