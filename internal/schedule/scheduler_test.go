// SPDX-License-Identifier: MIT

package schedule

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamrec/streamrec/internal/recorder"
)

type fakeSubmitter struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeSubmitter) SubmitNamed(channelID, title string, durationSeconds int) (recorder.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, channelID)
	if f.err != nil {
		return recorder.Job{}, f.err
	}
	return recorder.Job{ID: "job-" + channelID, ChannelID: channelID}, nil
}

func (f *fakeSubmitter) submitted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func TestRunOnceSubmitsDueEntries(t *testing.T) {
	now := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	store := newTestStore(t, now)
	store.entries = []Entry{
		{ID: "a", ChannelID: "tf1", Title: "Journal", Start: now, Duration: 1800},
		{ID: "b", ChannelID: "m6", Title: "Top Chef", Start: now.Add(time.Hour), Duration: 3600},
	}

	sub := &fakeSubmitter{}
	sched := NewScheduler(store, sub, 10*time.Second)

	sched.runOnce(now)

	assert.Equal(t, []string{"tf1"}, sub.submitted())

	remaining := store.List()
	require.Len(t, remaining, 1)
	assert.Equal(t, "b", remaining[0].ID)
}

func TestRunOnceDropsRejectedEntries(t *testing.T) {
	now := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	store := newTestStore(t, now)
	store.entries = []Entry{
		{ID: "a", ChannelID: "tf1", Title: "Journal", Start: now, Duration: 1800},
	}

	sub := &fakeSubmitter{err: recorder.ErrAlreadyRunning}
	sched := NewScheduler(store, sub, 10*time.Second)

	sched.runOnce(now)
	assert.Equal(t, []string{"tf1"}, sub.submitted())

	// The entry was consumed even though admission failed. The next tick must
	// not retry it.
	sched.runOnce(now)
	assert.Equal(t, []string{"tf1"}, sub.submitted())
	assert.Empty(t, store.List())
}

type fakeTimer struct {
	ch chan time.Time

	mu     sync.Mutex
	resets int
}

func (f *fakeTimer) C() <-chan time.Time { return f.ch }
func (f *fakeTimer) Stop() bool { return true }

func (f *fakeTimer) Reset(time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return true
}

func (f *fakeTimer) resetCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resets
}

type fakeClock struct {
	now   time.Time
	timer *fakeTimer
}

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) NewTimer(time.Duration) Timer { return c.timer }

func TestLoopSubmitsOnTickAndRearms(t *testing.T) {
	now := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	store := newTestStore(t, now)
	store.entries = []Entry{
		{ID: "a", ChannelID: "tf1", Title: "Journal", Start: now, Duration: 1800},
	}

	sub := &fakeSubmitter{}
	sched := NewScheduler(store, sub, 10*time.Second)
	clk := &fakeClock{now: now, timer: &fakeTimer{ch: make(chan time.Time, 1)}}
	sched.clock = clk

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Start(ctx)

	clk.timer.ch <- now
	require.Eventually(t, func() bool {
		return len(sub.submitted()) == 1 && clk.timer.resetCount() == 1
	}, 2*time.Second, 10*time.Millisecond, "tick must run the store pass and rearm the timer")

	// A second tick with an empty store submits nothing but still rearms.
	clk.timer.ch <- now
	require.Eventually(t, func() bool {
		return clk.timer.resetCount() == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, sub.submitted(), 1)
}

func TestRunOnceNothingDue(t *testing.T) {
	now := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	store := NewStore(filepath.Join(t.TempDir(), "schedules.json"), 0, 0)

	sub := &fakeSubmitter{}
	sched := NewScheduler(store, sub, 10*time.Second)

	sched.runOnce(now)
	assert.Empty(t, sub.submitted())
}
