// SPDX-License-Identifier: MIT

package schedule

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, now time.Time) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "schedules.json"), 10*time.Minute, 10*time.Minute)
	s.clock = func() time.Time { return now }
	return s
}

func TestAddAppliesPadding(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)

	start := now.Add(2 * time.Hour)
	e, err := s.Add("tf1", "Journal", start, 1800)
	require.NoError(t, err)

	assert.Equal(t, start.Add(-10*time.Minute), e.Start)
	assert.Equal(t, 1800+1200, e.Duration)
	assert.Equal(t, start, e.OriginalStart)
	assert.Equal(t, 1800, e.OriginalDuration)
	assert.Equal(t, "tf1_"+e.Start.Format("20060102_150405"), e.ID)
}

func TestAddRejectsPastStart(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)

	_, err := s.Add("tf1", "Old", now.Add(-time.Hour), 1800)
	assert.ErrorIs(t, err, ErrPastStart)

	// Within the five minute grace window the entry is still accepted. The
	// start here lands at now after padding shifts it back.
	_, err = s.Add("tf1", "Soon", now.Add(10*time.Minute), 1800)
	assert.NoError(t, err)
}

func TestAddRejectsDuplicate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)

	start := now.Add(time.Hour)
	_, err := s.Add("tf1", "Journal", start, 1800)
	require.NoError(t, err)

	_, err = s.Add("tf1", "Journal again", start, 900)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestPersistenceRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "schedules.json")

	s := NewStore(path, 0, 0)
	s.clock = func() time.Time { return now }
	added, err := s.Add("m6", "Top Chef", now.Add(time.Hour), 3600)
	require.NoError(t, err)

	reloaded := NewStore(path, 0, 0)
	require.NoError(t, reloaded.Load())
	entries := reloaded.List()
	require.Len(t, entries, 1)
	assert.Equal(t, added.ID, entries[0].ID)
	assert.True(t, added.Start.Equal(entries[0].Start))
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "absent.json"), 0, 0)
	assert.NoError(t, s.Load())
	assert.Empty(t, s.List())
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedules.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewStore(path, 0, 0)
	assert.Error(t, s.Load())
}

func TestListSortedByStart(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)

	_, err := s.Add("tf1", "Later", now.Add(3*time.Hour), 600)
	require.NoError(t, err)
	_, err = s.Add("m6", "Sooner", now.Add(time.Hour), 600)
	require.NoError(t, err)

	entries := s.List()
	require.Len(t, entries, 2)
	assert.Equal(t, "m6", entries[0].ChannelID)
	assert.Equal(t, "tf1", entries[1].ChannelID)
}

func TestTakeDue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)

	// Entries are injected directly so their timing is exact.
	s.entries = []Entry{
		{ID: "due-now", ChannelID: "tf1", Start: now},
		{ID: "due-edge", ChannelID: "m6", Start: now.Add(25 * time.Second)},
		{ID: "future", ChannelID: "arte", Start: now.Add(time.Hour)},
		{ID: "stale", ChannelID: "w9", Start: now.Add(-3 * time.Hour)},
	}

	due := s.takeDue(now, 30*time.Second)
	require.Len(t, due, 2)
	assert.Equal(t, "due-now", due[0].ID)
	assert.Equal(t, "due-edge", due[1].ID)

	// Only the future entry survives. The stale one was pruned.
	remaining := s.List()
	require.Len(t, remaining, 1)
	assert.Equal(t, "future", remaining[0].ID)
}

func TestRemove(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)

	e, err := s.Add("tf1", "Journal", now.Add(time.Hour), 1800)
	require.NoError(t, err)

	assert.True(t, s.Remove(e.ID))
	assert.False(t, s.Remove(e.ID), "second remove reports absence")
	assert.Empty(t, s.List())
}
