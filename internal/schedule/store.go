// SPDX-License-Identifier: MIT

// Package schedule manages future-dated recordings: a JSON-persisted store of
// entries plus a polling scheduler that hands due entries to the recorder.
package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/streamrec/streamrec/internal/log"
	"github.com/streamrec/streamrec/internal/metrics"
)

var (
	ErrPastStart = errors.New("cannot schedule recordings in the past")
	ErrDuplicate = errors.New("an identical recording is already scheduled")
)

// maxPastWindow is how long an entry may sit past its start before it is
// pruned instead of recorded.
const maxPastWindow = 2 * time.Hour

// Entry is one scheduled recording. Start and Duration already include the
// configured padding; the original request is kept for display.
type Entry struct {
	ID               string    `json:"id"`
	ChannelID        string    `json:"channelId"`
	Title            string    `json:"title"`
	Start            time.Time `json:"start"`
	Duration         int       `json:"durationSeconds"`
	OriginalStart    time.Time `json:"originalStart"`
	OriginalDuration int       `json:"originalDurationSeconds"`
	Created          time.Time `json:"created"`
}

// Store persists schedule entries to a single JSON file with atomic renames.
type Store struct {
	mu      sync.Mutex
	path    string
	entries []Entry

	padBefore time.Duration
	padAfter  time.Duration
	clock     func() time.Time
	logger    zerolog.Logger
}

// NewStore creates a store persisting to path. Padding is applied to every
// added entry: start moves earlier by padBefore, duration grows by both pads.
func NewStore(path string, padBefore, padAfter time.Duration) *Store {
	return &Store{
		path:      path,
		padBefore: padBefore,
		padAfter:  padAfter,
		clock:     time.Now,
		logger:    log.WithComponent("schedule"),
	}
}

// Load reads persisted entries. A missing file is not an error.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read schedules: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse schedules %s: %w", s.path, err)
	}
	s.entries = entries
	metrics.SetScheduledEntries(len(s.entries))
	s.logger.Info().Int("entries", len(entries)).Msg("loaded schedules")
	return nil
}

// Add schedules a recording. start and durationSeconds are the requested
// programme slot; padding is applied here, matching what actually gets
// recorded.
func (s *Store) Add(channelID, title string, start time.Time, durationSeconds int) (Entry, error) {
	adjustedStart := start.Add(-s.padBefore)
	adjustedDuration := durationSeconds + int((s.padBefore + s.padAfter).Seconds())

	if adjustedStart.Before(s.clock().Add(-5 * time.Minute)) {
		return Entry{}, ErrPastStart
	}

	e := Entry{
		ID:               channelID + "_" + adjustedStart.Format("20060102_150405"),
		ChannelID:        channelID,
		Title:            title,
		Start:            adjustedStart,
		Duration:         adjustedDuration,
		OriginalStart:    start,
		OriginalDuration: durationSeconds,
		Created:          s.clock(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.entries {
		if existing.ID == e.ID {
			return Entry{}, ErrDuplicate
		}
	}
	s.entries = append(s.entries, e)
	if err := s.save(); err != nil {
		s.entries = s.entries[:len(s.entries)-1]
		return Entry{}, err
	}
	metrics.SetScheduledEntries(len(s.entries))
	return e, nil
}

// Remove deletes a scheduled entry by id.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			if err := s.save(); err != nil {
				s.logger.Error().Err(err).Msg("failed to persist schedules after remove")
			}
			metrics.SetScheduledEntries(len(s.entries))
			return true
		}
	}
	return false
}

// List returns all entries sorted by start time.
func (s *Store) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// takeDue removes and returns entries whose start falls within ±window of
// now. Entries more than maxPastWindow in the past are silently pruned.
func (s *Store) takeDue(now time.Time, window time.Duration) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []Entry
	kept := s.entries[:0]
	for _, e := range s.entries {
		delta := e.Start.Sub(now)
		switch {
		case delta >= -window && delta <= window:
			due = append(due, e)
		case delta < -maxPastWindow:
			s.logger.Info().
				Str(log.FieldEntryID, e.ID).
				Time("start", e.Start).
				Msg("pruning stale schedule entry")
		default:
			kept = append(kept, e)
		}
	}
	if len(kept) != len(s.entries) {
		s.entries = kept
		if err := s.save(); err != nil {
			s.logger.Error().Err(err).Msg("failed to persist schedules after take")
		}
		metrics.SetScheduledEntries(len(s.entries))
	}
	return due
}

// save writes the entries atomically. Caller holds s.mu.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode schedules: %w", err)
	}
	if err := renameio.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write schedules: %w", err)
	}
	return nil
}
