// SPDX-License-Identifier: MIT

package recorder

import (
	"sort"
	"sync"
	"time"
)

// Registry is the concurrent-safe map from channel id to that channel's most
// recent job. It enforces the single-active-job-per-channel invariant at
// admission. All operations are O(1) apart from ListActive and Sweep; none of
// them block.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*entry
}

type entry struct {
	job       Job
	cancel    chan struct{} // closed to request cancellation; nil once terminal
	cancelled bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*entry)}
}

// TryAdmit atomically installs job as the channel's active job, unless an
// active job already occupies the slot. The returned channel is closed when
// cancellation is requested; it is nil when admission fails.
func (r *Registry) TryAdmit(channelID string, job Job) (<-chan struct{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.jobs[channelID]; ok && e.job.Active() {
		return nil, false
	}
	e := &entry{job: job, cancel: make(chan struct{})}
	r.jobs[channelID] = e
	return e.cancel, true
}

// Update replaces the stored job for a channel. Only the owning supervisor
// calls this for a given job; a stale update for a superseded job is ignored.
func (r *Registry) Update(channelID string, job Job) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[channelID]
	if !ok || e.job.ID != job.ID {
		return
	}
	e.job = job
	if job.State.Terminal() {
		e.cancel = nil
	}
}

// Get returns the channel's most recent job.
func (r *Registry) Get(channelID string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[channelID]
	if !ok {
		return Job{}, false
	}
	return e.job, true
}

// RequestCancel closes the active job's cancel channel. It reports false when
// the channel has no active job. Safe to call repeatedly.
func (r *Registry) RequestCancel(channelID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[channelID]
	if !ok || !e.job.Active() || e.cancel == nil {
		return false
	}
	if !e.cancelled {
		close(e.cancel)
		e.cancelled = true
	}
	return true
}

// ListActive returns all Pending and Running jobs, sorted by channel id.
func (r *Registry) ListActive() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Job
	for _, e := range r.jobs {
		if e.job.Active() {
			out = append(out, e.job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChannelID < out[j].ChannelID })
	return out
}

// Sweep evicts terminal records older than retention. Active jobs are never
// touched. Returns the number of evicted records.
func (r *Registry) Sweep(now time.Time, retention time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for ch, e := range r.jobs {
		if e.job.Active() || e.job.EndedAt == nil {
			continue
		}
		if now.Sub(*e.job.EndedAt) > retention {
			delete(r.jobs, ch)
			evicted++
		}
	}
	return evicted
}
