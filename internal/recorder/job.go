// SPDX-License-Identifier: MIT

// Package recorder orchestrates time-bounded capture jobs: admission, process
// supervision, deadline enforcement, and job state queries.
package recorder

import (
	"time"

	"github.com/streamrec/streamrec/internal/capture"
)

// State is the lifecycle state of a Job. Transitions are monotonic:
// Pending → Running → {Succeeded, Failed, Cancelled}.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Terminal reports whether no further transitions are permitted.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateCancelled:
		return true
	}
	return false
}

// Cause is a coarse category recorded on terminal jobs.
type Cause string

const (
	CausePathError        Cause = "path_error"
	CauseLaunchFailed     Cause = "launch_failed"
	CauseDeadlineExceeded Cause = "deadline_exceeded"
	CauseProcessError     Cause = "process_error"
	CauseKilled           Cause = "killed"
	CauseCancelled        Cause = "cancelled"
)

// ExitInfo is populated once a job reaches a terminal state.
type ExitInfo struct {
	Code      int    `json:"code"`
	Signalled bool   `json:"signalled,omitempty"`
	Signal    string `json:"signal,omitempty"`
	Cause     Cause  `json:"cause,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Job is one scheduled, time-bounded capture task for a channel.
type Job struct {
	ID         string     `json:"jobId"`
	ChannelID  string     `json:"channelId"`
	Title      string     `json:"title,omitempty"`
	OutputPath string     `json:"outputPath"`
	Duration   int        `json:"durationSeconds"` // requested capture length, whole seconds
	State      State      `json:"state"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	EndedAt    *time.Time `json:"endedAt,omitempty"`
	ExitInfo   *ExitInfo  `json:"exitInfo,omitempty"`

	// handle is non-empty exactly while the job is Running; it never leaves
	// the recorder package.
	handle capture.Handle
}

// Active reports whether the job still occupies its channel's slot.
func (j Job) Active() bool {
	return j.State == StatePending || j.State == StateRunning
}

// Completion is emitted once per job when it reaches a terminal state.
type Completion struct {
	Job Job
}
