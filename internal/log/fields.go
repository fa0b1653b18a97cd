// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldJobID     = "job_id"
	FieldChannelID = "channel_id"
	FieldEntryID   = "entry_id"

	// Process fields
	FieldComponent = "component"
	FieldHandle    = "handle"
	FieldPID       = "pid"
	FieldExitCode  = "exit_code"
	FieldSignal    = "signal"
	FieldCause     = "cause"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path / URL fields
	FieldPath       = "path"
	FieldOutputPath = "output_path"
	FieldStreamURL  = "stream_url"
)
