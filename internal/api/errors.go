// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/streamrec/streamrec/internal/recorder"
	"github.com/streamrec/streamrec/internal/schedule"
)

// errorBody is the wire shape of every error response.
type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorKind writes an error response with an explicit kind.
func writeErrorKind(w http.ResponseWriter, code int, kind string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, code, errorBody{Kind: kind, Message: msg})
}

// writeRecorderError maps recorder and schedule errors onto the documented
// error kinds. Unknown errors become a 500 without leaking detail.
func writeRecorderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, recorder.ErrInvalidDuration):
		writeErrorKind(w, http.StatusBadRequest, "InvalidDuration", err)
	case errors.Is(err, recorder.ErrChannelNotFound):
		writeErrorKind(w, http.StatusNotFound, "ChannelNotFound", err)
	case errors.Is(err, recorder.ErrAlreadyRunning):
		writeErrorKind(w, http.StatusConflict, "AlreadyRunning", err)
	case errors.Is(err, recorder.ErrNotRunning):
		writeErrorKind(w, http.StatusConflict, "NotRunning", err)
	case errors.Is(err, schedule.ErrPastStart):
		writeErrorKind(w, http.StatusBadRequest, "PastStart", err)
	case errors.Is(err, schedule.ErrDuplicate):
		writeErrorKind(w, http.StatusConflict, "Duplicate", err)
	default:
		writeErrorKind(w, http.StatusInternalServerError, "Internal", nil)
	}
}

// writeBadRequest writes a generic 400 response.
func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Kind: "BadRequest", Message: msg})
}

// writeNotFound writes a 404 Not Found response.
func writeNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, errorBody{Kind: "NotFound", Message: "not found"})
}
