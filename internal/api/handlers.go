// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/streamrec/streamrec/internal/log"
	"github.com/streamrec/streamrec/internal/recorder"
)

type submitRequest struct {
	ChannelID       string `json:"channelId"`
	DurationSeconds int    `json:"durationSeconds"`
}

type cancelResponse struct {
	State string `json:"state"`
}

// handleSubmit admits a recording job. It responds before the capture
// process has finished; progress is observable via the status route.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.ChannelID == "" {
		writeBadRequest(w, "channelId is required")
		return
	}

	job, err := s.rec.Submit(req.ChannelID, req.DurationSeconds)
	if err != nil {
		writeRecorderError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.rec.Status(chi.URLParam(r, "channelID"))
	if !ok {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.rec.Cancel(chi.URLParam(r, "channelID")); err != nil {
		writeRecorderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelResponse{State: "cancelled"})
}

func (s *Server) handleListActive(w http.ResponseWriter, _ *http.Request) {
	jobs := s.rec.ListActive()
	if jobs == nil {
		jobs = []recorder.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleChannels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.List())
}

// handleEPG returns guide entries for the next seven days.
func (s *Server) handleEPG(w http.ResponseWriter, r *http.Request) {
	if s.guide == nil {
		writeNotFound(w)
		return
	}
	now := time.Now()
	progs, err := s.guide.Programmes(r.Context(), s.catalog, now, now.Add(7*24*time.Hour))
	if err != nil {
		reqLog := log.FromContext(r.Context())
		reqLog.Error().Err(err).Msg("EPG lookup failed")
		writeErrorKind(w, http.StatusBadGateway, "EPGUnavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, progs)
}

type addScheduleRequest struct {
	ChannelID       string    `json:"channelId"`
	Title           string    `json:"title"`
	Start           time.Time `json:"start"`
	DurationSeconds int       `json:"durationSeconds"`
}

func (s *Server) handleListSchedules(w http.ResponseWriter, _ *http.Request) {
	if s.schedules == nil {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, s.schedules.List())
}

func (s *Server) handleAddSchedule(w http.ResponseWriter, r *http.Request) {
	if s.schedules == nil {
		writeNotFound(w)
		return
	}
	var req addScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.ChannelID == "" || req.Start.IsZero() || req.DurationSeconds <= 0 {
		writeBadRequest(w, "channelId, start, and a positive durationSeconds are required")
		return
	}
	if _, ok := s.catalog.Lookup(req.ChannelID); !ok {
		writeErrorKind(w, http.StatusNotFound, "ChannelNotFound", nil)
		return
	}

	entry, err := s.schedules.Add(req.ChannelID, req.Title, req.Start, req.DurationSeconds)
	if err != nil {
		writeRecorderError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleRemoveSchedule(w http.ResponseWriter, r *http.Request) {
	if s.schedules == nil {
		writeNotFound(w)
		return
	}
	if !s.schedules.Remove(chi.URLParam(r, "entryID")) {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
}
