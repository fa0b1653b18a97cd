// SPDX-License-Identifier: MIT

// Package api provides the HTTP surface of the recording daemon.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/streamrec/streamrec/internal/catalog"
	"github.com/streamrec/streamrec/internal/epg"
	"github.com/streamrec/streamrec/internal/log"
	"github.com/streamrec/streamrec/internal/recorder"
	"github.com/streamrec/streamrec/internal/schedule"
)

// Server wires the HTTP handlers to their collaborators.
type Server struct {
	rec       *recorder.Recorder
	catalog   *catalog.Catalog
	guide     *epg.Client
	schedules *schedule.Store
	rateLimit int
	logger    zerolog.Logger
}

// New creates the HTTP server. guide and schedules may be nil; the matching
// routes then answer 404.
func New(rec *recorder.Recorder, cat *catalog.Catalog, guide *epg.Client, schedules *schedule.Store, rateLimit int) *Server {
	return &Server{
		rec:       rec,
		catalog:   cat,
		guide:     guide,
		schedules: schedules,
		rateLimit: rateLimit,
		logger:    log.WithComponent("api"),
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	if s.rateLimit > 0 {
		r.Use(httprate.LimitByIP(s.rateLimit, time.Minute))
	}

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/channels", s.handleChannels)
		r.Get("/epg", s.handleEPG)

		r.Route("/recordings", func(r chi.Router) {
			r.Get("/", s.handleListActive)
			r.Post("/", s.handleSubmit)
			r.Get("/{channelID}", s.handleStatus)
			r.Delete("/{channelID}", s.handleCancel)
		})

		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", s.handleListSchedules)
			r.Post("/", s.handleAddSchedule)
			r.Delete("/{entryID}", s.handleRemoveSchedule)
		})
	})

	return r
}

// requestLogger emits one structured line per request and makes the request
// id available to handlers through the context.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := log.ContextWithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))
		s.logger.Info().
			Str("method", r.Method).
			Str(log.FieldPath, r.URL.Path).
			Str(log.FieldRequestID, log.RequestIDFromContext(ctx)).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
