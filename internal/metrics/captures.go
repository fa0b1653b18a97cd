// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus instrumentation for the daemon.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	capturesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamrec_captures_started_total",
		Help: "Total number of capture processes started",
	})

	capturesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamrec_captures_completed_total",
		Help: "Total number of finished capture jobs by terminal state and cause",
	}, []string{"state", "cause"})

	capturesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "streamrec_captures_active",
		Help: "Number of capture jobs currently running",
	})

	captureDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "streamrec_capture_duration_seconds",
		Help:    "Wall-clock duration of finished capture jobs",
		Buckets: []float64{10, 30, 60, 300, 900, 1800, 3600, 7200, 14400},
	}, []string{"state"})

	admissionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamrec_admission_rejected_total",
		Help: "Total number of submissions rejected at admission by reason",
	}, []string{"reason"})

	schedulerRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamrec_scheduler_runs_total",
		Help: "Total number of scheduler passes by result",
	}, []string{"result"})

	scheduledEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "streamrec_scheduled_entries",
		Help: "Number of pending scheduled recordings",
	})
)

// IncCaptureStarted records a started capture process.
func IncCaptureStarted() {
	capturesStarted.Inc()
	capturesActive.Inc()
}

// ObserveCaptureCompleted records a terminal capture job.
func ObserveCaptureCompleted(state, cause string, d time.Duration) {
	if cause == "" {
		cause = "none"
	}
	capturesCompleted.WithLabelValues(state, cause).Inc()
	capturesActive.Dec()
	captureDuration.WithLabelValues(state).Observe(d.Seconds())
}

// ObserveCaptureNeverStarted records a job that reached a terminal state
// before its process was spawned (path or launch failure).
func ObserveCaptureNeverStarted(state, cause string) {
	if cause == "" {
		cause = "none"
	}
	capturesCompleted.WithLabelValues(state, cause).Inc()
}

// IncAdmissionRejected records a synchronously rejected submission.
func IncAdmissionRejected(reason string) {
	admissionRejected.WithLabelValues(reason).Inc()
}

// IncSchedulerRun records a scheduler pass outcome.
func IncSchedulerRun(ok bool) {
	result := "error"
	if ok {
		result = "success"
	}
	schedulerRuns.WithLabelValues(result).Inc()
}

// SetScheduledEntries updates the pending schedule gauge.
func SetScheduledEntries(n int) {
	scheduledEntries.Set(float64(n))
}
