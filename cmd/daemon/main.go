// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/streamrec/streamrec/internal/api"
	"github.com/streamrec/streamrec/internal/capture"
	"github.com/streamrec/streamrec/internal/catalog"
	"github.com/streamrec/streamrec/internal/config"
	"github.com/streamrec/streamrec/internal/epg"
	xlog "github.com/streamrec/streamrec/internal/log"
	"github.com/streamrec/streamrec/internal/recorder"
	"github.com/streamrec/streamrec/internal/schedule"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("streamrec %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	if err := run(); err != nil {
		daemonLog := xlog.WithComponent("daemon")
		daemonLog.Fatal().Err(err).Msg("daemon exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	xlog.Configure(xlog.Config{
		Level:   cfg.LogLevel,
		Service: "streamrec",
		Version: version,
	})
	logger := xlog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	cat, err := catalog.Load(cfg.ChannelsFile)
	if err != nil {
		return err
	}

	rec := recorder.New(recorder.Deps{
		Catalog:   cat,
		Runner:    capture.NewFFmpegRunner(cfg.FFmpegBin),
		OutputDir: outputDir(cfg, cat),
		UserAgent: cfg.UserAgent,
		KillGrace: cfg.KillGrace,
		Retention: cfg.Retention,
	})
	rec.Start()

	guide := epg.NewClient(cfg.EPGURL, cfg.EPGCachePath(), cfg.EPGCacheTTL)

	schedules := schedule.NewStore(cfg.SchedulesPath(), cfg.PadBefore, cfg.PadAfter)
	if err := schedules.Load(); err != nil {
		return err
	}

	server := api.New(rec, cat, guide, schedules, cfg.RateLimit)
	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// The group context cancels on the first failure or on a shutdown signal,
	// taking the scheduler and the drain loop down with it.
	g, gctx := errgroup.WithContext(ctx)

	schedule.NewScheduler(schedules, rec, cfg.ScheduleTick).Start(gctx)

	g.Go(func() error {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		drainCompletions(gctx, rec, logger)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("HTTP shutdown incomplete")
		}
		if err := rec.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("recorder shutdown incomplete, captures may have been orphaned")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("daemon stopped")
	return nil
}

// outputDir prefers the catalog's settings over the environment so one
// channels.json stays portable across hosts.
func outputDir(cfg config.AppConfig, cat *catalog.Catalog) string {
	if dir := cat.Settings().OutputDir; dir != "" {
		return dir
	}
	return cfg.OutputDir
}

// drainCompletions logs every finished job so results are visible even when
// nobody polls the status route.
func drainCompletions(ctx context.Context, rec *recorder.Recorder, logger zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-rec.Events():
			evt := logger.Info()
			if c.Job.State == recorder.StateFailed {
				evt = logger.Warn()
			}
			evt.
				Str(xlog.FieldJobID, c.Job.ID).
				Str(xlog.FieldChannelID, c.Job.ChannelID).
				Str(xlog.FieldNewState, string(c.Job.State)).
				Str(xlog.FieldOutputPath, c.Job.OutputPath).
				Msg("recording finished")
		}
	}
}
