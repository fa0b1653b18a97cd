// SPDX-License-Identifier: MIT

// Package config loads daemon configuration from the environment with
// precedence ENV > .env file > defaults.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds the full daemon configuration.
type AppConfig struct {
	ListenAddr   string // HTTP listen address
	DataDir      string // schedules, EPG cache
	OutputDir    string // recorded media files
	ChannelsFile string // channel catalog (JSON)

	FFmpegBin string // capture tool binary
	UserAgent string // default user agent for stream requests

	KillGrace time.Duration // extra wall-clock time before a capture is force-killed
	Retention time.Duration // how long finished jobs stay queryable

	EPGURL      string
	EPGCacheTTL time.Duration

	ScheduleTick time.Duration // scheduler poll interval
	PadBefore    time.Duration // recording lead time for scheduled entries
	PadAfter     time.Duration // recording overrun time for scheduled entries

	RateLimit int // requests/minute per client IP, 0 disables

	LogLevel string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first, without overriding real environment variables.
func Load() (AppConfig, error) {
	// Best effort: absence of a .env file is the normal case.
	_ = godotenv.Load()

	cfg := AppConfig{
		ListenAddr:   ParseString("STREAMREC_LISTEN", ":8080"),
		DataDir:      ParseString("STREAMREC_DATA", "/var/lib/streamrec"),
		OutputDir:    ParseString("STREAMREC_OUTPUT", "/recordings"),
		ChannelsFile: ParseString("STREAMREC_CHANNELS", ""),
		FFmpegBin:    ParseString("STREAMREC_FFMPEG", "ffmpeg"),
		UserAgent:    ParseString("STREAMREC_USER_AGENT", "Mozilla/5.0"),
		KillGrace:    ParseDuration("STREAMREC_KILL_GRACE", 15*time.Second),
		Retention:    ParseDuration("STREAMREC_RETENTION", 24*time.Hour),
		EPGURL:       ParseString("STREAMREC_EPG_URL", ""),
		EPGCacheTTL:  ParseDuration("STREAMREC_EPG_CACHE_TTL", time.Hour),
		ScheduleTick: ParseDuration("STREAMREC_SCHEDULE_TICK", 10*time.Second),
		PadBefore:    ParseDuration("STREAMREC_PAD_BEFORE", 10*time.Minute),
		PadAfter:     ParseDuration("STREAMREC_PAD_AFTER", 10*time.Minute),
		RateLimit:    ParseInt("STREAMREC_RATE_LIMIT", 120),
		LogLevel:     ParseString("STREAMREC_LOG_LEVEL", "info"),
	}

	if cfg.ChannelsFile == "" {
		cfg.ChannelsFile = filepath.Join(cfg.DataDir, "channels.json")
	}

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c AppConfig) Validate() error {
	if c.KillGrace <= 0 {
		return fmt.Errorf("kill grace must be positive, got %s", c.KillGrace)
	}
	if c.Retention < 0 {
		return fmt.Errorf("retention must not be negative, got %s", c.Retention)
	}
	if c.ScheduleTick <= 0 {
		return fmt.Errorf("schedule tick must be positive, got %s", c.ScheduleTick)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory must not be empty")
	}
	return nil
}

// EPGCachePath returns the on-disk location of the cached EPG document.
func (c AppConfig) EPGCachePath() string {
	return filepath.Join(c.DataDir, "epg_cache.xml")
}

// SchedulesPath returns the on-disk location of the persisted schedules.
func (c AppConfig) SchedulesPath() string {
	return filepath.Join(c.DataDir, "schedules.json")
}
