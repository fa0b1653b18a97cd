// SPDX-License-Identifier: MIT

// Package epg fetches and parses the XMLTV programme guide for catalog
// channels.
package epg

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamrec/streamrec/internal/catalog"
	"github.com/streamrec/streamrec/internal/log"
)

// Programme is one guide entry for a catalog channel.
type Programme struct {
	ChannelID   string    `json:"channelId"`
	ChannelName string    `json:"channelName"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Start       time.Time `json:"start"`
	Stop        time.Time `json:"stop"`
	Duration    int       `json:"durationSeconds"`
}

// Client fetches the XMLTV document with an on-disk cache. A stale cache is
// served when the upstream is unreachable.
type Client struct {
	url       string
	cachePath string
	ttl       time.Duration
	httpc     *http.Client
	logger    zerolog.Logger
}

// NewClient creates a guide client. url may be empty, in which case Guide
// always fails and the API simply has no EPG.
func NewClient(url, cachePath string, ttl time.Duration) *Client {
	return &Client{
		url:       url,
		cachePath: cachePath,
		ttl:       ttl,
		httpc:     &http.Client{Timeout: 10 * time.Second},
		logger:    log.WithComponent("epg"),
	}
}

// Guide returns the raw XMLTV document, from cache when fresh enough.
func (c *Client) Guide(ctx context.Context) ([]byte, error) {
	if c.url == "" {
		return nil, fmt.Errorf("no EPG source configured")
	}

	if data, ok := c.cached(); ok {
		return data, nil
	}

	data, err := c.fetch(ctx)
	if err != nil {
		// Fall back to a stale cache rather than nothing.
		if stale, staleErr := os.ReadFile(c.cachePath); staleErr == nil {
			c.logger.Warn().Err(err).Msg("EPG fetch failed, serving stale cache")
			return stale, nil
		}
		return nil, err
	}

	if writeErr := os.WriteFile(c.cachePath, data, 0o644); writeErr != nil {
		c.logger.Warn().Err(writeErr).Str(log.FieldPath, c.cachePath).Msg("failed to write EPG cache")
	}
	return data, nil
}

func (c *Client) cached() ([]byte, bool) {
	info, err := os.Stat(c.cachePath)
	if err != nil || time.Since(info.ModTime()) >= c.ttl {
		return nil, false
	}
	data, err := os.ReadFile(c.cachePath)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *Client) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build EPG request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch EPG: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch EPG: unexpected status %d", resp.StatusCode)
	}
	return readAllLimited(resp.Body)
}

// Programmes returns guide entries for catalog channels within [from, to),
// sorted by start time.
func (c *Client) Programmes(ctx context.Context, cat *catalog.Catalog, from, to time.Time) ([]Programme, error) {
	data, err := c.Guide(ctx)
	if err != nil {
		return nil, err
	}
	progs, err := Parse(data, cat)
	if err != nil {
		return nil, err
	}

	out := progs[:0]
	for _, p := range progs {
		if !p.Start.Before(from) && p.Start.Before(to) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}
