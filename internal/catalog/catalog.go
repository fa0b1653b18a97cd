// SPDX-License-Identifier: MIT

// Package catalog holds the static channel catalog: a read-only mapping from
// channel id to stream endpoint, loaded once at startup.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/streamrec/streamrec/internal/log"
)

// Channel describes one live stream source.
type Channel struct {
	ID        string `json:"id"`
	XMLTVID   string `json:"xmltv_id"`
	Name      string `json:"name"`
	StreamURL string `json:"stream_url"`
	UserAgent string `json:"user_agent,omitempty"`
	Enabled   *bool  `json:"enabled,omitempty"` // nil means enabled
}

func (c Channel) enabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Settings carries catalog-wide defaults.
type Settings struct {
	OutputDir string `json:"output_dir,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

type file struct {
	Channels []Channel `json:"channels"`
	Settings Settings  `json:"settings"`
}

// Catalog is an immutable channel lookup. It is safe for concurrent use
// because it is never mutated after Load.
type Catalog struct {
	byID     map[string]Channel
	byXMLTV  map[string]Channel
	ordered  []Channel
	settings Settings
}

// Load reads the channel catalog from the given JSON file. Disabled channels
// are dropped at load time and never resolvable.
func Load(path string) (*Catalog, error) {
	path = filepath.Clean(path)
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("read channel catalog: %w", err)
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse channel catalog %s: %w", path, err)
	}

	c := &Catalog{
		byID:     make(map[string]Channel, len(f.Channels)),
		byXMLTV:  make(map[string]Channel, len(f.Channels)),
		settings: f.Settings,
	}
	for _, ch := range f.Channels {
		if !ch.enabled() {
			continue
		}
		if ch.ID == "" || ch.StreamURL == "" {
			return nil, fmt.Errorf("channel catalog %s: entry %q missing id or stream_url", path, ch.Name)
		}
		if _, dup := c.byID[ch.ID]; dup {
			return nil, fmt.Errorf("channel catalog %s: duplicate channel id %q", path, ch.ID)
		}
		c.byID[ch.ID] = ch
		if ch.XMLTVID != "" {
			c.byXMLTV[ch.XMLTVID] = ch
		}
		c.ordered = append(c.ordered, ch)
	}

	catalogLog := log.WithComponent("catalog")
	catalogLog.Info().
		Int("channels", len(c.ordered)).
		Str(log.FieldPath, path).
		Msg("loaded channel catalog")
	return c, nil
}

// Lookup resolves a channel by its id.
func (c *Catalog) Lookup(id string) (Channel, bool) {
	ch, ok := c.byID[id]
	return ch, ok
}

// LookupXMLTV resolves a channel by its XMLTV guide id.
func (c *Catalog) LookupXMLTV(id string) (Channel, bool) {
	ch, ok := c.byXMLTV[id]
	return ch, ok
}

// List returns all enabled channels in catalog order.
func (c *Catalog) List() []Channel {
	out := make([]Channel, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Settings returns catalog-wide defaults.
func (c *Catalog) Settings() Settings {
	return c.settings
}
