// SPDX-License-Identifier: MIT

package epg

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/streamrec/streamrec/internal/catalog"
)

// maxXMLSize bounds the decoded document to prevent DoS via massive files.
const maxXMLSize = 50 * 1024 * 1024

type tvDoc struct {
	XMLName    xml.Name       `xml:"tv"`
	Programmes []programmeXML `xml:"programme"`
}

type programmeXML struct {
	Channel  string `xml:"channel,attr"`
	Start    string `xml:"start,attr"`
	Stop     string `xml:"stop,attr"`
	Title    string `xml:"title"`
	Desc     string `xml:"desc"`
	Category string `xml:"category"`
}

func readAllLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxXMLSize))
	if err != nil {
		return nil, fmt.Errorf("read EPG body: %w", err)
	}
	return data, nil
}

// Parse decodes an XMLTV document and keeps programmes whose channel attribute
// matches a catalog channel's XMLTV id. Entity expansion is disabled.
func Parse(data []byte, cat *catalog.Catalog) ([]Programme, error) {
	dec := xml.NewDecoder(io.LimitReader(bytes.NewReader(data), maxXMLSize))
	dec.Strict = true
	dec.Entity = make(map[string]string)

	var doc tvDoc
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode xmltv: %w", err)
	}

	out := make([]Programme, 0, len(doc.Programmes))
	for _, p := range doc.Programmes {
		ch, ok := cat.LookupXMLTV(p.Channel)
		if !ok {
			continue
		}
		start, err := parseXMLTVTime(p.Start)
		if err != nil {
			continue
		}
		stop, err := parseXMLTVTime(p.Stop)
		if err != nil {
			continue
		}
		title := p.Title
		if title == "" {
			title = "Unknown"
		}
		out = append(out, Programme{
			ChannelID:   ch.ID,
			ChannelName: ch.Name,
			Title:       title,
			Description: p.Desc,
			Category:    p.Category,
			Start:       start,
			Stop:        stop,
			Duration:    int(stop.Sub(start).Seconds()),
		})
	}
	return out, nil
}

// parseXMLTVTime accepts the XMLTV timestamp format, with or without a zone
// suffix ("20060102150405 -0700"). Zone-less stamps are taken as local time.
func parseXMLTVTime(s string) (time.Time, error) {
	if len(s) < 14 {
		return time.Time{}, fmt.Errorf("timestamp too short: %q", s)
	}
	if t, err := time.Parse("20060102150405 -0700", s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("20060102150405", s[:14], time.Local)
}
