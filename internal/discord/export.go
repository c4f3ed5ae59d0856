// Package discord defines types for the JSON documents produced by the
// external Discord export tool and loads them from disk.
package discord

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Export is the top-level document of one exported channel: guild and
// channel metadata plus the message list. Exports are immutable inputs;
// nothing here is ever written back.
type Export struct {
	Guild        Guild     `json:"guild"`
	Channel      Channel   `json:"channel"`
	Messages     []Message `json:"messages"`
	MessageCount int       `json:"messageCount"`
}

// Guild identifies the exported guild.
type Guild struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Channel identifies the exported channel.
type Channel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Message is a single chat message from the export.
type Message struct {
	ID          string       `json:"id"`
	Type        string       `json:"type"`
	Timestamp   string       `json:"timestamp"`
	Content     string       `json:"content"`
	Author      Author       `json:"author"`
	Embeds      []Embed      `json:"embeds"`
	Attachments []Attachment `json:"attachments"`
}

// Author is the sender of a message.
type Author struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
}

// Embed is a link preview Discord attached to a message.
type Embed struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Attachment is a file attached to a message.
type Attachment struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// DisplayName returns the best human-readable name for the author:
// nickname, falling back to name, falling back to "Unknown".
func (a Author) DisplayName() string {
	if a.Nickname != "" {
		return a.Nickname
	}
	if a.Name != "" {
		return a.Name
	}
	return "Unknown"
}

// LoadExport reads and parses one export JSON file. A missing file or
// malformed JSON fails the whole run; no partially parsed result is returned.
func LoadExport(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("export file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read export file %s: %w", path, err)
	}

	var export Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("malformed export JSON in %s: %w", path, err)
	}

	return &export, nil
}

// timestampLayouts covers the timestamp shapes the export tool emits:
// RFC 3339 with fractional seconds and offsets, and naive local timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses an export timestamp string. The boolean result is
// false when the string matches none of the known layouts.
func ParseTimestamp(ts string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
