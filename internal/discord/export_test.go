package discord

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadExport(t *testing.T) {
	t.Parallel()

	data := `{
		"guild": {"id": "g1", "name": "The Makery"},
		"channel": {"id": "c1", "name": "general", "category": "Text"},
		"messages": [
			{
				"id": "m1",
				"type": "Default",
				"timestamp": "2026-08-01T10:00:00.000+00:00",
				"content": "hello https://example.com",
				"author": {"id": "u1", "name": "ada", "nickname": "Ada L."},
				"embeds": [{"title": "Example", "url": "https://example.com", "description": "d"}],
				"attachments": []
			}
		],
		"messageCount": 1
	}`

	path := filepath.Join(t.TempDir(), "general.json")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	export, err := LoadExport(path)
	require.NoError(t, err)

	assert.Equal(t, "The Makery", export.Guild.Name)
	assert.Equal(t, "general", export.Channel.Name)
	assert.Equal(t, 1, export.MessageCount)
	require.Len(t, export.Messages, 1)

	msg := export.Messages[0]
	assert.Equal(t, "hello https://example.com", msg.Content)
	assert.Equal(t, "Ada L.", msg.Author.DisplayName())
	require.Len(t, msg.Embeds, 1)
	assert.Equal(t, "https://example.com", msg.Embeds[0].URL)
}

func TestLoadExportMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadExport(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export file not found")
}

func TestLoadExportMalformedJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"messages": [`), 0o644))

	_, err := LoadExport(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed export JSON")
}

func TestAuthorDisplayName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		author   Author
		expected string
	}{
		{
			name:     "nickname preferred",
			author:   Author{Name: "ada", Nickname: "Ada L."},
			expected: "Ada L.",
		},
		{
			name:     "name fallback",
			author:   Author{Name: "ada"},
			expected: "ada",
		},
		{
			name:     "unknown fallback",
			author:   Author{},
			expected: "Unknown",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, tc.author.DisplayName())
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected time.Time
		ok       bool
	}{
		{
			name:     "rfc3339 with millis and offset",
			input:    "2026-08-01T10:00:00.000+00:00",
			expected: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "rfc3339 zulu",
			input:    "2026-08-01T10:00:00Z",
			expected: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "naive with fraction",
			input:    "2026-08-01T10:00:00.123456",
			expected: time.Date(2026, 8, 1, 10, 0, 0, 123456000, time.UTC),
			ok:       true,
		},
		{
			name:  "garbage",
			input: "yesterday",
			ok:    false,
		},
		{
			name:  "empty",
			input: "",
			ok:    false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			parsed, ok := ParseTimestamp(tc.input)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.True(t, parsed.Equal(tc.expected), "got %v, want %v", parsed, tc.expected)
			}
		})
	}
}
