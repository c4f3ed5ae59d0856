// Package gather extracts links and their surrounding conversation from
// Discord export JSON files. It produces two artifacts per run: a contexts
// document feeding the curation stage, and a flat deduplicated link list.
package gather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/edgard/makerletter/internal/config"
	"github.com/edgard/makerletter/internal/discord"
)

// Previewer produces a short description for a URL. Implementations are
// best-effort: an empty string means no preview is available, and a failed
// preview never fails the gathering run.
type Previewer interface {
	Describe(ctx context.Context, url string) string
}

// Message is one chat message normalized for downstream use.
type Message struct {
	Author    string `json:"author"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Link is a URL found in a message, with provenance.
type Link struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	PostedBy    string `json:"posted_by"`
}

// Context is a link message together with the conversation around it.
// LinkIndex is the position of the link message inside Messages.
type Context struct {
	Source    string    `json:"source"`
	Timestamp string    `json:"timestamp"`
	LinkIndex int       `json:"link_index"`
	Messages  []Message `json:"messages"`
	Links     []Link    `json:"links"`
}

// Document is the contexts artifact written between the gather and curate
// stages.
type Document struct {
	Contexts []Context `json:"contexts"`
}

// Result holds everything one gathering run produced.
type Result struct {
	Contexts []Context
	// Links is the flat link list: every URL in first-seen order, no
	// duplicates.
	Links []string
	// Earliest and Latest are the original timestamp strings of the
	// oldest and newest parseable message timestamps seen.
	Earliest string
	Latest   string
}

// Gatherer scans export files for links.
type Gatherer struct {
	window        int
	includeEmbeds bool
	previewer     Previewer
	log           *slog.Logger
}

// New creates a Gatherer. previewer may be nil to skip link previews.
func New(cfg config.GatherConfig, previewer Previewer, log *slog.Logger) *Gatherer {
	return &Gatherer{
		window:        cfg.ContextWindow,
		includeEmbeds: cfg.IncludeEmbeds,
		previewer:     previewer,
		log:           log.With("component", "gatherer"),
	}
}

// FindExports lists the export JSON files under dir in deterministic order.
func FindExports(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list export files in %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Process scans the given export files in order and returns the gathered
// contexts and link list. Any unreadable or malformed file fails the whole
// run; no partial result is returned.
func (g *Gatherer) Process(ctx context.Context, paths []string) (*Result, error) {
	result := &Result{}
	seen := make(map[string]bool)

	var earliest, latest *timestampBound

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		export, err := discord.LoadExport(path)
		if err != nil {
			return nil, err
		}

		messages := make([]discord.Message, len(export.Messages))
		copy(messages, export.Messages)
		// Export timestamps are ISO 8601, so string order is
		// chronological order.
		sort.SliceStable(messages, func(i, j int) bool {
			return messages[i].Timestamp < messages[j].Timestamp
		})

		earliest, latest = updateBounds(messages, earliest, latest)

		source := filepath.Base(path)
		for idx, message := range messages {
			links := g.messageLinks(message)
			for _, link := range links {
				if !seen[link] {
					seen[link] = true
					result.Links = append(result.Links, link)
				}
			}

			if len(links) == 0 {
				continue
			}

			result.Contexts = append(result.Contexts, g.buildContext(ctx, source, messages, idx, links))
		}

		g.log.Debug("Processed export file", "path", path, "messages", len(messages))
	}

	if earliest != nil {
		result.Earliest = earliest.raw
	}
	if latest != nil {
		result.Latest = latest.raw
	}

	g.log.Info("Gathering complete",
		"contexts", len(result.Contexts),
		"links", len(result.Links),
		"earliest", result.Earliest,
		"latest", result.Latest)

	return result, nil
}

// messageLinks extracts the URLs contributed by one message: its content
// links always, plus embed and attachment URLs when configured.
func (g *Gatherer) messageLinks(message discord.Message) []string {
	links := ExtractLinks(message.Content)
	if !g.includeEmbeds {
		return links
	}
	for _, embed := range message.Embeds {
		if embed.URL != "" {
			links = append(links, CleanURL(embed.URL))
		}
	}
	for _, attachment := range message.Attachments {
		if attachment.URL != "" {
			links = append(links, CleanURL(attachment.URL))
		}
	}
	return links
}

// buildContext assembles the window of messages around the link message at
// idx plus the link entries, deduplicated within the message.
func (g *Gatherer) buildContext(ctx context.Context, source string, messages []discord.Message, idx int, links []string) Context {
	start := idx - g.window
	if start < 0 {
		start = 0
	}
	end := idx + g.window + 1
	if end > len(messages) {
		end = len(messages)
	}

	window := make([]Message, 0, end-start)
	for _, m := range messages[start:end] {
		window = append(window, formatMessage(m))
	}

	linkMessage := messages[idx]
	postedBy := linkMessage.Author.DisplayName()

	entries := make([]Link, 0, len(links))
	localSeen := make(map[string]bool, len(links))
	for _, link := range links {
		if localSeen[link] {
			continue
		}
		localSeen[link] = true

		entry := Link{URL: link, PostedBy: postedBy}
		if g.previewer != nil {
			entry.Description = g.previewer.Describe(ctx, link)
		}
		entries = append(entries, entry)
	}

	timestamp := linkMessage.Timestamp
	if timestamp == "" {
		timestamp = "unknown time"
	}

	return Context{
		Source:    source,
		Timestamp: timestamp,
		LinkIndex: idx - start,
		Messages:  window,
		Links:     entries,
	}
}

func formatMessage(m discord.Message) Message {
	return Message{
		Author:    m.Author.DisplayName(),
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
}

type timestampBound struct {
	raw    string
	parsed int64
}

func updateBounds(messages []discord.Message, earliest, latest *timestampBound) (*timestampBound, *timestampBound) {
	for _, m := range messages {
		t, ok := discord.ParseTimestamp(m.Timestamp)
		if !ok {
			continue
		}
		unix := t.UnixNano()
		if earliest == nil || unix < earliest.parsed {
			earliest = &timestampBound{raw: m.Timestamp, parsed: unix}
		}
		if latest == nil || unix > latest.parsed {
			latest = &timestampBound{raw: m.Timestamp, parsed: unix}
		}
	}
	return earliest, latest
}

// WriteContexts writes the contexts document in one shot so a failed run
// never leaves a partial file behind.
func WriteContexts(path string, contexts []Context) error {
	doc := Document{Contexts: contexts}
	if doc.Contexts == nil {
		doc.Contexts = []Context{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode contexts: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write contexts file %s: %w", path, err)
	}
	return nil
}

// ReadContexts loads a contexts document written by WriteContexts.
func ReadContexts(path string) ([]Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("contexts file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read contexts file %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed contexts JSON in %s: %w", path, err)
	}
	return doc.Contexts, nil
}

// WriteLinkList writes the flat link list, one URL per line. A run with no
// links writes an empty but valid file.
func WriteLinkList(path string, links []string) error {
	var data []byte
	for _, link := range links {
		data = append(data, link...)
		data = append(data, '\n')
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write link list %s: %w", path, err)
	}
	return nil
}

// ReadLinkList loads a link list written by WriteLinkList.
func ReadLinkList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("link list file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read link list %s: %w", path, err)
	}
	var links []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			links = append(links, line)
		}
	}
	return links, nil
}
