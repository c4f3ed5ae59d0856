// Package curate turns gathered link contexts into a curated newsletter
// payload by rendering them into a numbered prompt, asking the AI to select
// and group links, and reattaching URL and author details afterwards.
package curate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/edgard/makerletter/internal/gather"
	"github.com/edgard/makerletter/internal/gemini"
	"github.com/edgard/makerletter/internal/newsletter"
)

// LinkRef maps a numbered link label back to its source details.
type LinkRef struct {
	URL      string
	PostedBy string
}

// RenderContexts turns structured contexts into a text prompt for the model.
// It returns the rendered text and a mapping from link number to source
// URL/author so the curated output can be resolved afterwards.
func RenderContexts(contexts []gather.Context) (string, map[int]LinkRef) {
	var lines []string
	lookup := make(map[int]LinkRef)
	counter := 1

	appendLinks := func(links []gather.Link) {
		for _, link := range links {
			if link.URL == "" {
				continue
			}
			postedBy := link.PostedBy
			if postedBy == "" {
				postedBy = "Unknown"
			}
			lines = append(lines, fmt.Sprintf("    [link #%d] %s (posted by %s)", counter, link.URL, postedBy))
			lookup[counter] = LinkRef{URL: link.URL, PostedBy: postedBy}
			counter++
			if link.Description != "" {
				lines = append(lines, fmt.Sprintf("    [description] %s", link.Description))
			}
		}
	}

	for _, c := range contexts {
		source := c.Source
		if source == "" {
			source = "unknown file"
		}
		timestamp := c.Timestamp
		if timestamp == "" {
			timestamp = "unknown time"
		}
		lines = append(lines, fmt.Sprintf("=== %s @ %s ===", source, timestamp))

		linkIndex := c.LinkIndex
		if linkIndex < 0 || linkIndex >= len(c.Messages) {
			linkIndex = -1
		}

		for idx, message := range c.Messages {
			author := message.Author
			if author == "" {
				author = "Unknown"
			}
			messageLines := strings.Split(message.Content, "\n")
			lines = append(lines, fmt.Sprintf("%s: %s", author, messageLines[0]))
			for _, line := range messageLines[1:] {
				lines = append(lines, "    "+line)
			}

			if len(c.Links) > 0 && idx == linkIndex {
				appendLinks(c.Links)
			}
		}

		// Without a usable link position, append the links at the end so
		// nothing is dropped.
		if len(c.Links) > 0 && linkIndex == -1 {
			appendLinks(c.Links)
		}

		lines = append(lines, "")
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), lookup
}

// AttachLinkMetadata resolves the model's link numbers back to their source
// URL and author. A reference to an unknown number fails curation.
func AttachLinkMetadata(curation *gemini.Curation, lookup map[int]LinkRef) (*newsletter.Payload, error) {
	payload := &newsletter.Payload{Intro: curation.Intro}
	for _, group := range curation.Groups {
		resolved := newsletter.Group{Title: group.Title}
		for _, link := range group.Links {
			ref, ok := lookup[link.LinkNumber]
			if !ok {
				return nil, fmt.Errorf("model referenced unknown link number: %d", link.LinkNumber)
			}
			resolved.Links = append(resolved.Links, newsletter.Link{
				Title:       link.Title,
				Description: link.Description,
				URL:         ref.URL,
				PostedBy:    ref.PostedBy,
			})
		}
		payload.Groups = append(payload.Groups, resolved)
	}
	return payload, nil
}

// Curate runs the full curation step over gathered contexts.
func Curate(ctx context.Context, client gemini.Client, contexts []gather.Context, log *slog.Logger) (*newsletter.Payload, error) {
	if len(contexts) == 0 {
		return nil, fmt.Errorf("no link contexts to curate")
	}

	rendered, lookup := RenderContexts(contexts)
	log.Debug("Rendered curation prompt", "links", len(lookup), "bytes", len(rendered))

	curation, err := client.Curate(ctx, rendered)
	if err != nil {
		return nil, err
	}

	payload, err := AttachLinkMetadata(curation, lookup)
	if err != nil {
		return nil, err
	}

	log.Info("Curated newsletter payload",
		"groups", len(payload.Groups),
		"links", payload.TotalLinks())
	return payload, nil
}
