// Package newsletter renders curated links into the final HTML document.
package newsletter

import (
	"encoding/json"
	"fmt"
	"os"
)

// Link is one entry of the newsletter with its resolved provenance.
type Link struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PostedBy    string `json:"posted_by"`
}

// Group is a titled section of links.
type Group struct {
	Title string `json:"title"`
	Links []Link `json:"links"`
}

// Payload is the curated newsletter content handed from the curate stage to
// the render stage.
type Payload struct {
	Intro  string  `json:"intro"`
	Groups []Group `json:"groups"`
}

// TotalLinks counts the links across all groups.
func (p *Payload) TotalLinks() int {
	total := 0
	for _, group := range p.Groups {
		total += len(group.Links)
	}
	return total
}

// URLs returns every link URL across all groups, in payload order.
func (p *Payload) URLs() []string {
	urls := make([]string, 0, p.TotalLinks())
	for _, group := range p.Groups {
		for _, link := range group.Links {
			urls = append(urls, link.URL)
		}
	}
	return urls
}

// WritePayload writes the curated payload in one shot.
func WritePayload(path string, payload *Payload) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode curated links: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write curated links file %s: %w", path, err)
	}
	return nil
}

// ReadPayload loads a curated payload written by WritePayload.
func ReadPayload(path string) (*Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("curated links file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read curated links file %s: %w", path, err)
	}
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("malformed curated links JSON in %s: %w", path, err)
	}
	return &payload, nil
}
