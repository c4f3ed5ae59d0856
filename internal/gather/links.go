package gather

import (
	"regexp"
	"strings"
)

// linkPattern recognizes http/https URLs up to the next whitespace.
var linkPattern = regexp.MustCompile(`https?://\S+`)

// trailingPunct holds characters stripped from the end of a matched URL.
// A closing parenthesis is kept when the URL body contains a matching
// opening one (Wikipedia-style URLs).
const trailingPunct = `.,;:!?"'>]`

// CleanURL strips trailing punctuation from a raw URL match.
func CleanURL(raw string) string {
	for {
		trimmed := strings.TrimRight(raw, trailingPunct)
		if strings.HasSuffix(trimmed, ")") && strings.Count(trimmed, "(") < strings.Count(trimmed, ")") {
			trimmed = strings.TrimSuffix(trimmed, ")")
		}
		if trimmed == raw {
			return raw
		}
		raw = trimmed
	}
}

// ExtractLinks returns all URLs found in content, cleaned, in order of
// appearance. Duplicates are preserved; callers dedupe at whatever scope
// they need.
func ExtractLinks(content string) []string {
	matches := linkPattern.FindAllString(content, -1)
	if len(matches) == 0 {
		return nil
	}
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		if cleaned := CleanURL(m); cleaned != "" {
			links = append(links, cleaned)
		}
	}
	return links
}

// HasLink reports whether content contains at least one URL.
func HasLink(content string) bool {
	return linkPattern.MatchString(content)
}
