// Package preview fetches short descriptions for URLs shared in chat.
// Fetching is best-effort: network failures, non-HTML responses, and pages
// without usable metadata all produce an empty description, never an error
// that would fail the pipeline.
package preview

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/edgard/makerletter/internal/config"
)

var (
	youtubeRe    = regexp.MustCompile(`youtube\.com/(watch|shorts)|youtu\.be/`)
	githubDeepRe = regexp.MustCompile(`github\.com/[^/]+/[^/]+/(blob|tree|commit|pull|issues|actions|wiki)/`)
	mastodonRe   = regexp.MustCompile(`^https?://[^/]+/@[^/]+/\d+`)

	shortDescriptionRe = regexp.MustCompile(`"shortDescription":"((?:[^"\\]|\\.)*)"`)
)

// Fetcher downloads pages and extracts descriptions, with site-specific
// handling for YouTube, GitHub deep links, and Mastodon statuses.
type Fetcher struct {
	client    *http.Client
	userAgent string
	log       *slog.Logger
}

// NewFetcher creates a Fetcher using the gather stage's timeout and
// User-Agent settings.
func NewFetcher(cfg config.GatherConfig, log *slog.Logger) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.FetchTimeout},
		userAgent: cfg.UserAgent,
		log:       log.With("component", "preview_fetcher"),
	}
}

// Fetch returns a description for the URL, or an empty string when none
// could be extracted. The first matching site handler wins.
func (f *Fetcher) Fetch(ctx context.Context, url string) string {
	switch {
	case youtubeRe.MatchString(url):
		return f.fetchYouTube(ctx, url)
	case githubDeepRe.MatchString(url):
		return f.fetchGitHub(ctx, url)
	case mastodonRe.MatchString(url):
		return f.fetchMetaDescription(ctx, url, "mastodon")
	default:
		return f.fetchDefault(ctx, url)
	}
}

func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// getHTML fetches the URL and returns a parsed document, or nil when the
// response is not usable HTML.
func (f *Fetcher) getHTML(ctx context.Context, url, site string) *goquery.Document {
	resp, err := f.get(ctx, url)
	if err != nil {
		f.log.Debug("Preview request failed", "site", site, "url", url, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.log.Debug("Preview skipped on status", "site", site, "url", url, "status", resp.StatusCode)
		return nil
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		f.log.Debug("Preview skipped on content type", "site", site, "url", url,
			"content_type", resp.Header.Get("Content-Type"))
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		f.log.Debug("Preview parse failed", "site", site, "url", url, "error", err)
		return nil
	}
	return doc
}

// fetchYouTube scrapes the shortDescription field out of a watch page.
func (f *Fetcher) fetchYouTube(ctx context.Context, url string) string {
	resp, err := f.get(ctx, url)
	if err != nil {
		f.log.Debug("Preview request failed", "site", "youtube", "url", url, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.log.Debug("Preview skipped on status", "site", "youtube", "url", url, "status", resp.StatusCode)
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}
	html, err := doc.Html()
	if err != nil {
		return ""
	}

	m := shortDescriptionRe.FindStringSubmatch(html)
	if m == nil {
		f.log.Debug("No YouTube description found", "url", url)
		return ""
	}

	// The captured value is a JSON string body; Unquote resolves its
	// escape sequences.
	if unquoted, err := strconv.Unquote(`"` + m[1] + `"`); err == nil {
		return unquoted
	}
	return strings.ReplaceAll(m[1], `\n`, "\n")
}

// fetchGitHub extracts the repository description via meta tags, falling
// back to the repository root for deep links whose page lacks them.
func (f *Fetcher) fetchGitHub(ctx context.Context, url string) string {
	if description := f.fetchMetaDescription(ctx, url, "github"); description != "" {
		return description
	}

	parts := strings.Split(url, "/")
	if len(parts) >= 5 && parts[2] == "github.com" {
		repoURL := fmt.Sprintf("https://github.com/%s/%s", parts[3], parts[4])
		if repoURL != url {
			return f.fetchMetaDescription(ctx, repoURL, "github")
		}
	}
	return ""
}

// fetchMetaDescription downloads a page and pulls the best meta description
// from its tags.
func (f *Fetcher) fetchMetaDescription(ctx context.Context, url, site string) string {
	doc := f.getHTML(ctx, url, site)
	if doc == nil {
		return ""
	}

	description := bestDescription(metaTags(doc))
	if description == "" {
		f.log.Debug("No meta description", "site", site, "url", url)
	}
	return description
}

// fetchDefault extracts the page's visible text, falling back to the best
// meta description.
func (f *Fetcher) fetchDefault(ctx context.Context, url string) string {
	doc := f.getHTML(ctx, url, "default")
	if doc == nil {
		return ""
	}

	meta := metaTags(doc)

	doc.Find("script, style, noscript").Remove()
	if text := normalizeWhitespace(doc.Text()); text != "" {
		return text
	}

	return bestDescription(meta)
}

// metaTags collects meta property/name → content pairs plus the page title.
// First occurrence wins, matching browser behavior for duplicated tags.
func metaTags(doc *goquery.Document) map[string]string {
	meta := make(map[string]string)
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		key, ok := s.Attr("property")
		if !ok || key == "" {
			key, _ = s.Attr("name")
		}
		key = strings.ToLower(strings.TrimSpace(key))
		content := strings.TrimSpace(s.AttrOr("content", ""))
		if key == "" || content == "" {
			return
		}
		if _, exists := meta[key]; !exists {
			meta[key] = content
		}
	})

	if _, exists := meta["title"]; !exists {
		if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
			meta["title"] = title
		}
	}
	return meta
}

// descriptionKeys orders meta keys from most to least specific.
var descriptionKeys = []string{
	"og:description",
	"description",
	"twitter:description",
	"og:title",
	"title",
}

func bestDescription(meta map[string]string) string {
	for _, key := range descriptionKeys {
		if value := meta[key]; value != "" {
			return value
		}
	}
	return ""
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
