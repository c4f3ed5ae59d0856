package preview

import (
	"context"
	"log/slog"
	"time"

	"github.com/edgard/makerletter/internal/database"
)

// Summarizer condenses fetched page text into a short description.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Previewer resolves URL descriptions through a layered cache: an in-memory
// map for the current run, the persistent store across runs, and finally a
// live fetch (optionally summarized). It implements gather.Previewer.
type Previewer struct {
	fetcher    *Fetcher
	store      database.Store
	summarizer Summarizer
	cache      map[string]string
	log        *slog.Logger
}

// NewPreviewer creates a Previewer. store and summarizer may be nil to
// disable persistent caching and summarization respectively.
func NewPreviewer(fetcher *Fetcher, store database.Store, summarizer Summarizer, log *slog.Logger) *Previewer {
	return &Previewer{
		fetcher:    fetcher,
		store:      store,
		summarizer: summarizer,
		cache:      make(map[string]string),
		log:        log.With("component", "previewer"),
	}
}

// Describe returns a description for the URL, or an empty string when none
// is available. Results, including misses, are cached for the run so each
// URL is fetched at most once.
func (p *Previewer) Describe(ctx context.Context, url string) string {
	if cached, ok := p.cache[url]; ok {
		return cached
	}

	if p.store != nil {
		stored, err := p.store.GetLinkPreview(ctx, url)
		if err != nil {
			p.log.Warn("Preview cache lookup failed", "url", url, "error", err)
		} else if stored != nil {
			p.cache[url] = stored.Description
			return stored.Description
		}
	}

	p.log.Debug("Fetching link preview", "url", url)
	description := p.fetcher.Fetch(ctx, url)

	if description != "" && p.summarizer != nil {
		summary, err := p.summarizer.Summarize(ctx, description)
		if err != nil {
			p.log.Warn("Preview summarization failed, keeping raw text", "url", url, "error", err)
		} else if summary != "" {
			description = summary
		}
	}

	description = normalizeWhitespace(description)
	p.cache[url] = description

	if description != "" && p.store != nil {
		preview := &database.LinkPreview{
			URL:         url,
			Description: description,
			FetchedAt:   time.Now().UTC(),
		}
		if err := p.store.SaveLinkPreview(ctx, preview); err != nil {
			p.log.Warn("Failed to persist link preview", "url", url, "error", err)
		}
	}

	return description
}
