package preview

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/makerletter/internal/database"
)

type fakeStore struct {
	database.Store

	previews map[string]string
	saved    []*database.LinkPreview
	getErr   error
}

func (f *fakeStore) GetLinkPreview(ctx context.Context, url string) (*database.LinkPreview, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if description, ok := f.previews[url]; ok {
		return &database.LinkPreview{URL: url, Description: description}, nil
	}
	return nil, nil
}

func (f *fakeStore) SaveLinkPreview(ctx context.Context, preview *database.LinkPreview) error {
	f.saved = append(f.saved, preview)
	return nil
}

type fakeSummarizer struct {
	summary string
	err     error
	calls   int
}

func (f *fakeSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	f.calls++
	return f.summary, f.err
}

func TestDescribeUsesStoredPreview(t *testing.T) {
	t.Parallel()

	store := &fakeStore{previews: map[string]string{"https://a.example": "stored description"}}
	p := NewPreviewer(newTestFetcher(), store, nil, testLogger())

	description := p.Describe(context.Background(), "https://a.example")
	assert.Equal(t, "stored description", description)
	assert.Empty(t, store.saved)
}

func TestDescribeFetchesAndPersists(t *testing.T) {
	t.Parallel()

	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>fetched text</body></html>`))
	}))
	defer server.Close()

	store := &fakeStore{previews: map[string]string{}}
	p := NewPreviewer(newTestFetcher(), store, nil, testLogger())

	description := p.Describe(context.Background(), server.URL)
	assert.Equal(t, "fetched text", description)
	require.Len(t, store.saved, 1)
	assert.Equal(t, server.URL, store.saved[0].URL)
	assert.Equal(t, "fetched text", store.saved[0].Description)

	// Second call hits the in-memory cache.
	assert.Equal(t, "fetched text", p.Describe(context.Background(), server.URL))
	assert.Equal(t, 1, fetches)
}

func TestDescribeCachesMisses(t *testing.T) {
	t.Parallel()

	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	store := &fakeStore{previews: map[string]string{}}
	p := NewPreviewer(newTestFetcher(), store, nil, testLogger())

	assert.Empty(t, p.Describe(context.Background(), server.URL))
	assert.Empty(t, p.Describe(context.Background(), server.URL))
	assert.Equal(t, 1, fetches, "misses are cached for the run")
	assert.Empty(t, store.saved, "empty descriptions are not persisted")
}

func TestDescribeSummarizes(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>long page text that needs a summary</body></html>`))
	}))
	defer server.Close()

	summarizer := &fakeSummarizer{summary: "short summary"}
	p := NewPreviewer(newTestFetcher(), nil, summarizer, testLogger())

	assert.Equal(t, "short summary", p.Describe(context.Background(), server.URL))
	assert.Equal(t, 1, summarizer.calls)
}

func TestDescribeKeepsRawTextOnSummaryError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>raw page text</body></html>`))
	}))
	defer server.Close()

	summarizer := &fakeSummarizer{err: errors.New("quota exceeded")}
	p := NewPreviewer(newTestFetcher(), nil, summarizer, testLogger())

	assert.Equal(t, "raw page text", p.Describe(context.Background(), server.URL))
}

func TestDescribeToleratesStoreErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>page text</body></html>`))
	}))
	defer server.Close()

	store := &fakeStore{getErr: errors.New("db locked")}
	p := NewPreviewer(newTestFetcher(), store, nil, testLogger())

	assert.Equal(t, "page text", p.Describe(context.Background(), server.URL))
}
