package gather

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanURL(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain url untouched",
			input:    "https://example.com/page",
			expected: "https://example.com/page",
		},
		{
			name:     "trailing period",
			input:    "https://example.com/page.",
			expected: "https://example.com/page",
		},
		{
			name:     "trailing comma",
			input:    "https://example.com/page,",
			expected: "https://example.com/page",
		},
		{
			name:     "stacked punctuation",
			input:    "https://example.com/page.!?",
			expected: "https://example.com/page",
		},
		{
			name:     "closing quote and bracket",
			input:    `https://example.com/page"]`,
			expected: "https://example.com/page",
		},
		{
			name:     "html closing angle",
			input:    "https://example.com/page>",
			expected: "https://example.com/page",
		},
		{
			name:     "unbalanced closing paren stripped",
			input:    "https://example.com/page)",
			expected: "https://example.com/page",
		},
		{
			name:     "balanced parens kept",
			input:    "https://en.wikipedia.org/wiki/Go_(programming_language)",
			expected: "https://en.wikipedia.org/wiki/Go_(programming_language)",
		},
		{
			name:     "paren then period",
			input:    "https://example.com/page).",
			expected: "https://example.com/page",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, CleanURL(tc.input))
		})
	}
}

func TestExtractLinks(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		content  string
		expected []string
	}{
		{
			name:     "no links",
			content:  "just chatting about stuff",
			expected: nil,
		},
		{
			name:     "single link",
			content:  "check this out https://example.com/post",
			expected: []string{"https://example.com/post"},
		},
		{
			name:    "multiple links keep order",
			content: "first http://a.example then https://b.example",
			expected: []string{
				"http://a.example",
				"https://b.example",
			},
		},
		{
			name:    "duplicates preserved",
			content: "https://a.example and again https://a.example",
			expected: []string{
				"https://a.example",
				"https://a.example",
			},
		},
		{
			name:     "link ends at whitespace",
			content:  "see https://example.com/a\nnext line",
			expected: []string{"https://example.com/a"},
		},
		{
			name:     "sentence punctuation stripped",
			content:  "read https://example.com/article.",
			expected: []string{"https://example.com/article"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, ExtractLinks(tc.content))
		})
	}
}

func TestHasLink(t *testing.T) {
	t.Parallel()

	assert.True(t, HasLink("see https://example.com"))
	assert.False(t, HasLink("nothing here"))
}
