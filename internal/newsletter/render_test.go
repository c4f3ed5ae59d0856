package newsletter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderLinkList(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		urls     []string
		expected string
	}{
		{
			name:     "empty list",
			urls:     nil,
			expected: "",
		},
		{
			name:     "single url",
			urls:     []string{"https://a.com"},
			expected: `<li><a href="https://a.com">https://a.com</a></li>`,
		},
		{
			name: "two urls in order",
			urls: []string{"https://a.com", "https://b.com"},
			expected: `<li><a href="https://a.com">https://a.com</a></li>` +
				`<li><a href="https://b.com">https://b.com</a></li>`,
		},
		{
			name:     "url with ampersand escaped",
			urls:     []string{"https://a.com/?x=1&y=2"},
			expected: `<li><a href="https://a.com/?x=1&amp;y=2">https://a.com/?x=1&amp;y=2</a></li>`,
		},
		{
			name:     "backslash kept verbatim in href and text",
			urls:     []string{`https://example.com/a\b`},
			expected: `<li><a href="https://example.com/a\b">https://example.com/a\b</a></li>`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, RenderLinkList(tc.urls))
		})
	}
}

func TestRenderTemplateLinkList(t *testing.T) {
	t.Parallel()

	rendered, err := RenderTemplate("<ul>{{ LINKS }}</ul>", map[string]string{
		PlaceholderLinks: RenderLinkList([]string{"https://a.com", "https://b.com"}),
	})
	require.NoError(t, err)
	assert.Equal(t,
		`<ul><li><a href="https://a.com">https://a.com</a></li>`+
			`<li><a href="https://b.com">https://b.com</a></li></ul>`,
		rendered)
}

func TestRenderTemplate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		template string
		vars     map[string]string
		expected string
		wantErr  string
	}{
		{
			name:     "substitutes intro and content",
			template: "<p>{{ INTRO }}</p>\n{{ LINK_CONTENT }}",
			vars:     map[string]string{"INTRO": "Hello!", "LINK_CONTENT": "<div>cards</div>"},
			expected: "<p>Hello!</p>\n<div>cards</div>",
		},
		{
			name:     "tolerates whitespace variants",
			template: "{{LINK_CONTENT}} and {{  LINK_CONTENT  }}",
			vars:     map[string]string{"LINK_CONTENT": "X"},
			expected: "X and X",
		},
		{
			name:     "unknown placeholders survive",
			template: "{{ LINKS }} {{ UnsubscribeURL }}",
			vars:     map[string]string{"LINKS": "L"},
			expected: "L {{ UnsubscribeURL }}",
		},
		{
			name:     "missing link placeholder rejected",
			template: "<p>{{ INTRO }}</p>",
			vars:     map[string]string{"INTRO": "Hello!", "LINK_CONTENT": "cards"},
			wantErr:  "missing a link placeholder",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rendered, err := RenderTemplate(tc.template, tc.vars)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				assert.Empty(t, rendered)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, rendered)
		})
	}
}

func TestRenderGroups(t *testing.T) {
	t.Parallel()

	payload := &Payload{
		Groups: []Group{
			{
				Title: "Tools & Tips",
				Links: []Link{
					{
						Title:       "A Neat Tool",
						Description: "Does neat things",
						URL:         "https://a.example/tool",
						PostedBy:    "ada",
					},
					{
						Title:       "Another One",
						Description: "Also neat",
						URL:         "https://b.example/other",
						PostedBy:    "bob",
					},
				},
			},
			{Title: "Empty Section"},
		},
	}

	rendered := RenderGroups(payload)

	assert.Contains(t, rendered, `<h3 class="link-group-title">Tools &amp; Tips</h3>`)
	assert.NotContains(t, rendered, "Empty Section")
	assert.Contains(t, rendered, `<strong class="link-card-title">A Neat Tool</strong>`)
	assert.Contains(t, rendered, `Does neat things &mdash; <span class="link-card-poster">ada</span>`)
	assert.Contains(t, rendered, `<a href="https://a.example/tool" class="link-card-url">https://a.example/tool</a>`)

	// Border colors rotate per card.
	assert.Contains(t, rendered, "background-color: #9B8AA5")
	assert.Contains(t, rendered, "background-color: #E8847C")
	assert.Equal(t, 2, strings.Count(rendered, `<table role="presentation" class="link-card-table">`))
}

func TestRenderGroupsEmptyPayload(t *testing.T) {
	t.Parallel()

	assert.Empty(t, RenderGroups(&Payload{}))
}

func TestInlineCSS(t *testing.T) {
	t.Parallel()

	document := `<html><head><style>p { color: #112233; }</style></head><body><p>hi</p></body></html>`
	inlined, err := InlineCSS(document)
	require.NoError(t, err)
	assert.Contains(t, inlined, `style="color: #112233`)
}

func TestPayloadTotalLinks(t *testing.T) {
	t.Parallel()

	payload := &Payload{
		Groups: []Group{
			{Links: []Link{{URL: "https://a"}, {URL: "https://b"}}},
			{Links: []Link{{URL: "https://c"}}},
			{},
		},
	}
	assert.Equal(t, 3, payload.TotalLinks())
	assert.Equal(t, []string{"https://a", "https://b", "https://c"}, payload.URLs())
}
