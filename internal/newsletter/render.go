package newsletter

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/vanng822/go-premailer/premailer"
)

// borderColors rotate across link cards.
var borderColors = []string{"#9B8AA5", "#E8847C", "#F5A962", "#5B9AA9"}

// Placeholder keys recognized in templates.
const (
	PlaceholderLinks       = "LINKS"
	PlaceholderLinkContent = "LINK_CONTENT"
	PlaceholderIntro       = "INTRO"
)

// RenderLinkList renders a flat list of URLs as list items, one
// <li><a href="U">U</a></li> per link. An empty list renders an empty
// string.
func RenderLinkList(urls []string) string {
	var b strings.Builder
	for _, u := range urls {
		escaped := html.EscapeString(u)
		fmt.Fprintf(&b, `<li><a href="%s">%s</a></li>`, escaped, escaped)
	}
	return b.String()
}

// RenderGroups renders the curated payload as link cards grouped under
// section titles. Groups without links are skipped.
func RenderGroups(payload *Payload) string {
	var lines []string
	borderCounter := 0
	for _, group := range payload.Groups {
		if len(group.Links) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf(`<h3 class="link-group-title">%s</h3>`, html.EscapeString(group.Title)))
		for _, link := range group.Links {
			borderColor := borderColors[borderCounter%len(borderColors)]
			borderCounter++
			lines = append(lines,
				`<table role="presentation" class="link-card-table">`,
				"  <tr>",
				fmt.Sprintf(`    <td style="width: 4px; background-color: %s; border-radius: 6px 0 0 6px;"></td>`, borderColor),
				`    <td class="link-card-cell">`,
				fmt.Sprintf(`      <strong class="link-card-title">%s</strong>`, html.EscapeString(link.Title)),
				fmt.Sprintf(`      <p class="link-card-description">%s &mdash; <span class="link-card-poster">%s</span></p>`,
					html.EscapeString(link.Description), html.EscapeString(link.PostedBy)),
				fmt.Sprintf(`      <a href="%s" class="link-card-url">%s</a>`,
					html.EscapeString(link.URL), html.EscapeString(link.URL)),
				"    </td>",
				"  </tr>",
				"</table>",
			)
		}
	}
	return strings.Join(lines, "\n")
}

// RenderTemplate substitutes {{ KEY }} placeholders (whitespace inside the
// braces is tolerated) in the template with the provided variables. At least
// one link placeholder (LINKS or LINK_CONTENT) must be present and
// substituted, otherwise the template is rejected and nothing is rendered.
func RenderTemplate(template string, vars map[string]string) (string, error) {
	content := template
	replaced := make(map[string]bool, len(vars))

	for key, value := range vars {
		pattern, err := regexp.Compile(`\{\{\s*` + regexp.QuoteMeta(key) + `\s*\}\}`)
		if err != nil {
			return "", fmt.Errorf("failed to compile placeholder pattern for %q: %w", key, err)
		}
		if pattern.MatchString(content) {
			replaced[key] = true
			content = pattern.ReplaceAllLiteralString(content, value)
		}
	}

	if !replaced[PlaceholderLinks] && !replaced[PlaceholderLinkContent] {
		return "", fmt.Errorf("template is missing a link placeholder ({{ %s }} or {{ %s }})",
			PlaceholderLinks, PlaceholderLinkContent)
	}

	return content, nil
}

// InlineCSS moves the document's style rules onto the elements so email
// clients that ignore <style> blocks still render the layout.
func InlineCSS(document string) (string, error) {
	pm, err := premailer.NewPremailerFromString(document, premailer.NewOptions())
	if err != nil {
		return "", fmt.Errorf("failed to prepare CSS inliner: %w", err)
	}
	inlined, err := pm.Transform()
	if err != nil {
		return "", fmt.Errorf("failed to inline CSS: %w", err)
	}
	return inlined, nil
}
