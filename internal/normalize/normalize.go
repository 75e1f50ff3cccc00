// Package normalize cleans up free text coming back from upstream metadata providers.
package normalize

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

var (
	// htmlTagPattern matches common HTML tags to detect if a string contains HTML.
	htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote|figure|img|table)[\s>/]`)

	// htmlTagRegex strips any tag when parsing fails.
	htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// Title returns a display title in NFC form with whitespace collapsed.
// Providers mix composed and decomposed forms for the same title
// ("Pokémon" arrives both ways), which would otherwise produce two
// distinct search documents for one show.
func Title(s string) string {
	s = norm.NFC.String(s)
	return strings.TrimSpace(collapseWhitespace(s))
}

// ContainsHTML reports whether s appears to contain HTML markup.
func ContainsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// StripHTML removes HTML tags and returns plain text.
// Handles common HTML entities and collapses whitespace.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return stripHTMLFallback(s)
	}

	var buf strings.Builder
	extractText(doc, &buf)

	return strings.TrimSpace(collapseWhitespace(buf.String()))
}

// HTMLToMarkdown converts HTML content to Markdown.
// If the input doesn't contain HTML, it's returned with whitespace collapsed.
func HTMLToMarkdown(s string) string {
	if s == "" {
		return ""
	}
	if !ContainsHTML(s) {
		return strings.TrimSpace(collapseWhitespace(s))
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return StripHTML(s)
	}

	return strings.TrimSpace(markdown)
}

// extractText recursively extracts text content from HTML nodes.
func extractText(n *html.Node, buf *strings.Builder) {
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "br", "li", "h1", "h2", "h3", "h4", "h5", "h6":
			buf.WriteString(" ")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, buf)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6":
			buf.WriteString(" ")
		}
	}
}

func stripHTMLFallback(s string) string {
	s = htmlTagRegex.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(collapseWhitespace(s))
}

func collapseWhitespace(s string) string {
	return whitespaceRegex.ReplaceAllString(s, " ")
}
