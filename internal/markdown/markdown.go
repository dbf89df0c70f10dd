// Package markdown converts LLM answers written in markdown into the markup
// the editor displays.
package markdown

import (
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// markdownHints match constructs LLMs emit when they answer in markdown:
// ATX headings, emphasis, and bullet or numbered lists.
var markdownHints = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^#{1,6}\s+\S`),
	regexp.MustCompile(`\*\*[^*\n]+\*\*`),
	regexp.MustCompile(`(?m)^\s*[-*]\s+\S`),
	regexp.MustCompile(`(?m)^\s*\d+\.\s+\S`),
}

var tagRe = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9]*[^>]*>`)

// IsMarkdown reports whether text looks like markdown rather than markup or
// plain prose. Text that already contains tags is treated as markup.
func IsMarkdown(text string) bool {
	if tagRe.MatchString(text) {
		return false
	}
	for _, re := range markdownHints {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// ToHTML renders md to HTML. Raw HTML in the input is skipped.
func ToHTML(md string) string {
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.SkipHTML | html.SkipImages,
	})
	p := parser.NewWithExtensions(parser.CommonExtensions &^ parser.MathJax)
	doc := p.Parse([]byte(md))
	return strings.TrimSpace(string(markdown.Render(doc, renderer)))
}

// Normalize returns text as markup: markdown is rendered, anything else is
// returned unchanged.
func Normalize(text string) string {
	if IsMarkdown(text) {
		return ToHTML(text)
	}
	return text
}
