// Package render displays section translations. Translation text always comes
// from a remote provider and is treated as untrusted: markup is passed through
// an allow-list before it is rendered anywhere.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/muesli/termenv"

	"github.com/valpere/leaftran/internal/markup"
)

// Mode selects how a translation is displayed.
type Mode int

const (
	// ModePlain shows the translation as read-only plain text.
	ModePlain Mode = iota
	// ModeMarkup shows the translation as sanitized rich markup.
	ModeMarkup
)

// ParseMode maps "plain" or "markup"/"html" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "plain", "text":
		return ModePlain, nil
	case "markup", "html", "rich":
		return ModeMarkup, nil
	}
	return ModePlain, fmt.Errorf("unknown display mode %q", s)
}

// LoadingText is shown while a translation request is outstanding.
const LoadingText = "Translating..."

// Placeholder is shown in plain mode when there is no translation yet.
const Placeholder = "Translated Text Here..."

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("h1", "h2", "h3", "p", "br", "b", "strong", "i", "em", "u", "ul", "ol", "li", "span")
	p.AllowAttrs("dir").Matching(regexp.MustCompile(`^(?i)(rtl|ltr|auto)$`)).Globally()
	return p
}

// Sanitize strips every element and attribute outside the allow-list.
func Sanitize(s string) string {
	return policy.Sanitize(s)
}

// PlainText sanitizes s and returns its text, one line per paragraph.
func PlainText(s string) string {
	return markup.PlainText(Sanitize(s))
}

// Stylesheet holds the rules for the markup region: emphasized headings and
// hidden scrollbars.
const Stylesheet = `.output-area{display:flex;flex-direction:column;flex-grow:1}
.output-box{border-radius:.375rem;border:1px solid #d1d5db;padding:.5rem;width:100%;height:14rem;color:#000;background:#e5e7eb}
.output-loading{display:flex;align-items:center;justify-content:center}
.output-markup{overflow-y:auto;-ms-overflow-style:none;scrollbar-width:none}
.output-markup::-webkit-scrollbar{display:none}
.output-markup h1{font-weight:bold;text-decoration:underline;font-size:1.25rem}
.output-markup h2{font-weight:bold;font-size:1.125rem}
`

var outputTemplate = template.Must(template.New("output").Parse(`<div class="output-area">
{{- if .Translating}}
<div class="output-box output-loading" role="status" aria-busy="true">{{.Loading}}</div>
{{- else if .Plain}}
<textarea class="output-box" placeholder="{{.Placeholder}}" readonly>{{.Text}}</textarea>
{{- else}}
<div class="output-box output-markup">{{.Markup}}</div>
{{- end}}
</div>`))

// OutputArea is the display state of one section's translation.
type OutputArea struct {
	Translation string
	Translating bool
	Mode        Mode
}

// HTML renders the area as an HTML fragment.
func (o OutputArea) HTML() (string, error) {
	data := struct {
		Translating bool
		Plain       bool
		Loading     string
		Placeholder string
		Text        string
		Markup      template.HTML
	}{
		Translating: o.Translating,
		Plain:       o.Mode == ModePlain,
		Loading:     LoadingText,
		Placeholder: Placeholder,
	}
	if data.Plain {
		data.Text = PlainText(o.Translation)
	} else {
		data.Markup = template.HTML(Sanitize(o.Translation))
	}

	var buf bytes.Buffer
	if err := outputTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render output area: %w", err)
	}
	return buf.String(), nil
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>{{.Style}}</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{- range .Sections}}
<section>
<p class="input" dir="auto">{{.Input}}</p>
{{.Output}}
</section>
{{- end}}
</body>
</html>
`))

// PageSection is one source paragraph and its output area.
type PageSection struct {
	Input  string
	Output OutputArea
}

// Page renders a standalone HTML document with Stylesheet and one output
// area per section. Input text is escaped; translations go through HTML.
func Page(title string, sections []PageSection) (string, error) {
	type rendered struct {
		Input  string
		Output template.HTML
	}
	data := struct {
		Title    string
		Style    template.CSS
		Sections []rendered
	}{Title: title, Style: template.CSS(Stylesheet)}

	for _, sec := range sections {
		out, err := sec.Output.HTML()
		if err != nil {
			return "", err
		}
		data.Sections = append(data.Sections, rendered{Input: sec.Input, Output: template.HTML(out)})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}
	return buf.String(), nil
}

// Terminal writes the area to w, styling headings and emphasis when w is a
// terminal that supports it.
func (o OutputArea) Terminal(w io.Writer) error {
	out := termenv.NewOutput(w)

	if o.Translating {
		_, err := fmt.Fprintln(w, out.String(LoadingText).Faint())
		return err
	}
	if o.Mode == ModePlain {
		text := PlainText(o.Translation)
		if text == "" {
			_, err := fmt.Fprintln(w, out.String(Placeholder).Faint())
			return err
		}
		_, err := fmt.Fprintln(w, text)
		return err
	}

	for _, p := range markup.Parse(Sanitize(o.Translation)) {
		var line strings.Builder
		if p.Style == markup.ListItem {
			line.WriteString("• ")
		}
		for _, r := range p.Runs {
			s := out.String(r.Text)
			switch p.Style {
			case markup.Heading1:
				s = s.Bold().Underline()
			case markup.Heading2, markup.Heading3:
				s = s.Bold()
			}
			if r.Bold {
				s = s.Bold()
			}
			if r.Italic {
				s = s.Italic()
			}
			if r.Underline {
				s = s.Underline()
			}
			line.WriteString(s.String())
		}
		if _, err := fmt.Fprintln(w, line.String()); err != nil {
			return err
		}
	}
	return nil
}
