// Package markup parses translation markup into paragraphs of styled runs.
// It understands the small tag set translations use (headings, paragraphs,
// line breaks, list items and bold/italic/underline) and ignores the rest.
package markup

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Style is the block style of a paragraph.
type Style int

const (
	Normal Style = iota
	Heading1
	Heading2
	Heading3
	ListItem
)

// Run is a span of text with uniform formatting.
type Run struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
}

// Paragraph is one block of text.
type Paragraph struct {
	Style Style
	Runs  []Run
}

// Text returns the paragraph's text without formatting.
func (p Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

type parser struct {
	paragraphs []Paragraph
	current    Paragraph
	style      Style
	bold       int
	italic     int
	underline  int
	skip       int
}

// Parse splits markup into paragraphs. A <br>, a block boundary or a newline
// in text ends the current paragraph; paragraphs without visible text are
// dropped. Plain text without tags parses as one paragraph per line.
func Parse(markup string) []Paragraph {
	p := &parser{}
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or a read error; either way the input is exhausted.
			return p.finish()
		case html.TextToken:
			if p.skip == 0 {
				p.text(string(z.Text()))
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			p.start(atom.Lookup(name), tt == html.SelfClosingTagToken)
		case html.EndTagToken:
			name, _ := z.TagName()
			p.end(atom.Lookup(name))
		}
	}
}

// PlainText returns the text of markup with one line per paragraph.
func PlainText(markup string) string {
	paragraphs := Parse(markup)
	lines := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		lines = append(lines, p.Text())
	}
	return strings.Join(lines, "\n")
}

func (p *parser) start(a atom.Atom, selfClosing bool) {
	switch a {
	case atom.Script, atom.Style:
		if !selfClosing {
			p.skip++
		}
	case atom.Br:
		p.flush()
	case atom.H1:
		p.block(Heading1)
	case atom.H2:
		p.block(Heading2)
	case atom.H3:
		p.block(Heading3)
	case atom.Li:
		p.block(ListItem)
	case atom.P, atom.Div, atom.Ul, atom.Ol:
		p.block(Normal)
	case atom.B, atom.Strong:
		p.bold++
	case atom.I, atom.Em:
		p.italic++
	case atom.U:
		p.underline++
	}
}

func (p *parser) end(a atom.Atom) {
	switch a {
	case atom.Script, atom.Style:
		if p.skip > 0 {
			p.skip--
		}
	case atom.H1, atom.H2, atom.H3, atom.Li, atom.P, atom.Div, atom.Ul, atom.Ol:
		p.block(Normal)
	case atom.B, atom.Strong:
		p.bold = max(p.bold-1, 0)
	case atom.I, atom.Em:
		p.italic = max(p.italic-1, 0)
	case atom.U:
		p.underline = max(p.underline-1, 0)
	}
}

func (p *parser) block(s Style) {
	p.flush()
	p.style = s
	p.current.Style = s
}

func (p *parser) text(s string) {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if i > 0 {
			p.flush()
		}
		if line == "" {
			continue
		}
		run := Run{Text: line, Bold: p.bold > 0, Italic: p.italic > 0, Underline: p.underline > 0}
		if n := len(p.current.Runs); n > 0 {
			last := &p.current.Runs[n-1]
			if last.Bold == run.Bold && last.Italic == run.Italic && last.Underline == run.Underline {
				last.Text += run.Text
				continue
			}
		}
		p.current.Runs = append(p.current.Runs, run)
	}
}

func (p *parser) flush() {
	if strings.TrimSpace(p.current.Text()) != "" {
		runs := p.current.Runs
		runs[0].Text = strings.TrimLeft(runs[0].Text, " \t\r")
		runs[len(runs)-1].Text = strings.TrimRight(runs[len(runs)-1].Text, " \t\r")
		runs = slices.DeleteFunc(runs, func(r Run) bool { return r.Text == "" })
		p.paragraphs = append(p.paragraphs, Paragraph{Style: p.current.Style, Runs: runs})
	}
	p.current = Paragraph{Style: p.style}
}

func (p *parser) finish() []Paragraph {
	p.flush()
	return p.paragraphs
}
