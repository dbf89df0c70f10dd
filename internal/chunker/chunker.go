// Package chunker splits long paragraphs into pieces that fit provider
// request limits, and extracts trailing context for the next piece.
package chunker

import (
	"strings"
	"unicode"
)

// DefaultContextWords is the number of words Context keeps by default.
const DefaultContextWords = 25

// Split cuts text into pieces of at most maxRunes runes. A cut prefers, in
// order, a blank line, the end of a sentence, a line break, then any space;
// without one the piece is cut hard. maxRunes <= 0 means no limit.
func Split(text string, maxRunes int) []string {
	text = strings.TrimSpace(text)
	if maxRunes <= 0 || len([]rune(text)) <= maxRunes {
		return []string{text}
	}

	var pieces []string
	rest := []rune(text)
	for len(rest) > maxRunes {
		cut := cutPoint(rest[:maxRunes])
		if piece := strings.TrimSpace(string(rest[:cut])); piece != "" {
			pieces = append(pieces, piece)
		}
		rest = []rune(strings.TrimSpace(string(rest[cut:])))
	}
	if len(rest) > 0 {
		pieces = append(pieces, string(rest))
	}
	return pieces
}

// cutPoint returns the rune index after which window should be cut.
func cutPoint(window []rune) int {
	for i := len(window) - 1; i > 0; i-- {
		if window[i] == '\n' && window[i-1] == '\n' {
			return i + 1
		}
	}
	for i := len(window) - 2; i > 0; i-- {
		if isSentenceEnd(window[i]) && unicode.IsSpace(window[i+1]) {
			return i + 1
		}
	}
	for i := len(window) - 1; i > 0; i-- {
		if window[i] == '\n' {
			return i + 1
		}
	}
	for i := len(window) - 1; i > 0; i-- {
		if unicode.IsSpace(window[i]) {
			return i
		}
	}
	return len(window)
}

// isSentenceEnd includes the Hebrew sof pasuq.
func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '׃':
		return true
	}
	return false
}

// Context returns the last words of text joined by single spaces. words <= 0
// uses DefaultContextWords.
func Context(text string, words int) string {
	if words <= 0 {
		words = DefaultContextWords
	}
	fields := strings.Fields(text)
	if len(fields) > words {
		fields = fields[len(fields)-words:]
	}
	return strings.Join(fields, " ")
}
