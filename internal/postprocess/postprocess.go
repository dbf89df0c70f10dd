// Package postprocess strips the wrapping LLM providers put around a
// translation: reasoning blocks, "Here is the translation:" preambles, code
// fences around markup, and quotes around the whole answer.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean applies every cleanup step and trims the result.
func Clean(text string) string {
	for _, step := range steps {
		text = strings.TrimSpace(step(text))
	}
	return text
}

var steps = []func(string) string{
	dropReasoning,
	dropPreamble,
	unwrapFence,
	unquote,
}

// RE2 has no backreferences, so every tag pair is spelled out.
var (
	reasoningRe = regexp.MustCompile(
		`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`)
	openReasoningRe = regexp.MustCompile(`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`)
)

// dropReasoning removes reasoning blocks, including one left open when the
// model was cut off.
func dropReasoning(text string) string {
	text = reasoningRe.ReplaceAllString(text, "")
	return openReasoningRe.ReplaceAllString(text, "")
}

// Preambles must end in a colon so that a translation that merely starts with
// "Sure" survives.
var preambleRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.!]?\s+here(?:'s| is)(?: the| your)? (?:translated |translation of the )?(?:translation|text)[^:\n]*:`),
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the| your)? (?:translated |translation of the )?(?:translation|text)[^:\n]*:`),
	regexp.MustCompile(`(?i)^(?:the )?(?:english )?(?:translation|translated text)\s*:`),
}

func dropPreamble(text string) string {
	for _, re := range preambleRes {
		if loc := re.FindStringIndex(text); loc != nil {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

var fenceRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n(.*?)\\n?```$")

// unwrapFence returns the body of a code fence that spans the whole text.
func unwrapFence(text string) string {
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return text
}

var quotePairs = [][2]rune{
	{'"', '"'},
	{'\'', '\''},
	{'«', '»'},
	{'“', '”'},
	{'‘', '’'},
}

// unquote strips one matching pair of quotes around the whole text.
func unquote(text string) string {
	runes := []rune(text)
	if len(runes) < 2 {
		return text
	}
	first, last := runes[0], runes[len(runes)-1]
	for _, pair := range quotePairs {
		if first == pair[0] && last == pair[1] {
			return string(runes[1 : len(runes)-1])
		}
	}
	return text
}
