package translator

import (
	"fmt"
	"slices"
	"strings"
)

// buildSystemPrompt constructs the LLM system prompt, optionally injecting
// glossary terms, the previous paragraph for continuity, and extra
// instructions. Glossary entries are sorted so prompts are reproducible.
func buildSystemPrompt(req TranslateRequest) string {
	source := "the detected language"
	if code, err := NormalizeLang(req.SourceLang); err == nil && code != "" {
		source = LanguageName(code)
	}
	target := LanguageName(req.TargetLang)

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a professional translator. Translate the following text from %s to %s.\n", source, target)
	sb.WriteString("Only respond with the translation, nothing else. No explanations, no quotes, just the translation.")

	if req.Instructions != "" {
		sb.WriteString(" ")
		sb.WriteString(req.Instructions)
	}

	if len(req.GlossaryTerms) > 0 {
		sb.WriteString("\n\nTERMINOLOGY (use these exact translations):\n")
		terms := make([]string, 0, len(req.GlossaryTerms))
		for src := range req.GlossaryTerms {
			terms = append(terms, src)
		}
		slices.Sort(terms)
		for _, src := range terms {
			fmt.Fprintf(&sb, "  %s → %s\n", src, req.GlossaryTerms[src])
		}
	}

	if req.PreviousContext != "" {
		fmt.Fprintf(&sb, "\n\nCONTEXT (previous paragraph, do NOT retranslate it):\n...%s", req.PreviousContext)
	}

	return sb.String()
}
