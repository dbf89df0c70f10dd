// Package validator checks that a translation is written in the script of
// its target language, which catches providers that echo the source back.
package validator

import (
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/text/language"

	"github.com/valpere/leaftran/internal/markup"
)

// MinLetters is the fewest letters a text needs before it is judged. Shorter
// texts always pass.
const MinLetters = 20

var ErrWrongScript = errors.New("translation is not in the target script")

// ISO 15924 codes to unicode.Scripts table names.
var scriptTables = map[string]string{
	"Arab": "Arabic",
	"Armn": "Armenian",
	"Cyrl": "Cyrillic",
	"Deva": "Devanagari",
	"Geor": "Georgian",
	"Grek": "Greek",
	"Hang": "Hangul",
	"Hans": "Han",
	"Hant": "Han",
	"Hebr": "Hebrew",
	"Latn": "Latin",
	"Thai": "Thai",
}

// Check returns an error wrapping ErrWrongScript when fewer than half of the
// letters in text belong to the script lang is written in. Markup is ignored.
// Languages without a known script are not checked.
func Check(text, lang string) error {
	table, ok := scriptTable(lang)
	if !ok {
		return nil
	}

	var letters, inScript int
	for _, r := range markup.PlainText(text) {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(table, r) {
			inScript++
		}
	}
	if letters < MinLetters || inScript*2 >= letters {
		return nil
	}
	return fmt.Errorf("%w: %d of %d letters are %s", ErrWrongScript, inScript, letters, lang)
}

func scriptTable(lang string) (*unicode.RangeTable, bool) {
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, false
	}
	script, conf := tag.Script()
	if conf == language.No {
		return nil, false
	}
	table, ok := unicode.Scripts[scriptTables[script.String()]]
	return table, ok
}
