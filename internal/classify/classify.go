// Package classify decides whether a localization value still needs
// translation. Values are sorted into three states:
//
//   - Technical: no human-language content (identifiers, numbers, markup only)
//   - Translated: contains at least one letter of the target script
//   - Untranslated: everything else
//
// Technical values never need translation and count as translated in
// statistics. The target-script test is a Unicode script membership check
// derived from the target language tag.
package classify

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/language"

	"locindex/internal/tags"
	"locindex/internal/textutil"
)

// State is the translation state of a value.
type State int

const (
	Untranslated State = iota
	Translated
	Technical
)

func (s State) String() string {
	switch s {
	case Translated:
		return "translated"
	case Technical:
		return "technical"
	}
	return "untranslated"
}

// Done reports whether the value needs no further translation work.
func (s State) Done() bool { return s != Untranslated }

// DefaultTargetLang is used when no target language is configured.
const DefaultTargetLang = "uk"

// scriptTables maps ISO 15924 codes to the Unicode tables of that writing
// system. Composite codes (Jpan, Kore) cover several tables.
var scriptTables = map[string][]*unicode.RangeTable{
	"Arab": {unicode.Arabic},
	"Armn": {unicode.Armenian},
	"Beng": {unicode.Bengali},
	"Cyrl": {unicode.Cyrillic},
	"Deva": {unicode.Devanagari},
	"Geor": {unicode.Georgian},
	"Grek": {unicode.Greek},
	"Hang": {unicode.Hangul},
	"Hans": {unicode.Han},
	"Hant": {unicode.Han},
	"Hani": {unicode.Han},
	"Hebr": {unicode.Hebrew},
	"Jpan": {unicode.Han, unicode.Hiragana, unicode.Katakana},
	"Kore": {unicode.Hangul, unicode.Han},
	"Latn": {unicode.Latin},
	"Thai": {unicode.Thai},
}

var (
	// punctuation left between tags once they are removed
	residue = regexp.MustCompile(`[\s,.:;\-+=%()/\\'"]+`)

	upperIdent = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
	lowerIdent = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	mixedIdent = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
	digitsOnly = regexp.MustCompile(`^\d+$`)
)

// Classifier holds the target script used for the translated test.
type Classifier struct {
	lang    string
	scripts []*unicode.RangeTable
}

// New builds a classifier for the given BCP 47 target language tag.
func New(targetLang string) (*Classifier, error) {
	if targetLang == "" {
		targetLang = DefaultTargetLang
	}
	tag, err := language.Parse(targetLang)
	if err != nil {
		return nil, fmt.Errorf("parse target language %q: %w", targetLang, err)
	}
	script, conf := tag.Script()
	if conf == language.No {
		return nil, fmt.Errorf("target language %q: script cannot be determined", targetLang)
	}
	tables, ok := scriptTables[script.String()]
	if !ok {
		return nil, fmt.Errorf("target language %q: unsupported script %s", targetLang, script)
	}
	return &Classifier{lang: tag.String(), scripts: tables}, nil
}

// MustNew is New that panics on error. Intended for tests and constants.
func MustNew(targetLang string) *Classifier {
	c, err := New(targetLang)
	if err != nil {
		panic(err)
	}
	return c
}

// Lang returns the canonical target language tag.
func (c *Classifier) Lang() string { return c.lang }

// HasTargetScript reports whether s contains a letter of the target script.
func (c *Classifier) HasTargetScript(s string) bool {
	return textutil.ContainsScript(s, c.scripts...)
}

// IsTechnical reports whether value carries no translatable content.
func IsTechnical(value string) bool {
	stripped := strings.TrimSpace(value)
	if stripped == "" {
		return true
	}

	bare := strings.TrimSpace(tags.Strip(stripped))
	clean := residue.ReplaceAllString(bare, "")
	if clean == "" {
		return true
	}

	if digitsOnly.MatchString(clean) {
		return true
	}
	// identifiers are single words; "ATTACK NOW" is prose
	if strings.ContainsAny(bare, " \t") {
		return false
	}
	return upperIdent.MatchString(clean) || lowerIdent.MatchString(clean) || mixedIdent.MatchString(clean)
}

// Classify returns the translation state of value.
func (c *Classifier) Classify(value string) State {
	if IsTechnical(value) {
		return Technical
	}
	if c.HasTargetScript(value) {
		return Translated
	}
	if letters(tags.Strip(value)) == "" {
		return Technical
	}
	return Untranslated
}

// letters keeps only word characters that are not digits.
func letters(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsMark(r) || r == '_' {
			return r
		}
		return -1
	}, s)
}
