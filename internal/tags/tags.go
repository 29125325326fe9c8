// Package tags recognises the inline markup that must survive translation
// unchanged: $VARIABLES$, [bracketed.Calls('x')|e], #STYLE:arg codes and their
// #! closers, @icon! references and escaped \n line breaks.
package tags

import (
	"regexp"
	"sort"
	"strings"
)

// Kind identifies the syntactic class of a tag.
type Kind int

const (
	Variable Kind = iota // $NAME$
	Bracket              // [ROOT.GetName], [Concept('a','b')|e]
	Style                // #R, #TOOLTIP:arg
	StyleEnd             // #!
	Icon                 // @gold!
	Escape               // \n
)

func (k Kind) String() string {
	switch k {
	case Variable:
		return "variable"
	case Bracket:
		return "bracket"
	case Style:
		return "style"
	case StyleEnd:
		return "style-end"
	case Icon:
		return "icon"
	case Escape:
		return "escape"
	}
	return "unknown"
}

// Tag is one matched span inside a value.
type Tag struct {
	Kind  Kind
	Text  string
	Start int
	End   int
}

// matcher finds all [start, end) spans of one tag class.
type matcher struct {
	kind Kind
	find func(text string) [][]int
}

func regexMatcher(kind Kind, re *regexp.Regexp) matcher {
	return matcher{kind: kind, find: func(text string) [][]int {
		return re.FindAllStringIndex(text, -1)
	}}
}

var matchers = []matcher{
	regexMatcher(Variable, regexp.MustCompile(`\$[^$]+\$`)),
	{kind: Bracket, find: findBrackets},
	regexMatcher(Style, regexp.MustCompile(`#[A-Z]+(?::[^\s\]]+)?`)),
	regexMatcher(StyleEnd, regexp.MustCompile(`#!`)),
	regexMatcher(Icon, regexp.MustCompile(`@[a-z_]+!`)),
	regexMatcher(Escape, regexp.MustCompile(`\\n`)),
}

// findBrackets returns balanced [...] spans. An opening bracket without a
// balanced closer falls back to the nearest following ']'.
func findBrackets(text string) [][]int {
	var spans [][]int
	for i := 0; i < len(text); i++ {
		if text[i] != '[' {
			continue
		}
		depth, end := 0, -1
		for j := i; j < len(text); j++ {
			switch text[j] {
			case '[':
				depth++
			case ']':
				depth--
			}
			if depth == 0 {
				end = j + 1
				break
			}
		}
		if end < 0 {
			if k := strings.IndexByte(text[i:], ']'); k >= 0 {
				end = i + k + 1
			}
		}
		if end < 0 {
			continue
		}
		spans = append(spans, []int{i, end})
		i = end - 1
	}
	return spans
}

// Find returns every tag in text in order of appearance. Spans nested inside
// an earlier, longer span (a $VAR$ inside a [...] call) are folded into it.
func Find(text string) []Tag {
	var all []Tag
	for _, m := range matchers {
		for _, loc := range m.find(text) {
			all = append(all, Tag{Kind: m.kind, Text: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]})
		}
	}
	if len(all) == 0 {
		return nil
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Start != all[j].Start {
			return all[i].Start < all[j].Start
		}
		return all[i].End-all[i].Start > all[j].End-all[j].Start
	})

	filtered := all[:0]
	lastEnd := -1
	for _, t := range all {
		if t.Start >= lastEnd {
			filtered = append(filtered, t)
			lastEnd = t.End
		}
	}
	return filtered
}

// Extract returns the matched substrings in order of appearance, duplicates
// included. A value without tags yields an empty (non-nil) slice.
func Extract(text string) []string {
	found := Find(text)
	out := make([]string, 0, len(found))
	for _, t := range found {
		out = append(out, t.Text)
	}
	return out
}

// Strip removes every tag span from text.
func Strip(text string) string {
	found := Find(text)
	if len(found) == 0 {
		return text
	}
	var sb strings.Builder
	pos := 0
	for _, t := range found {
		sb.WriteString(text[pos:t.Start])
		pos = t.End
	}
	sb.WriteString(text[pos:])
	return sb.String()
}
