package tags

import "regexp"

// Set is an unordered collection of tag texts.
type Set map[string]struct{}

// SetOf collects the tags of text into a set.
func SetOf(text string) Set {
	s := make(Set)
	for _, t := range Find(text) {
		s[t.Text] = struct{}{}
	}
	return s
}

// Has reports whether tag is in the set.
func (s Set) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Missing returns the tags of reference that do not occur in candidate, in
// their order of first appearance in reference.
func Missing(reference, candidate string) []string {
	have := SetOf(candidate)
	seen := make(Set)
	missing := []string{}
	for _, t := range Find(reference) {
		if have.Has(t.Text) || seen.Has(t.Text) {
			continue
		}
		seen[t.Text] = struct{}{}
		missing = append(missing, t.Text)
	}
	return missing
}

// Concept is a [Concept('key','text')|e] reference.
type Concept struct {
	Key  string
	Text string
	Tag  string
}

var conceptPattern = regexp.MustCompile(`^\[Concept\(\s*['"]([^'"]+)['"]\s*,\s*['"]([^'"]*)['"]\s*\)(?:\|[A-Za-z]+)?\]$`)

// Concepts returns the concept references found in text.
func Concepts(text string) []Concept {
	var out []Concept
	for _, t := range Find(text) {
		if t.Kind != Bracket {
			continue
		}
		if m := conceptPattern.FindStringSubmatch(t.Text); m != nil {
			out = append(out, Concept{Key: m[1], Text: m[2], Tag: t.Text})
		}
	}
	return out
}
