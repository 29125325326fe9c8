package index

import "strings"

// AllCategories is the wildcard accepted by Search.
const AllCategories = "all"

// categoryRules is checked in order; the first path segment found wins.
var categoryRules = []struct {
	segment  string
	category string
}{
	{"/events/dhe/", "events/DHE"},
	{"/events/character/", "events/character"},
	{"/events/culture/", "events/culture"},
	{"/events/", "events/other"},
	{"/interfaces/", "interfaces"},
	{"/locations/", "locations"},
	{"/missions/", "missions"},
	{"/government/", "government"},
	{"/modifiers/", "modifiers"},
	{"/units/", "units"},
}

// Categories lists every category Category can return, wildcard first.
func Categories() []string {
	out := []string{AllCategories}
	for _, r := range categoryRules {
		out = append(out, r.category)
	}
	return append(out, "other")
}

// Category derives the filter label of a file from its path segments.
func Category(path string) string {
	p := strings.ToLower(strings.ReplaceAll(path, `\`, "/"))
	for _, r := range categoryRules {
		if strings.Contains(p, r.segment) {
			return r.category
		}
	}
	return "other"
}
