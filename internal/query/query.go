// Package query filters and orders snapshots of the entry index.
package query

import (
	"fmt"
	"slices"
	"strings"

	"locindex/internal/index"
)

// SortField selects the ordering key.
type SortField int

const (
	SortNone SortField = iota
	SortKey
	SortValue
	SortCategory
	SortFile
	SortState
)

var sortNames = [...]string{"none", "key", "value", "category", "file", "state"}

func (f SortField) String() string {
	if f < 0 || int(f) >= len(sortNames) {
		return "none"
	}
	return sortNames[f]
}

// ParseSortField maps a flag value to a SortField.
func ParseSortField(s string) (SortField, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return SortNone, nil
	}
	if i := slices.Index(sortNames[:], name); i >= 0 {
		return SortField(i), nil
	}
	return SortNone, fmt.Errorf("unknown sort field %q (want key, value, category, file or state)", s)
}

// Query describes one search request.
type Query struct {
	Text             string
	Category         string
	UntranslatedOnly bool
	Sort             SortField
	Descending       bool
}

// Run filters a snapshot taken with index.Index.Entries and applies the
// requested ordering. The input slice is not modified.
func Run(entries []*index.Entry, q Query) []*index.Entry {
	f := index.Filter{Category: q.Category, UntranslatedOnly: q.UntranslatedOnly}
	out := make([]*index.Entry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}

	if q.Text != "" {
		text := index.Filter{Query: q.Text}
		kept := out[:0]
		for _, e := range out {
			if text.Match(e) {
				kept = append(kept, e)
			}
		}
		out = kept
	}

	Sort(out, q.Sort, q.Descending)
	return out
}

// Sort orders entries in place by field. The sort is stable: entries that
// compare equal keep their relative order, in both directions.
func Sort(entries []*index.Entry, field SortField, descending bool) {
	if field == SortNone {
		return
	}
	cmp := comparator(field)
	slices.SortStableFunc(entries, func(a, b *index.Entry) int {
		c := cmp(a, b)
		if descending {
			return -c
		}
		return c
	})
}

func comparator(field SortField) func(a, b *index.Entry) int {
	switch field {
	case SortKey:
		return textCmp(func(e *index.Entry) string { return e.Key })
	case SortValue:
		return textCmp(func(e *index.Entry) string { return e.Value })
	case SortCategory:
		return textCmp(func(e *index.Entry) string { return e.Category })
	case SortFile:
		return textCmp(func(e *index.Entry) string { return e.FileName() })
	case SortState:
		return func(a, b *index.Entry) int {
			return boolCmp(a.IsTranslated(), b.IsTranslated())
		}
	}
	return func(*index.Entry, *index.Entry) int { return 0 }
}

func textCmp(field func(*index.Entry) string) func(a, b *index.Entry) int {
	return func(a, b *index.Entry) int {
		return strings.Compare(strings.ToLower(field(a)), strings.ToLower(field(b)))
	}
}

// false sorts before true
func boolCmp(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}
