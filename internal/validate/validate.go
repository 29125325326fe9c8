// Package validate checks edits and whole files for damaged markup.
//
// Check compares the tag set of a candidate value against its reference and
// returns the tags that would be lost. A non-empty result is a warning for
// the caller to confirm, never a refusal.
package validate

import (
	"fmt"
	"strings"

	"locindex/internal/index"
	"locindex/internal/tags"
)

// Basis says which text a candidate was compared against.
type Basis int

const (
	// BasisReference is the source-language text of the entry's key.
	BasisReference Basis = iota
	// BasisPrevious is the entry's current value, used when no reference exists.
	BasisPrevious
)

func (b Basis) String() string {
	if b == BasisPrevious {
		return "previous value"
	}
	return "reference"
}

// Lookup returns the reference text for a key.
type Lookup func(key string) (string, bool)

// Result is the outcome of Check.
type Result struct {
	Basis     Basis
	BasisText string
	// Missing lists tags of BasisText absent from the candidate, in order of
	// first appearance. Never nil.
	Missing []string
}

// OK reports whether no tag would be lost.
func (r Result) OK() bool { return len(r.Missing) == 0 }

// Warning renders the confirmation message shown before a lossy write.
func (r Result) Warning() string {
	if r.OK() {
		return ""
	}
	return fmt.Sprintf("missing %d tag(s) from %s: %s", len(r.Missing), r.Basis, strings.Join(r.Missing, ", "))
}

// Check compares candidate against the reference text of e.Key, or against
// e.Value when lookup is nil or has no non-empty text for the key.
func Check(e *index.Entry, candidate string, lookup Lookup) Result {
	res := Result{Basis: BasisPrevious, BasisText: e.Value}
	if lookup != nil {
		if ref, ok := lookup(e.Key); ok && ref != "" {
			res.Basis = BasisReference
			res.BasisText = ref
		}
	}
	res.Missing = tags.Missing(res.BasisText, candidate)
	return res
}
