package textutil

import (
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/zeebo/xxh3"
)

// ContainsScript reports whether s has at least one letter from any of the
// given Unicode script tables.
func ContainsScript(s string, scripts ...*unicode.RangeTable) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.In(r, scripts...) {
			return true
		}
	}
	return false
}

// Hash computes an xxh3 hex digest of a string for deduplication.
func Hash(s string) string {
	return strconv.FormatUint(xxh3.HashString(s), 16)
}

// Fingerprint returns the xxh3 hash of raw file content.
func Fingerprint(data []byte) uint64 {
	return xxh3.Hash(data)
}

// Truncate shortens a string to maxLen runes, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen]) + "..."
}
