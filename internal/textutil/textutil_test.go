package textutil

import (
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
)

func TestContainsScript(t *testing.T) {
	assert.True(t, ContainsScript("Hello світ", unicode.Cyrillic))
	assert.False(t, ContainsScript("Hello world 123", unicode.Cyrillic))
	assert.True(t, ContainsScript("漢字", unicode.Cyrillic, unicode.Han))
	assert.False(t, ContainsScript("", unicode.Latin))
}

func TestHash(t *testing.T) {
	assert.Equal(t, Hash("abc"), Hash("abc"))
	assert.NotEqual(t, Hash("abc"), Hash("abd"))
	assert.NotEmpty(t, Hash(""))
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, Fingerprint([]byte("x")), Fingerprint([]byte("x")))
	assert.NotEqual(t, Fingerprint([]byte("x")), Fingerprint([]byte("y")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "hel...", Truncate("hello", 3))
	assert.Equal(t, "при...", Truncate("привіт", 3))
}
