package validate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"locindex/internal/classify"
	"locindex/internal/index"
	"locindex/internal/locfile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupOf(m map[string]string) Lookup {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestCheck_AgainstReference(t *testing.T) {
	e := &index.Entry{Key: "ATTACK", Value: "Attack"}
	refs := lookupOf(map[string]string{"ATTACK": "Attack $X$ [Concept('a','b')|e]"})

	res := Check(e, "Attack", refs)
	assert.Equal(t, BasisReference, res.Basis)
	assert.Equal(t, []string{"$X$", "[Concept('a','b')|e]"}, res.Missing)
	assert.False(t, res.OK())
	assert.Contains(t, res.Warning(), "missing 2 tag(s) from reference")

	res = Check(e, "Attack $X$ [Concept('a','b')|e] now", refs)
	assert.True(t, res.OK())
	assert.Empty(t, res.Missing)
	assert.NotNil(t, res.Missing)
	assert.Equal(t, "", res.Warning())
}

func TestCheck_FallsBackToPreviousValue(t *testing.T) {
	e := &index.Entry{Key: "NO_REF", Value: "Gain #G $AMOUNT$#! gold"}

	for name, lookup := range map[string]Lookup{
		"nil lookup":  nil,
		"missing key": lookupOf(map[string]string{}),
		"empty text":  lookupOf(map[string]string{"NO_REF": ""}),
	} {
		t.Run(name, func(t *testing.T) {
			res := Check(e, "Отримати $AMOUNT$ золота", lookup)
			assert.Equal(t, BasisPrevious, res.Basis)
			assert.Equal(t, e.Value, res.BasisText)
			assert.Equal(t, []string{"#G", "#!"}, res.Missing)
		})
	}
}

func TestCheck_SetSemantics(t *testing.T) {
	e := &index.Entry{Key: "K"}
	refs := lookupOf(map[string]string{"K": "$A$ and $A$ then $B$"})

	// one occurrence is enough, order does not matter
	assert.True(t, Check(e, "$B$ $A$", refs).OK())
	assert.Equal(t, []string{"$A$"}, Check(e, "$B$", refs).Missing)
}

const lintSample = "\xEF\xBB\xBFl_english:\n" +
	" # comment with $ and #T\n" +
	" OK:0 \"#T Title#! and $VAR$\"\n" +
	" OPEN:0 \"#T Title\"\n" +
	" DOLLAR:0 \"Costs 5$\"\n" +
	" RU:0 \"Ещё\"\n" +
	" BROKEN:0 \"no end\n" +
	" CONCEPT:0 \"[Concept('army','army')|e] і [legitimacy|e]\"\n" +
	"\n"

func TestLint(t *testing.T) {
	issues, err := Lint([]byte(lintSample), Options{Classifier: classify.MustNew("uk")})
	require.NoError(t, err)

	type found struct {
		Line     int
		Severity Severity
	}
	var got []found
	for _, i := range issues {
		got = append(got, found{i.Line, i.Severity})
	}
	assert.Equal(t, []found{
		{4, SeverityError},
		{5, SeverityError},
		{6, SeverityError},
		{7, SeverityError},
		{8, SeverityWarning},
		{8, SeverityWarning},
	}, got)
	assert.True(t, HasErrors(issues))
	assert.Contains(t, issues[2].Message, "ё")
	assert.Equal(t, "line 4: error: unbalanced style tags: 1 opened, 0 closed with #!", issues[0].String())
}

func TestLint_HeaderAndBOM(t *testing.T) {
	issues, err := Lint([]byte("l_german:\n KEY:0 \"Value\"\n"), Options{Language: "english"})
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, Issue{Line: 0, Severity: SeverityWarning, Message: "missing UTF-8 byte-order mark"}, issues[0])
	assert.Equal(t, 1, issues[1].Line)
	assert.Equal(t, SeverityError, issues[1].Severity)
	assert.False(t, HasErrors(issues[:1]))

	issues, err = Lint([]byte("\xEF\xBB\xBFl_german:\n"), Options{Language: "German"})
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestLint_ForbiddenOverride(t *testing.T) {
	data := []byte("\xEF\xBB\xBFl_english:\n K:0 \"Ґанок\"\n")

	issues, err := Lint(data, Options{Forbidden: []rune{'ґ'}})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, 2, issues[0].Line)

	issues, err = Lint(data, Options{Classifier: classify.MustNew("uk")})
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestLintFile_DecodeError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad_l_english.yml")
	require.NoError(t, os.WriteFile(path, []byte("l_english:\n K:0 \"\xff\"\n"), 0644))

	_, err := LintFile(path, Options{})
	var de *locfile.DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, path, de.Path)

	_, err = LintFile(filepath.Join(t.TempDir(), "missing.yml"), Options{})
	assert.Error(t, err)
}

func TestDefaultForbidden(t *testing.T) {
	assert.Equal(t, []rune{'ё', 'ъ', 'ы', 'э'}, DefaultForbidden("uk"))
	assert.Equal(t, []rune{'ё', 'ъ', 'ы', 'э'}, DefaultForbidden("uk-UA"))
	assert.Nil(t, DefaultForbidden("ja"))
}
