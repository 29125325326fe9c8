package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type project struct {
	mod     string
	game    string
	journal string
	file    string
}

func newProject(t *testing.T) project {
	t.Helper()
	for _, k := range []string{"LOC_MOD_DIR", "LOC_GAME_DIR", "LOC_LANGUAGE", "LOC_REFERENCE_LANGUAGE", "LOC_TARGET_LANG", "LOC_WORKERS", "LOC_CONTEXT_RADIUS"} {
		t.Setenv(k, "")
	}

	p := project{mod: t.TempDir(), game: t.TempDir()}
	p.journal = filepath.Join(t.TempDir(), "journal.db")
	t.Setenv("LOC_JOURNAL", p.journal)

	p.file = filepath.Join(p.mod, "units", "units_l_english.yml")
	require.NoError(t, os.MkdirAll(filepath.Dir(p.file), 0755))
	require.NoError(t, os.WriteFile(p.file, []byte("\xEF\xBB\xBFl_english:\n"+
		" UNIT_INF:0 \"Light infantry $SIZE$\"\n"+
		" UNIT_CAV:0 \"Кавалерія\"\n"), 0644))

	ref := filepath.Join(p.game, "units", "units_l_english.yml")
	require.NoError(t, os.MkdirAll(filepath.Dir(ref), 0755))
	require.NoError(t, os.WriteFile(ref, []byte("\xEF\xBB\xBFl_english:\n"+
		" UNIT_INF:0 \"Light infantry $SIZE$\"\n"+
		" UNIT_CAV:0 \"Cavalry\"\n"), 0644))
	return p
}

func run(t *testing.T, p project, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--mod-dir", p.mod, "--game-dir", p.game, "--verbose"))
	err := cmd.Execute()
	return out.String(), err
}

func TestStats(t *testing.T) {
	p := newProject(t)
	out, err := run(t, p, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "1 / 2 entries translated (50.0%)")
	assert.Contains(t, out, "units")
}

func TestSearch(t *testing.T) {
	p := newProject(t)
	out, err := run(t, p, "search", "--untranslated", "--sort", "key")
	require.NoError(t, err)
	assert.Contains(t, out, "UNIT_INF")
	assert.NotContains(t, out, "UNIT_CAV")
	assert.Contains(t, out, "1 of 1 matches shown")

	_, err = run(t, p, "search", "--sort", "size")
	assert.Error(t, err)
}

func TestShow(t *testing.T) {
	p := newProject(t)
	out, err := run(t, p, "show", "UNIT_CAV")
	require.NoError(t, err)
	assert.Contains(t, out, "reference: Cavalry")
	assert.Contains(t, out, `UNIT_CAV:0 "Кавалерія"`)

	_, err = run(t, p, "show", "NOPE")
	assert.Error(t, err)
}

func TestSet_RefusesLossyEditWithoutForce(t *testing.T) {
	p := newProject(t)

	out, err := run(t, p, "set", p.file, "2", "Легка піхота")
	require.Error(t, err)
	assert.Contains(t, out, "$SIZE$")
	data, readErr := os.ReadFile(p.file)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "Light infantry $SIZE$")

	_, err = run(t, p, "set", "units/units_l_english.yml", "2", "Легка піхота", "--force")
	require.NoError(t, err)
	data, readErr = os.ReadFile(p.file)
	require.NoError(t, readErr)
	assert.True(t, strings.HasPrefix(string(data), "\xEF\xBB\xBFl_english:\n UNIT_INF:0 \"Легка піхота\"\n"))

	out, err = run(t, p, "journal", "--files")
	require.NoError(t, err)
	assert.Equal(t, p.file+"\n", out)
}

func TestSet_BadArguments(t *testing.T) {
	p := newProject(t)

	_, err := run(t, p, "set", p.file, "zero", "x")
	assert.Error(t, err)
	_, err = run(t, p, "set", p.file, "1", "x")
	assert.ErrorContains(t, err, "no entry")
}

func TestLint(t *testing.T) {
	p := newProject(t)
	out, err := run(t, p, "lint", "--strict")
	require.NoError(t, err)
	assert.Contains(t, out, "1 files checked, 0 warnings")
}

func TestVersion(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "locindex dev\n", out.String())
}

func TestMissingModDir(t *testing.T) {
	for _, k := range []string{"LOC_MOD_DIR", "LOC_GAME_DIR", "LOC_TARGET_LANG"} {
		t.Setenv(k, "")
	}
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"stats"})
	assert.ErrorContains(t, cmd.Execute(), "no localization directory")
}
