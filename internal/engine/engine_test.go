package engine

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"locindex/internal/classify"
	"locindex/internal/index"
	"locindex/internal/journal"
	"locindex/internal/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

type fixture struct {
	ws      *Workspace
	modDir  string
	gameDir string
	journal *journal.Journal
}

func setup(t *testing.T) *fixture {
	t.Helper()
	modDir := t.TempDir()
	gameDir := t.TempDir()

	write(t, filepath.Join(modDir, "events", "character", "ev_l_english.yml"),
		"\xEF\xBB\xBFl_english:\n"+
			" EV_ATTACK:0 \"Attack $X$ [Concept('army','army')|e]\"\n"+
			" EV_DONE:0 \"Готово\"\n"+
			" EV_LOCAL:0 \"Only in mod #Y here#!\"\n")
	write(t, filepath.Join(gameDir, "events", "ev_l_english.yml"),
		"\xEF\xBB\xBFl_english:\n"+
			" EV_ATTACK:0 \"Attack $X$ [Concept('army','army')|e]\"\n"+
			" EV_DONE:0 \"Done\"\n")

	j, err := journal.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	ws := New(Options{
		Language:          "english",
		ReferenceLanguage: "english",
		Workers:           2,
		Classifier:        classify.MustNew("uk"),
		Journal:           j,
	})
	report, err := ws.Scan(context.Background(), modDir, gameDir, nil)
	require.NoError(t, err)
	require.NotNil(t, report.Reference)
	assert.Equal(t, 2, report.Reference.Keys)
	assert.Equal(t, 3, report.Entries.Entries)

	return &fixture{ws: ws, modDir: modDir, gameDir: gameDir, journal: j}
}

func (f *fixture) entry(t *testing.T, key string) *index.Entry {
	t.Helper()
	found := f.ws.Index.ByKey(key)
	require.Len(t, found, 1)
	return found[0]
}

func TestScan_WithoutReferenceTree(t *testing.T) {
	f := setup(t)
	ws := New(Options{})
	report, err := ws.Scan(context.Background(), f.modDir, "", nil)
	require.NoError(t, err)
	assert.Nil(t, report.Reference)
	assert.Equal(t, 3, ws.Index.Len())
}

func TestSearch(t *testing.T) {
	f := setup(t)
	got := f.ws.Search(query.Query{Category: "events/character", UntranslatedOnly: true, Sort: query.SortKey, Descending: true})
	require.Len(t, got, 2)
	assert.Equal(t, "EV_LOCAL", got[0].Key)
	assert.Equal(t, "EV_ATTACK", got[1].Key)
}

func TestReferenceAndTags(t *testing.T) {
	f := setup(t)

	ref, ok := f.ws.Reference(f.entry(t, "EV_DONE"))
	require.True(t, ok)
	assert.Equal(t, "Done", ref)

	assert.Equal(t, []string{"$X$", "[Concept('army','army')|e]"}, f.ws.ReferenceTags(f.entry(t, "EV_ATTACK")))
	// no reference: tags of the current value
	assert.Equal(t, []string{"#Y", "#!"}, f.ws.ReferenceTags(f.entry(t, "EV_LOCAL")))
	assert.Equal(t, []string{"$A$"}, ExtractTags("x $A$ y"))
}

func TestValidateEdit(t *testing.T) {
	f := setup(t)
	e := f.entry(t, "EV_ATTACK")

	res, err := f.ws.ValidateEdit(e, "Атака")
	require.NoError(t, err)
	assert.Equal(t, []string{"$X$", "[Concept('army','army')|e]"}, res.Missing)

	res, err = f.ws.ValidateEdit(e, "Атака $X$ [Concept('army','армія')|e]")
	require.NoError(t, err)
	assert.Equal(t, []string{"[Concept('army','army')|e]"}, res.Missing)

	_, err = f.ws.ValidateEdit(e, "   ")
	assert.ErrorIs(t, err, ErrEmptyValue)
}

func TestUpdate_WritesAndJournals(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e := f.entry(t, "EV_ATTACK")

	require.NoError(t, f.ws.Update(ctx, e, "Атака $X$"))
	assert.Equal(t, classify.Translated, e.State)

	data, err := os.ReadFile(e.FilePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), " EV_ATTACK:0 \"Атака $X$\"\n")

	edits, err := f.journal.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, "Attack $X$ [Concept('army','army')|e]", edits[0].OldValue)
	assert.Equal(t, "Атака $X$", edits[0].NewValue)
	assert.Equal(t, []string{"[Concept('army','army')|e]"}, edits[0].Missing)

	files, err := f.journal.ModifiedFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{e.FilePath}, files)
}

func TestUpdate_ConcurrentWithSearch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e := f.entry(t, "EV_DONE")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.ws.Update(ctx, e, "Готово знову"))
		}()
		go func() {
			defer wg.Done()
			got := f.ws.Search(query.Query{Sort: query.SortValue})
			assert.Len(t, got, 3)
			f.ws.ReferenceTags(e)
			_, err := f.ws.ValidateEdit(e, "Готово")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	edits, err := f.journal.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, edits, 4)
	// the first write replaced the scanned value, every later one its predecessor
	assert.Equal(t, "Готово", edits[3].OldValue)
	for _, ed := range edits[:3] {
		assert.Equal(t, "Готово знову", ed.OldValue)
	}
}

func TestUpdate_EmptyValueRejected(t *testing.T) {
	f := setup(t)
	e := f.entry(t, "EV_DONE")

	assert.ErrorIs(t, f.ws.Update(context.Background(), e, ""), ErrEmptyValue)
	assert.Equal(t, "Готово", e.Value)

	edits, err := f.journal.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, edits)
}

func TestContext(t *testing.T) {
	f := setup(t)
	lines, err := f.ws.Context(f.entry(t, "EV_DONE"), 1)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.True(t, lines[1].Target)
	assert.Equal(t, 3, lines[1].Number)
}

func TestLint(t *testing.T) {
	f := setup(t)
	results, err := f.ws.Lint()
	require.NoError(t, err)
	// the concept display text "army" has no Cyrillic letters
	require.Len(t, results, 1)
	require.Len(t, results[0].Issues, 1)
	assert.Equal(t, 2, results[0].Issues[0].Line)
}
