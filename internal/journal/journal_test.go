package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndList(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 12, 30, 0, 500, time.UTC)

	id1, err := j.Record(ctx, Edit{FilePath: "/m/a.yml", Line: 3, Key: "A", OldValue: "Old", NewValue: "Нове", CreatedAt: at})
	require.NoError(t, err)
	id2, err := j.Record(ctx, Edit{FilePath: "/m/b.yml", Line: 1, Key: "B", OldValue: "$X$ x", NewValue: "х", Missing: []string{"$X$", "[Concept('a','b')|e]"}})
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	edits, err := j.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, edits, 2)

	assert.Equal(t, "B", edits[0].Key)
	assert.Equal(t, []string{"$X$", "[Concept('a','b')|e]"}, edits[0].Missing)
	assert.False(t, edits[0].CreatedAt.IsZero())

	assert.Equal(t, id1, edits[1].ID)
	assert.Equal(t, "/m/a.yml", edits[1].FilePath)
	assert.Equal(t, 3, edits[1].Line)
	assert.Equal(t, "Old", edits[1].OldValue)
	assert.Equal(t, "Нове", edits[1].NewValue)
	assert.Nil(t, edits[1].Missing)
	assert.True(t, at.Equal(edits[1].CreatedAt))

	limited, err := j.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "B", limited[0].Key)
}

func TestModifiedFiles(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()

	for _, p := range []string{"/m/z.yml", "/m/a.yml", "/m/z.yml"} {
		_, err := j.Record(ctx, Edit{FilePath: p, Key: "K", NewValue: "v"})
		require.NoError(t, err)
	}

	files, err := j.ModifiedFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/m/a.yml", "/m/z.yml"}, files)
}

func TestOpen_PersistsOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	j, err := Open(path)
	require.NoError(t, err)
	_, err = j.Record(ctx, Edit{FilePath: "/m/a.yml", Key: "K", NewValue: "v"})
	require.NoError(t, err)
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()
	edits, err := j.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, edits, 1)
}
