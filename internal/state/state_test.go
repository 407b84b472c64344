package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsEmptyState(t *testing.T) {
	st, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Empty(t, st.LastPublishedHash)
	assert.Empty(t, st.Posted)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	posted := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	st := &State{}
	st.MarkPublished("abc123", "Forest Update", posted)
	require.NoError(t, st.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abc123", loaded.LastPublishedHash)
	require.Len(t, loaded.Posted, 1)
	assert.Equal(t, "Forest Update", loaded.Posted[0].Title)
	assert.True(t, loaded.Posted[0].PostedAt.Equal(posted))
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestMarkPublishedAdvancesCursor(t *testing.T) {
	st := &State{}
	st.MarkPublished("aaa", "First", time.Now())
	st.MarkPublished("bbb", "Second", time.Now())

	assert.Equal(t, "bbb", st.LastPublishedHash)
	assert.Len(t, st.Posted, 2)
}
