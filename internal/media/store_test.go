package media

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveRenamesAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	name, err := store.Save(strings.NewReader("fake-image"), "My Photo.JPG")
	require.NoError(t, err)

	// The original name never reaches the disk; only the extension survives.
	assert.NotContains(t, name, "My Photo")
	assert.True(t, strings.HasSuffix(name, ".jpg"))

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "fake-image", string(data))

	require.NoError(t, store.Delete(name))
	assert.NoFileExists(t, filepath.Join(dir, name))

	// Deleting again is fine.
	require.NoError(t, store.Delete(name))
}

func TestSaveRejectsUnknownExtensions(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save(strings.NewReader("x"), "payload.exe")
	assert.Error(t, err)
}

func TestDeleteRejectsPathTraversal(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Delete("../outside.jpg"))
	assert.NoError(t, store.Delete(""))
}

func TestList(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	a, err := store.Save(strings.NewReader("a"), "a.png")
	require.NoError(t, err)
	b, err := store.Save(strings.NewReader("b"), "b.png")
	require.NoError(t, err)

	names, err := store.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, names)
}
