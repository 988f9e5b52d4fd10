package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestHasCandidateExt(t *testing.T) {
	assert.True(t, hasCandidateExt("movie.mkv"))
	assert.True(t, hasCandidateExt("MOVIE.MKV"))
	assert.True(t, hasCandidateExt("clip.wmv"))
	assert.False(t, hasCandidateExt("notes.txt"))
	assert.False(t, hasCandidateExt("archive.mkv.bak"))
	assert.False(t, hasCandidateExt("noext"))
}

func TestCollectFilesOrderAndFilter(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.mkv"))
	touch(t, filepath.Join(root, "A.mp4"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "shows", "ep2.ts"))
	touch(t, filepath.Join(root, "shows", "Ep1.MKV"))
	touch(t, filepath.Join(root, "Zmovies", "old.avi"))

	files, err := collectFiles(root)
	require.NoError(t, err)

	// Files of a directory come before its subdirectories, both in
	// case-insensitive name order.
	assert.Equal(t, []string{
		filepath.Join(root, "A.mp4"),
		filepath.Join(root, "b.mkv"),
		filepath.Join(root, "shows", "Ep1.MKV"),
		filepath.Join(root, "shows", "ep2.ts"),
		filepath.Join(root, "Zmovies", "old.avi"),
	}, files)
}

func TestCollectFilesMissingRoot(t *testing.T) {
	_, err := collectFiles(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
