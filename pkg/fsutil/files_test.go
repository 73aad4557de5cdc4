package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMove(t *testing.T) {
	t.Run("moves a file into an existing directory", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "src.whl")
		dst := filepath.Join(dir, "dst.whl")
		require.NoError(t, os.WriteFile(src, []byte("payload"), FileModeDefault))

		require.NoError(t, Move(src, dst))

		content, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(content))
		_, err = os.Stat(src)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("creates missing destination directories", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "src.whl")
		dst := filepath.Join(dir, "nested", "deeper", "dst.whl")
		require.NoError(t, os.WriteFile(src, []byte("payload"), FileModeDefault))

		require.NoError(t, Move(src, dst))

		_, err := os.Stat(dst)
		require.NoError(t, err)
	})

	t.Run("rejects empty paths", func(t *testing.T) {
		assert.Error(t, Move("", "/tmp/x"))
		assert.Error(t, Move("/tmp/x", ""))
	})
}

func TestCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	dst := filepath.Join(dir, "sub", "b.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), FileModeDefault))

	require.NoError(t, Copy(src, dst))

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	// Source stays in place after a copy.
	_, err = os.Stat(src)
	require.NoError(t, err)
}

func TestCleanDir(t *testing.T) {
	t.Run("removes an existing directory", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "downloads")
		require.NoError(t, EnsureDir(target))
		require.NoError(t, os.WriteFile(filepath.Join(target, "pkg.whl"), []byte("x"), FileModeDefault))

		require.NoError(t, CleanDir(target))

		_, err := os.Stat(target)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("missing directory is not an error", func(t *testing.T) {
		assert.NoError(t, CleanDir(filepath.Join(t.TempDir(), "nope")))
	})

	t.Run("rejects empty path", func(t *testing.T) {
		assert.Error(t, CleanDir(""))
	})
}
