package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cameronsjo/stevedore/internal/fileutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadInput(t *testing.T) {
	t.Parallel()

	t.Run("reads file content", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "compose.yml")

		content := []byte("version: \"2\"\nservices: {}\n")
		require.NoError(t, os.WriteFile(path, content, 0644))

		got, err := fileutil.ReadInput(path)
		require.NoError(t, err)
		assert.Equal(t, content, got)
	})

	t.Run("returns error for non-existent file", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "nonexistent.yml")

		_, err := fileutil.ReadInput(path)
		assert.Error(t, err)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	t.Run("writes file content", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "out.yml")

		content := []byte("version: \"2\"\n")
		err := fileutil.WriteFileAtomic(path, content)
		require.NoError(t, err)

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, content, got)
	})

	t.Run("creates parent directories", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "nested", "deep", "out.yml")

		err := fileutil.WriteFileAtomic(path, []byte("test content"))
		require.NoError(t, err)

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "test content", string(got))
	})

	t.Run("replaces existing file", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "out.yml")

		require.NoError(t, os.WriteFile(path, []byte("old"), 0644))
		require.NoError(t, fileutil.WriteFileAtomic(path, []byte("new")))

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(got))
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "out.yml")

		require.NoError(t, fileutil.WriteFileAtomic(path, []byte("content")))

		entries, err := os.ReadDir(tmpDir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "out.yml", entries[0].Name())
	})
}
