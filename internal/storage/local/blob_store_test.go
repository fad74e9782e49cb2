// Package local_test tests the local filesystem blob store.
package local_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JakeFAU/pickup-checker/internal/storage/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		tempDir := t.TempDir()
		store, err := local.New(local.Config{BaseDir: tempDir})
		require.NoError(t, err)
		assert.Equal(t, tempDir, store.Dir())

		entries, err := os.ReadDir(tempDir)
		require.NoError(t, err)
		assert.Empty(t, entries, "writability probe must be cleaned up")
	})

	t.Run("CreatesMissingDir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "docs", "data")
		_, err := local.New(local.Config{BaseDir: dir})
		require.NoError(t, err)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("MissingBaseDir", func(t *testing.T) {
		_, err := local.New(local.Config{})
		assert.Error(t, err)
	})

	t.Run("BaseDirIsNotADirectory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
		_, err := local.New(local.Config{BaseDir: file})
		assert.Error(t, err)
	})

	t.Run("BaseDirNotWritable", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores directory permissions")
		}
		tempDir := t.TempDir()
		// #nosec G302 -- directory permissions adjusted intentionally for test coverage.
		require.NoError(t, os.Chmod(tempDir, 0o500))
		t.Cleanup(func() {
			// #nosec G302 -- reverting permissions to allow cleanup.
			_ = os.Chmod(tempDir, 0o700)
		})

		_, err := local.New(local.Config{BaseDir: tempDir})
		assert.Error(t, err)
	})
}

func TestPutObject(t *testing.T) {
	tempDir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: tempDir})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("ValidPut", func(t *testing.T) {
		uri, err := store.PutObject(ctx, "latest.json", "application/json", strings.NewReader(`{"rows":[]}`))
		require.NoError(t, err)
		assert.Equal(t, "file://"+filepath.Join(tempDir, "latest.json"), uri)

		// #nosec G304 -- test reads from the controlled temp directory.
		got, err := os.ReadFile(filepath.Join(tempDir, "latest.json"))
		require.NoError(t, err)
		assert.Equal(t, `{"rows":[]}`, string(got))
	})

	t.Run("OverwritesAndLeavesNoTempFiles", func(t *testing.T) {
		_, err := store.PutObject(ctx, "last.txt", "text/plain", strings.NewReader("first\n"))
		require.NoError(t, err)
		_, err = store.PutObject(ctx, "last.txt", "text/plain", bytes.NewReader([]byte("second\n")))
		require.NoError(t, err)

		// #nosec G304 -- test reads from the controlled temp directory.
		got, err := os.ReadFile(filepath.Join(tempDir, "last.txt"))
		require.NoError(t, err)
		assert.Equal(t, "second\n", string(got))

		matches, err := filepath.Glob(filepath.Join(tempDir, ".*.tmp-*"))
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("NestedPath", func(t *testing.T) {
		_, err := store.PutObject(ctx, "diag/page_no_modal.png", "image/png", bytes.NewReader([]byte{0x89, 'P', 'N', 'G'}))
		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(tempDir, "diag", "page_no_modal.png"))
		require.NoError(t, err)
	})

	t.Run("EmptyPath", func(t *testing.T) {
		_, err := store.PutObject(ctx, " ", "", strings.NewReader("x"))
		assert.Error(t, err)
	})

	t.Run("PathTraversal", func(t *testing.T) {
		_, err := store.PutObject(ctx, "../escape.txt", "", strings.NewReader("x"))
		assert.ErrorContains(t, err, "path traversal")
	})
}
