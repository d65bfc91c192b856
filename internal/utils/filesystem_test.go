package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanExportInto(t *testing.T) {
	root := t.TempDir()

	assert.True(t, CanExportInto(filepath.Join(root, "missing")))
	assert.True(t, CanExportInto(root))

	busy := filepath.Join(root, "busy")
	require.NoError(t, os.MkdirAll(busy, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(busy, "notes.txt"), []byte("x"), 0644))
	assert.False(t, CanExportInto(busy))

	require.NoError(t, os.MkdirAll(filepath.Join(busy, ".git"), 0755))
	assert.True(t, HasGitRepo(busy))
	assert.True(t, CanExportInto(busy))

	file := filepath.Join(busy, "notes.txt")
	assert.False(t, DirectoryExists(file))
	assert.False(t, CanExportInto(file))
}
