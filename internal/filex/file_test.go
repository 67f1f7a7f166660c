package filex

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_KindFromExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "notes.txt", f.Name)
	assert.EqualValues(t, 5, f.Size)
	assert.Contains(t, f.Kind, "text/plain")
}

func TestOpen_SniffsAndRewinds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noext")
	content := []byte("%PDF-1.4 rest of file")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "application/pdf", f.Kind)

	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, content, got, "reader starts at the beginning after sniffing")
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Open(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a regular file")
}
