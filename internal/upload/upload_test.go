package upload

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestReadTextFile(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("hello world\n"))

	file, err := Read(path, "alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, "notes.txt", file.Title)
	assert.Equal(t, "hello world\n", file.Content)

	var meta Metadata
	require.NoError(t, json.Unmarshal([]byte(file.Metadata), &meta))
	assert.Equal(t, "notes.txt", meta.Filename)
	assert.Equal(t, int64(12), meta.Size)
	assert.True(t, strings.HasPrefix(meta.ContentType, "text/plain"))
	assert.Equal(t, "alice@example.com", meta.UploadedBy)
	assert.False(t, meta.UploadedAt.IsZero())
}

func TestReadBinaryFileAsText(t *testing.T) {
	// PNG magic bytes. The content still travels as a string; the
	// backend gets whatever the bytes decode to.
	data := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x01}
	path := writeFile(t, "image.png", data)

	file, err := Read(path, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, string(data), file.Content)

	var meta Metadata
	require.NoError(t, json.Unmarshal([]byte(file.Metadata), &meta))
	assert.Equal(t, "image/png", meta.ContentType)
	assert.Equal(t, int64(len(data)), meta.Size)
}

func TestReadSniffsUnknownExtension(t *testing.T) {
	path := writeFile(t, "README.unknownext", []byte("plain words"))

	file, err := Read(path, "alice@example.com")
	require.NoError(t, err)

	var meta Metadata
	require.NoError(t, json.Unmarshal([]byte(file.Metadata), &meta))
	assert.True(t, strings.HasPrefix(meta.ContentType, "text/plain"))
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent"), "alice@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}
