package storage_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidingjing/shp-processor/internal/storage"
)

func TestOpenLocalPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1}]`), 0o644))

	reader, err := storage.Open(context.Background(), path)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(data))
}

func TestOpenFileURL(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rows.csv"), []byte("id\n1\n"), 0o644))

	reader, err := storage.Open(context.Background(), "file://"+dir+"/rows.csv")
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "id\n1\n", string(data))
}

func TestOpenMissingLocalPath(t *testing.T) {
	_, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestOpenMalformedURL(t *testing.T) {
	_, err := storage.Open(context.Background(), "s3://bucket-only")
	assert.Error(t, err)
}
