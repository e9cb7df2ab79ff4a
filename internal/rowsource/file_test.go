package rowsource_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidingjing/shp-processor/internal/cell"
	"github.com/aidingjing/shp-processor/internal/rowsource"
)

func writeRowFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileJSON(t *testing.T) {
	path := writeRowFile(t, "rows.json", `[
		{"name": "alpha", "coordinates": "[[116.4, 39.9]]", "count": 3},
		{"name": "beta", "coordinates": "[[121.5, 31.2]]"}
	]`)

	source, err := rowsource.NewFile(path)
	require.NoError(t, err)

	result, err := source.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"coordinates", "count", "name"}, result.Columns)
	require.Len(t, result.Rows, 2)

	assert.Equal(t, "alpha", result.Rows[0]["name"].Text())
	assert.Equal(t, cell.Number, result.Rows[0]["count"].Type())

	_, present := result.Rows[1]["count"]
	assert.False(t, present)
}

func TestFileCSV(t *testing.T) {
	path := writeRowFile(t, "rows.csv", "name,coordinates\nalpha,\"[[116.4, 39.9]]\"\nbeta,\n")

	source, err := rowsource.NewFile(path)
	require.NoError(t, err)

	result, err := source.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "coordinates"}, result.Columns)
	require.Len(t, result.Rows, 2)

	assert.Equal(t, "[[116.4, 39.9]]", result.Rows[0]["coordinates"].Text())
	assert.True(t, result.Rows[1]["coordinates"].IsNull())
}

func TestFileCSVEmpty(t *testing.T) {
	path := writeRowFile(t, "rows.csv", "")

	source, err := rowsource.NewFile(path)
	require.NoError(t, err)

	_, err = source.Fetch(context.Background())
	assert.ErrorContains(t, err, "empty")
}

func TestFileBadJSON(t *testing.T) {
	path := writeRowFile(t, "rows.json", `{"not": "an array"}`)

	source, err := rowsource.NewFile(path)
	require.NoError(t, err)

	_, err = source.Fetch(context.Background())
	assert.Error(t, err)
}

func TestFileUnsupportedExtension(t *testing.T) {
	_, err := rowsource.NewFile("rows.parquet")
	assert.ErrorContains(t, err, "unsupported")
}

func TestFileMissing(t *testing.T) {
	source, err := rowsource.NewFile(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	_, err = source.Fetch(context.Background())
	assert.Error(t, err)
}
