package shapefile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidingjing/shp-processor/internal/coordparse"
	"github.com/aidingjing/shp-processor/internal/shapefile"
)

func validJob(t *testing.T) *shapefile.Job {
	t.Helper()
	return &shapefile.Job{
		OutputPath: filepath.Join(t.TempDir(), "out.shp"),
		CRS:        "WGS84",
		Columns:    []string{"id", "name"},
		Target:     coordparse.Point,
	}
}

func TestJobValidate(t *testing.T) {
	job := validJob(t)
	_, err := job.Validate()
	assert.NoError(t, err)
}

func TestJobValidateRejectsEmptyColumns(t *testing.T) {
	job := validJob(t)
	job.Columns = nil

	_, err := job.Validate()
	var validation *shapefile.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestJobValidateRejectsDuplicateColumns(t *testing.T) {
	job := validJob(t)
	job.Columns = []string{"id", "name", "id"}

	_, err := job.Validate()
	var validation *shapefile.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestJobValidateRejectsBadCRS(t *testing.T) {
	job := validJob(t)
	job.CRS = "EPSG:1"

	_, err := job.Validate()
	var validation *shapefile.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestJobValidateRejectsMissingDirectory(t *testing.T) {
	job := validJob(t)
	job.OutputPath = filepath.Join(t.TempDir(), "missing", "out.shp")

	_, err := job.Validate()
	var validation *shapefile.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestJobValidateRejectsBadExtension(t *testing.T) {
	job := validJob(t)
	job.OutputPath = filepath.Join(t.TempDir(), "out.geojson")

	_, err := job.Validate()
	var validation *shapefile.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestJobValidateRejectsReadOnlyDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	dir := filepath.Join(t.TempDir(), "readonly")
	require.NoError(t, os.Mkdir(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	job := validJob(t)
	job.OutputPath = filepath.Join(dir, "out.shp")

	_, err := job.Validate()
	var validation *shapefile.ValidationError
	require.ErrorAs(t, err, &validation)

	// nothing may be created before validation passes
	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestParseOrientation(t *testing.T) {
	for input, expected := range map[string]shapefile.Orientation{
		"":          shapefile.KeepOrientation,
		"keep":      shapefile.KeepOrientation,
		"cw":        shapefile.Clockwise,
		"clockwise": shapefile.Clockwise,
		"CCW":       shapefile.CounterClockwise,
	} {
		orientation, err := shapefile.ParseOrientation(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, orientation, input)
	}

	_, err := shapefile.ParseOrientation("widdershins")
	assert.Error(t, err)
}
