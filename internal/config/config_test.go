package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidingjing/shp-processor/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: user:pass@tcp(localhost:3306)/places
  query: SELECT * FROM places
sample_size: 100
success_threshold: 0.8
ring_orientation: cw
crs: EPSG:3857
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "user:pass@tcp(localhost:3306)/places", cfg.Database.DSN)
	assert.Equal(t, "SELECT * FROM places", cfg.Database.Query)
	assert.Equal(t, 100, cfg.SampleSize)
	assert.Equal(t, 0.8, cfg.SuccessThreshold)
	assert.Equal(t, "cw", cfg.RingOrientation)
	assert.Equal(t, "EPSG:3857", cfg.CRS)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "crs: WGS84\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	defaults := config.Default()
	assert.Equal(t, defaults.SampleSize, cfg.SampleSize)
	assert.Equal(t, defaults.SuccessThreshold, cfg.SuccessThreshold)
	assert.Equal(t, defaults.ClosingEpsilon, cfg.ClosingEpsilon)
	assert.Equal(t, defaults.MaxReasons, cfg.MaxReasons)
	assert.Equal(t, "keep", cfg.RingOrientation)
}

func TestLoadInvalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad threshold", "success_threshold: 1.5\n"},
		{"zero threshold", "success_threshold: 0\n"},
		{"zero epsilon", "closing_epsilon: 0\n"},
		{"bad sample size", "sample_size: -1\n"},
		{"bad orientation", "ring_orientation: widdershins\n"},
		{"bad yaml", "sample_size: [\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, c.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
