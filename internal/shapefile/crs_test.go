package shapefile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidingjing/shp-processor/internal/shapefile"
)

func TestLookupCRS(t *testing.T) {
	cases := []struct {
		identifier string
		code       string
	}{
		{"WGS84", "EPSG:4326"},
		{"wgs84", "EPSG:4326"},
		{"EPSG:4326", "EPSG:4326"},
		{"epsg:4326", "EPSG:4326"},
		{"4326", "EPSG:4326"},
		{"GCJ02", "EPSG:4490"},
		{"Web Mercator", "EPSG:3857"},
		{"UTM Zone 49N", "EPSG:32649"},
		{"32650", "EPSG:32650"},
		{"", "EPSG:4326"},
	}
	for _, c := range cases {
		crs, err := shapefile.LookupCRS(c.identifier)
		require.NoError(t, err, c.identifier)
		assert.Equal(t, c.code, crs.Code, c.identifier)
		assert.NotEmpty(t, crs.WKT(), c.identifier)
	}
}

func TestLookupCRSUnknown(t *testing.T) {
	for _, identifier := range []string{"EPSG:9999", "Mars2000", "0"} {
		_, err := shapefile.LookupCRS(identifier)
		require.Error(t, err, identifier)
		var validation *shapefile.ValidationError
		assert.ErrorAs(t, err, &validation, identifier)
	}
}

func TestCRSIsGeographic(t *testing.T) {
	wgs84, err := shapefile.LookupCRS("WGS84")
	require.NoError(t, err)
	assert.True(t, wgs84.IsGeographic())

	mercator, err := shapefile.LookupCRS("EPSG:3857")
	require.NoError(t, err)
	assert.False(t, mercator.IsGeographic())
}
