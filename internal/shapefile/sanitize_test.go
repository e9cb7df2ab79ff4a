package shapefile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeColumns(t *testing.T) {
	fields := sanitizeColumns([]string{"id", "coordinates", "坐标", "name with spaces"})

	assert.Equal(t, "id", fields[0].name)
	assert.Equal(t, "coordinate", fields[1].name)
	assert.Equal(t, "F__", fields[2].name)
	assert.Equal(t, "name_with_", fields[3].name)
}

func TestSanitizeColumnsCollisions(t *testing.T) {
	fields := sanitizeColumns([]string{"coordinates_a", "coordinates_b", "coordinates_c"})

	assert.Equal(t, "coordinate", fields[0].name)
	assert.Equal(t, "coordina_2", fields[1].name)
	assert.Equal(t, "coordina_3", fields[2].name)

	seen := map[string]bool{}
	for _, field := range fields {
		assert.False(t, seen[field.name], field.name)
		seen[field.name] = true
	}
}

func TestSanitizeColumnsLeadingDigit(t *testing.T) {
	fields := sanitizeColumns([]string{"2024_count"})
	assert.Equal(t, "F2024_coun", fields[0].name)
}
