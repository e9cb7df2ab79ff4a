package geomutil_test

import (
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"

	"github.com/aidingjing/shp-processor/internal/coordparse"
	"github.com/aidingjing/shp-processor/internal/geomutil"
)

func TestHaversineKm(t *testing.T) {
	beijing := orb.Point{116.4074, 39.9042}
	shanghai := orb.Point{121.4737, 31.2304}

	distance := geomutil.HaversineKm(beijing, shanghai)
	assert.InDelta(t, 1068, distance, 10)

	assert.Zero(t, geomutil.HaversineKm(beijing, beijing))
}

func TestLineLengthKm(t *testing.T) {
	line := []orb.Point{{0, 0}, {1, 0}, {2, 0}}
	length := geomutil.LineLengthKm(line)
	// two one degree steps along the equator
	assert.InDelta(t, 2*111.19, length, 1)

	assert.Zero(t, geomutil.LineLengthKm([]orb.Point{{1, 1}}))
	assert.Zero(t, geomutil.LineLengthKm(nil))
}

func TestRingAreaKm2(t *testing.T) {
	square := []orb.Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	area := geomutil.RingAreaKm2(square)
	assert.InDelta(t, 111.32*111.32, area, 1e-6)

	// orientation must not change the magnitude
	reversed := []orb.Point{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}}
	assert.InDelta(t, area, geomutil.RingAreaKm2(reversed), 1e-9)

	// unclosed input is closed implicitly
	open := []orb.Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	assert.InDelta(t, area, geomutil.RingAreaKm2(open), 1e-9)

	assert.Zero(t, geomutil.RingAreaKm2([]orb.Point{{0, 0}, {1, 1}}))
}

func TestBounds(t *testing.T) {
	bound := geomutil.Bounds([]orb.Point{{2, 5}, {-1, 3}, {4, -2}})
	assert.Equal(t, orb.Point{-1, -2}, bound.Min)
	assert.Equal(t, orb.Point{4, 5}, bound.Max)

	assert.Equal(t, orb.Bound{}, geomutil.Bounds(nil))
}

func TestCentroid(t *testing.T) {
	assert.Equal(t, orb.Point{1, 1}, geomutil.Centroid([]orb.Point{{0, 0}, {2, 2}}))

	// the closing vertex must not be counted twice
	ring := []orb.Point{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 0}}
	assert.Equal(t, orb.Point{1, 1}, geomutil.Centroid(ring))

	assert.Equal(t, orb.Point{}, geomutil.Centroid(nil))
}

func TestStats(t *testing.T) {
	stats := geomutil.NewStats(false)

	stats.Add(coordparse.Sequence{Kind: coordparse.Point, Pairs: []orb.Point{{116.4, 39.9}}})
	stats.Add(coordparse.Sequence{Kind: coordparse.Line, Pairs: []orb.Point{{0, 0}, {1, 0}}})
	stats.Add(coordparse.Sequence{Kind: coordparse.Polygon, Pairs: []orb.Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}})

	assert.Equal(t, 1, stats.Count(coordparse.Point))
	assert.Equal(t, 1, stats.Count(coordparse.Line))
	assert.Equal(t, 1, stats.Count(coordparse.Polygon))
	assert.Greater(t, stats.TotalLengthKm(), 0.0)
	assert.Greater(t, stats.TotalAreaKm2(), 0.0)

	bound, ok := stats.Bounds()
	assert.True(t, ok)
	assert.Equal(t, orb.Point{0, 0}, bound.Min)
	assert.Equal(t, orb.Point{116.4, 39.9}, bound.Max)
}

func TestStatsEmpty(t *testing.T) {
	stats := geomutil.NewStats(false)
	_, ok := stats.Bounds()
	assert.False(t, ok)
}

func TestStatsConcurrent(t *testing.T) {
	stats := geomutil.NewStats(true)

	wg := &sync.WaitGroup{}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				stats.Add(coordparse.Sequence{Kind: coordparse.Point, Pairs: []orb.Point{{1, 1}}})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, stats.Count(coordparse.Point))
}
