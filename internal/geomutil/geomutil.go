// Copyright 2025 the shp-processor authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package geomutil provides measurement helpers for coordinate
// sequences in geographic coordinates.
package geomutil

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/aidingjing/shp-processor/internal/coordparse"
)

// EarthRadiusKm is the mean Earth radius used for spherical distances.
const EarthRadiusKm = 6371.0

// kmPerDegree approximates the length of one degree at the equator.
const kmPerDegree = 111.32

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// HaversineKm returns the great circle distance between two points in
// kilometers.  Points are (longitude, latitude) in degrees.
func HaversineKm(a orb.Point, b orb.Point) float64 {
	lat1 := radians(a[1])
	lat2 := radians(b[1])
	deltaLat := radians(b[1] - a[1])
	deltaLon := radians(b[0] - a[0])

	h := math.Pow(math.Sin(deltaLat/2), 2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(deltaLon/2), 2)
	return EarthRadiusKm * 2 * math.Asin(math.Sqrt(h))
}

// LineLengthKm sums the haversine distances between consecutive pairs.
func LineLengthKm(pairs []orb.Point) float64 {
	total := 0.0
	for i := 0; i+1 < len(pairs); i++ {
		total += HaversineKm(pairs[i], pairs[i+1])
	}
	return total
}

// RingAreaKm2 returns the approximate area of a ring in square
// kilometers.  The planar shoelace area in square degrees is scaled by
// the equatorial degree length, so the result degrades away from the
// equator.
func RingAreaKm2(pairs []orb.Point) float64 {
	ring := orb.Ring(pairs)
	areaDegrees := math.Abs(planarRingArea(ring))
	return areaDegrees * kmPerDegree * kmPerDegree
}

func planarRingArea(ring orb.Ring) float64 {
	if len(ring) < 3 {
		return 0
	}
	area := 0.0
	for i := 0; i+1 < len(ring); i++ {
		area += ring[i][0]*ring[i+1][1] - ring[i+1][0]*ring[i][1]
	}
	// close the ring if the input did not
	last := len(ring) - 1
	if ring[last] != ring[0] {
		area += ring[last][0]*ring[0][1] - ring[0][0]*ring[last][1]
	}
	return area / 2
}

// Bounds returns the bounding box of the pairs.
func Bounds(pairs []orb.Point) orb.Bound {
	if len(pairs) == 0 {
		return orb.Bound{}
	}
	bound := orb.Bound{Min: pairs[0], Max: pairs[0]}
	for _, pair := range pairs[1:] {
		bound = bound.Extend(pair)
	}
	return bound
}

// Centroid returns the arithmetic mean of the pairs.  For a closed ring
// the duplicated closing vertex is excluded.
func Centroid(pairs []orb.Point) orb.Point {
	points := pairs
	if len(points) > 1 && points[0] == points[len(points)-1] {
		points = points[:len(points)-1]
	}
	if len(points) == 0 {
		return orb.Point{}
	}
	var sumX, sumY float64
	for _, point := range points {
		sumX += point[0]
		sumY += point[1]
	}
	n := float64(len(points))
	return orb.Point{sumX / n, sumY / n}
}

// Measure reports the measurement appropriate for a sequence's kind:
// line length in kilometers for lines, area in square kilometers for
// polygons, zero for points.
func Measure(seq coordparse.Sequence) float64 {
	switch seq.Kind {
	case coordparse.Line:
		return LineLengthKm(seq.Pairs)
	case coordparse.Polygon:
		return RingAreaKm2(seq.Pairs)
	}
	return 0
}
