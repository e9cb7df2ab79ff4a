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

// Package spatial distributes the features of a target shapefile over
// the polygons of a zone shapefile.  Points count toward every polygon
// containing them; lines and polygons go to the single polygon holding
// the largest share of their length or area.
package spatial

import (
	"context"
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/aidingjing/shp-processor/internal/coordparse"
	"github.com/aidingjing/shp-processor/internal/geomutil"
	"github.com/aidingjing/shp-processor/internal/shapefile"
)

// PolygonLayer is a polygon shapefile prepared for containment queries.
type PolygonLayer struct {
	ids    []string
	rings  []orb.Ring
	bounds []orb.Bound
}

// LoadPolygons reads a polygon shapefile.  Polygons are identified by
// the values of idColumn, or by their zero based record index when
// idColumn is empty.
func LoadPolygons(path string, idColumn string) (*PolygonLayer, error) {
	contents, err := shapefile.Read(path)
	if err != nil {
		return nil, err
	}
	if contents.Kind != coordparse.Polygon {
		return nil, fmt.Errorf("%s does not contain polygons (found %s)", path, contents.Kind)
	}

	layer := &PolygonLayer{}
	for i, feature := range contents.Features {
		if feature.Sequence == nil || feature.Sequence.Kind != coordparse.Polygon {
			continue
		}
		layer.ids = append(layer.ids, featureID(feature, idColumn, i))
		ring := orb.Ring(feature.Sequence.Pairs)
		layer.rings = append(layer.rings, ring)
		layer.bounds = append(layer.bounds, geomutil.Bounds(feature.Sequence.Pairs))
	}
	if len(layer.rings) == 0 {
		return nil, fmt.Errorf("%s contains no polygon records", path)
	}
	return layer, nil
}

// Size returns the number of polygons in the layer.
func (l *PolygonLayer) Size() int {
	return len(l.rings)
}

// containing returns the indices of polygons that contain the point.
// The bounding box check screens out most polygons before the ring
// test runs.
func (l *PolygonLayer) containing(point orb.Point) []int {
	var matches []int
	for i, bound := range l.bounds {
		if !bound.Contains(point) {
			continue
		}
		if planar.RingContains(l.rings[i], point) {
			matches = append(matches, i)
		}
	}
	return matches
}

// PolygonCount reports how many points fell inside one polygon.
type PolygonCount struct {
	ID       string   `json:"id"`
	Points   int      `json:"points"`
	PointIDs []string `json:"point_ids,omitempty"`
}

// PointsResult summarizes a points in polygons analysis.
type PointsResult struct {
	TotalPoints        int            `json:"total_points"`
	AssignedPoints     int            `json:"assigned_points"`
	UnassignedPoints   int            `json:"unassigned_points"`
	UnassignedIDs      []string       `json:"unassigned_ids,omitempty"`
	Counts             []PolygonCount `json:"counts"`
	PolygonsWithPoints int            `json:"polygons_with_points"`
	MaxPerPolygon      int            `json:"max_per_polygon"`
	AvgPerPolygon      float64        `json:"avg_per_polygon"`
}

// Result is the outcome of an analysis against one target layer.  The
// field matching the target's geometry type is set, the other two are
// nil.
type Result struct {
	Points   *PointsResult   `json:"points,omitempty"`
	Lines    *LinesResult    `json:"lines,omitempty"`
	Polygons *PolygonsResult `json:"polygons,omitempty"`
}

// Analyze reads the target shapefile and runs the analysis matching
// its geometry type.
func Analyze(ctx context.Context, layer *PolygonLayer, targetPath string, idColumn string) (*Result, error) {
	contents, err := shapefile.Read(targetPath)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	switch contents.Kind {
	case coordparse.Point:
		result.Points, err = analyzePoints(ctx, layer, contents, idColumn)
	case coordparse.Line:
		result.Lines, err = analyzeLines(ctx, layer, contents, idColumn)
	case coordparse.Polygon:
		result.Polygons, err = analyzePolygons(ctx, layer, contents, idColumn)
	default:
		err = fmt.Errorf("%s contains no analyzable geometry", targetPath)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AnalyzePoints counts the points of a point shapefile inside each
// polygon of the layer.  A point sitting in several overlapping
// polygons counts toward every one of them.  Counts come back in the
// polygon layer's record order, zero counts included.
func AnalyzePoints(ctx context.Context, layer *PolygonLayer, pointsPath string, idColumn string) (*PointsResult, error) {
	contents, err := shapefile.Read(pointsPath)
	if err != nil {
		return nil, err
	}
	return analyzePoints(ctx, layer, contents, idColumn)
}

func analyzePoints(ctx context.Context, layer *PolygonLayer, contents *shapefile.Contents, idColumn string) (*PointsResult, error) {
	if contents.Kind != coordparse.Point {
		return nil, fmt.Errorf("%s does not contain points (found %s)", contents.Path, contents.Kind)
	}

	counts := make([]PolygonCount, layer.Size())
	for i := range counts {
		counts[i].ID = layer.ids[i]
	}

	result := &PointsResult{}
	for i, feature := range contents.Features {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if feature.Sequence == nil || feature.Sequence.Kind != coordparse.Point || len(feature.Sequence.Pairs) == 0 {
			continue
		}
		result.TotalPoints += 1

		pointID := featureID(feature, idColumn, i)
		matches := layer.containing(feature.Sequence.Pairs[0])
		if len(matches) == 0 {
			result.UnassignedPoints += 1
			result.UnassignedIDs = append(result.UnassignedIDs, pointID)
			continue
		}
		result.AssignedPoints += 1
		for _, match := range matches {
			counts[match].Points += 1
			counts[match].PointIDs = append(counts[match].PointIDs, pointID)
		}
	}

	total := 0
	for _, count := range counts {
		if count.Points > 0 {
			result.PolygonsWithPoints += 1
		}
		if count.Points > result.MaxPerPolygon {
			result.MaxPerPolygon = count.Points
		}
		total += count.Points
	}
	if len(counts) > 0 {
		result.AvgPerPolygon = float64(total) / float64(len(counts))
	}
	result.Counts = counts
	return result, nil
}

func featureID(feature shapefile.Feature, idColumn string, index int) string {
	if idColumn != "" {
		if value, ok := feature.Attributes[idColumn]; ok && !value.IsNull() {
			return value.Text()
		}
	}
	return strconv.Itoa(index)
}
