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

package spatial

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/aidingjing/shp-processor/internal/coordparse"
	"github.com/aidingjing/shp-processor/internal/geomutil"
	"github.com/aidingjing/shp-processor/internal/shapefile"
)

// OverlapCount reports the target polygons assigned to one zone
// polygon.
type OverlapCount struct {
	ID         string   `json:"id"`
	Polygons   int      `json:"polygons"`
	PolygonIDs []string `json:"polygon_ids,omitempty"`
	// AreaKm2 is the summed area of the assigned polygons, OverlapKm2
	// the part of it inside this zone.
	AreaKm2    float64  `json:"area_km2"`
	OverlapKm2 float64  `json:"overlap_km2"`
	AvgOverlap float64  `json:"avg_overlap"`
}

// PolygonsResult summarizes a polygons in polygons analysis.
type PolygonsResult struct {
	TotalPolygons       int            `json:"total_polygons"`
	AssignedPolygons    int            `json:"assigned_polygons"`
	UnassignedPolygons  int            `json:"unassigned_polygons"`
	UnassignedIDs       []string       `json:"unassigned_ids,omitempty"`
	Counts              []OverlapCount `json:"counts"`
	PolygonsWithMatches int            `json:"polygons_with_matches"`
	MaxPerPolygon       int            `json:"max_per_polygon"`
	AvgPerPolygon       float64        `json:"avg_per_polygon"`
}

// AnalyzePolygons assigns each polygon of a polygon shapefile to the
// zone holding the largest share of its area.  A target straddling
// several zones counts toward the best match only.  Counts come back
// in the zone layer's record order, zero counts included.
func AnalyzePolygons(ctx context.Context, layer *PolygonLayer, polygonsPath string, idColumn string) (*PolygonsResult, error) {
	contents, err := shapefile.Read(polygonsPath)
	if err != nil {
		return nil, err
	}
	return analyzePolygons(ctx, layer, contents, idColumn)
}

func analyzePolygons(ctx context.Context, layer *PolygonLayer, contents *shapefile.Contents, idColumn string) (*PolygonsResult, error) {
	if contents.Kind != coordparse.Polygon {
		return nil, fmt.Errorf("%s does not contain polygons (found %s)", contents.Path, contents.Kind)
	}

	counts := make([]OverlapCount, layer.Size())
	for i := range counts {
		counts[i].ID = layer.ids[i]
	}

	result := &PolygonsResult{}
	for i, feature := range contents.Features {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if feature.Sequence == nil || feature.Sequence.Kind != coordparse.Polygon || len(feature.Sequence.Pairs) < 4 {
			continue
		}
		result.TotalPolygons += 1

		targetID := featureID(feature, idColumn, i)
		target := orb.Ring(feature.Sequence.Pairs)
		bound := geomutil.Bounds(feature.Sequence.Pairs)
		best, bestShare := -1, 0.0
		for j := range layer.rings {
			if !layer.bounds[j].Intersects(bound) {
				continue
			}
			share := overlapShare(target, layer.rings[j], bound)
			if share > bestShare {
				best, bestShare = j, share
			}
		}
		if best < 0 {
			result.UnassignedPolygons += 1
			result.UnassignedIDs = append(result.UnassignedIDs, targetID)
			continue
		}
		result.AssignedPolygons += 1
		area := geomutil.RingAreaKm2(feature.Sequence.Pairs)
		counts[best].Polygons += 1
		counts[best].PolygonIDs = append(counts[best].PolygonIDs, targetID)
		counts[best].AreaKm2 += area
		counts[best].OverlapKm2 += area * bestShare
	}

	total := 0
	for i := range counts {
		if counts[i].Polygons > 0 {
			result.PolygonsWithMatches += 1
			if counts[i].AreaKm2 > 0 {
				counts[i].AvgOverlap = counts[i].OverlapKm2 / counts[i].AreaKm2
			}
		}
		if counts[i].Polygons > result.MaxPerPolygon {
			result.MaxPerPolygon = counts[i].Polygons
		}
		total += counts[i].Polygons
	}
	if len(counts) > 0 {
		result.AvgPerPolygon = float64(total) / float64(len(counts))
	}
	result.Counts = counts
	return result, nil
}

// overlapGridCells is the per axis sampling resolution for the overlap
// estimate.
const overlapGridCells = 48

// overlapShare estimates the fraction of the target ring's area inside
// the zone ring by classifying a regular grid of sample points over
// the target's bounding box.  The estimate is deterministic for a
// given target.
func overlapShare(target, zone orb.Ring, bound orb.Bound) float64 {
	stepX := (bound.Max[0] - bound.Min[0]) / overlapGridCells
	stepY := (bound.Max[1] - bound.Min[1]) / overlapGridCells
	if stepX == 0 || stepY == 0 {
		return 0
	}

	inTarget, inZone := 0, 0
	for i := 0; i < overlapGridCells; i++ {
		x := bound.Min[0] + (float64(i)+0.5)*stepX
		for j := 0; j < overlapGridCells; j++ {
			point := orb.Point{x, bound.Min[1] + (float64(j)+0.5)*stepY}
			if !planar.RingContains(target, point) {
				continue
			}
			inTarget += 1
			if planar.RingContains(zone, point) {
				inZone += 1
			}
		}
	}
	if inTarget == 0 {
		return 0
	}
	return float64(inZone) / float64(inTarget)
}
