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
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/aidingjing/shp-processor/internal/coordparse"
	"github.com/aidingjing/shp-processor/internal/geomutil"
	"github.com/aidingjing/shp-processor/internal/shapefile"
)

// LineCount reports the lines assigned to one polygon.
type LineCount struct {
	ID       string   `json:"id"`
	Lines    int      `json:"lines"`
	LineIDs  []string `json:"line_ids,omitempty"`
	LengthKm float64  `json:"length_km"`
	// AvgShare is the mean fraction of an assigned line's length that
	// falls inside this polygon.
	AvgShare float64  `json:"avg_share"`
}

// LinesResult summarizes a lines in polygons analysis.
type LinesResult struct {
	TotalLines        int         `json:"total_lines"`
	AssignedLines     int         `json:"assigned_lines"`
	UnassignedLines   int         `json:"unassigned_lines"`
	UnassignedIDs     []string    `json:"unassigned_ids,omitempty"`
	Counts            []LineCount `json:"counts"`
	PolygonsWithLines int         `json:"polygons_with_lines"`
	MaxPerPolygon     int         `json:"max_per_polygon"`
	AvgPerPolygon     float64     `json:"avg_per_polygon"`
}

// AnalyzeLines assigns each line of a line shapefile to the polygon
// holding the largest share of its length.  A line crossing several
// polygons counts toward the best match only.  LengthKm accumulates
// the full length of each assigned line, not just the inside portion.
// Counts come back in the polygon layer's record order, zero counts
// included.
func AnalyzeLines(ctx context.Context, layer *PolygonLayer, linesPath string, idColumn string) (*LinesResult, error) {
	contents, err := shapefile.Read(linesPath)
	if err != nil {
		return nil, err
	}
	return analyzeLines(ctx, layer, contents, idColumn)
}

func analyzeLines(ctx context.Context, layer *PolygonLayer, contents *shapefile.Contents, idColumn string) (*LinesResult, error) {
	if contents.Kind != coordparse.Line {
		return nil, fmt.Errorf("%s does not contain lines (found %s)", contents.Path, contents.Kind)
	}

	counts := make([]LineCount, layer.Size())
	for i := range counts {
		counts[i].ID = layer.ids[i]
	}
	shares := make([]float64, layer.Size())

	result := &LinesResult{}
	for i, feature := range contents.Features {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if feature.Sequence == nil || feature.Sequence.Kind != coordparse.Line || len(feature.Sequence.Pairs) < 2 {
			continue
		}
		result.TotalLines += 1

		lineID := featureID(feature, idColumn, i)
		bound := geomutil.Bounds(feature.Sequence.Pairs)
		best, bestShare := -1, 0.0
		for j := range layer.rings {
			if !layer.bounds[j].Intersects(bound) {
				continue
			}
			share := lineShare(feature.Sequence.Pairs, layer.rings[j])
			if share > bestShare {
				best, bestShare = j, share
			}
		}
		if best < 0 {
			result.UnassignedLines += 1
			result.UnassignedIDs = append(result.UnassignedIDs, lineID)
			continue
		}
		result.AssignedLines += 1
		counts[best].Lines += 1
		counts[best].LineIDs = append(counts[best].LineIDs, lineID)
		counts[best].LengthKm += geomutil.LineLengthKm(feature.Sequence.Pairs)
		shares[best] += bestShare
	}

	total := 0
	for i := range counts {
		if counts[i].Lines > 0 {
			result.PolygonsWithLines += 1
			counts[i].AvgShare = shares[i] / float64(counts[i].Lines)
		}
		if counts[i].Lines > result.MaxPerPolygon {
			result.MaxPerPolygon = counts[i].Lines
		}
		total += counts[i].Lines
	}
	if len(counts) > 0 {
		result.AvgPerPolygon = float64(total) / float64(len(counts))
	}
	result.Counts = counts
	return result, nil
}

// lineShare returns the fraction of the line's length that falls
// inside the ring.  A line fully contained by the ring scores 1.
func lineShare(pairs []orb.Point, ring orb.Ring) float64 {
	total := geomutil.LineLengthKm(pairs)
	if total == 0 {
		return 0
	}
	inside := 0.0
	for i := 0; i < len(pairs)-1; i++ {
		inside += insideLengthKm(pairs[i], pairs[i+1], ring)
	}
	return inside / total
}

// insideLengthKm measures the portion of the segment from a to b that
// lies inside the ring.  The parameters where the segment crosses ring
// edges split it into spans, and each span is classified by its
// midpoint.
func insideLengthKm(a, b orb.Point, ring orb.Ring) float64 {
	params := []float64{0, 1}
	for i := 0; i < len(ring); i++ {
		c := ring[i]
		d := ring[(i+1)%len(ring)]
		if t, ok := crossingParam(a, b, c, d); ok {
			params = append(params, t)
		}
	}
	sort.Float64s(params)

	length := 0.0
	for i := 0; i < len(params)-1; i++ {
		t0, t1 := params[i], params[i+1]
		if t1-t0 < 1e-12 {
			continue
		}
		mid := interpolate(a, b, (t0+t1)/2)
		if planar.RingContains(ring, mid) {
			length += geomutil.HaversineKm(interpolate(a, b, t0), interpolate(a, b, t1))
		}
	}
	return length
}

// crossingParam solves for the position along a-b where it crosses the
// edge c-d.  The second return is false when the segments miss each
// other or run parallel.
func crossingParam(a, b, c, d orb.Point) (float64, bool) {
	r := orb.Point{b[0] - a[0], b[1] - a[1]}
	s := orb.Point{d[0] - c[0], d[1] - c[1]}
	denom := r[0]*s[1] - r[1]*s[0]
	if denom == 0 {
		return 0, false
	}
	acx, acy := c[0]-a[0], c[1]-a[1]
	t := (acx*s[1] - acy*s[0]) / denom
	u := (acx*r[1] - acy*r[0]) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return 0, false
	}
	return t, true
}

func interpolate(a, b orb.Point, t float64) orb.Point {
	return orb.Point{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t}
}
