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

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/aidingjing/shp-processor/internal/spatial"
)

type StatsCmd struct {
	Polygons  string `arg:"" name:"polygons" help:"Polygon shapefile." type:"existingfile"`
	Target    string `arg:"" name:"target" help:"Point, line, or polygon shapefile to distribute over the polygons." type:"existingfile"`
	PolygonID string `help:"Attribute column identifying each polygon.  Record index when omitted."`
	TargetID  string `help:"Attribute column identifying each target feature.  Record index when omitted."`
	Format    string `help:"Report format.  Possible values: ${enum}." enum:"text, json" default:"text"`
	Unpretty  bool   `help:"No newlines or indentation in the JSON output."`
}

func (c *StatsCmd) Run() error {
	layer, err := spatial.LoadPolygons(c.Polygons, c.PolygonID)
	if err != nil {
		return NewCommandError("%w", err)
	}

	result, err := spatial.Analyze(context.Background(), layer, c.Target, c.TargetID)
	if err != nil {
		return NewCommandError("%w", err)
	}

	if c.Format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		if !c.Unpretty {
			encoder.SetIndent("", "  ")
			encoder.SetEscapeHTML(false)
		}
		return encoder.Encode(result)
	}

	switch {
	case result.Points != nil:
		printPoints(result.Points)
	case result.Lines != nil:
		printLines(result.Lines)
	case result.Polygons != nil:
		printOverlaps(result.Polygons)
	}
	return nil
}

func printPoints(result *spatial.PointsResult) {
	tbl := newStatsTable(table.Row{"Polygon", "Points"})
	for _, count := range result.Counts {
		tbl.AppendRow(table.Row{count.ID, count.Points})
	}
	tbl.AppendFooter(table.Row{"Unassigned", result.UnassignedPoints})
	tbl.Render()

	fmt.Printf("\n%d of %d point%s assigned, %d of %d polygon%s occupied (max %d, mean %.1f).\n",
		result.AssignedPoints, result.TotalPoints, maybeS(result.TotalPoints),
		result.PolygonsWithPoints, len(result.Counts), maybeS(len(result.Counts)),
		result.MaxPerPolygon, result.AvgPerPolygon)
}

func printLines(result *spatial.LinesResult) {
	tbl := newStatsTable(table.Row{"Polygon", "Lines", "Length (km)", "Mean share"})
	for _, count := range result.Counts {
		tbl.AppendRow(table.Row{count.ID, count.Lines,
			fmt.Sprintf("%.2f", count.LengthKm), fmt.Sprintf("%.2f", count.AvgShare)})
	}
	tbl.AppendFooter(table.Row{"Unassigned", result.UnassignedLines, "", ""})
	tbl.Render()

	fmt.Printf("\n%d of %d line%s assigned, %d of %d polygon%s occupied (max %d, mean %.1f).\n",
		result.AssignedLines, result.TotalLines, maybeS(result.TotalLines),
		result.PolygonsWithLines, len(result.Counts), maybeS(len(result.Counts)),
		result.MaxPerPolygon, result.AvgPerPolygon)
}

func printOverlaps(result *spatial.PolygonsResult) {
	tbl := newStatsTable(table.Row{"Polygon", "Matches", "Area (km²)", "Overlap (km²)"})
	for _, count := range result.Counts {
		tbl.AppendRow(table.Row{count.ID, count.Polygons,
			fmt.Sprintf("%.2f", count.AreaKm2), fmt.Sprintf("%.2f", count.OverlapKm2)})
	}
	tbl.AppendFooter(table.Row{"Unassigned", result.UnassignedPolygons, "", ""})
	tbl.Render()

	fmt.Printf("\n%d of %d polygon%s assigned, %d of %d zone%s occupied (max %d, mean %.1f).\n",
		result.AssignedPolygons, result.TotalPolygons, maybeS(result.TotalPolygons),
		result.PolygonsWithMatches, len(result.Counts), maybeS(len(result.Counts)),
		result.MaxPerPolygon, result.AvgPerPolygon)
}

func newStatsTable(header table.Row) table.Writer {
	tbl := table.NewWriter()
	tbl.AppendHeader(header)
	tbl.SetStyle(table.StyleRounded)
	tbl.SetOutputMirror(os.Stdout)
	return tbl
}
