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

// Package shapefile writes reconciled rows to an ESRI shapefile with
// its .shx, .dbf, and .prj sidecars, and reads shapefiles back for
// merging and verification.
package shapefile

import (
	"context"
	"fmt"
	"os"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"github.com/aidingjing/shp-processor/internal/cell"
	"github.com/aidingjing/shp-processor/internal/coordparse"
)

// Feature is one exportable row: attribute values plus a coordinate
// sequence already reconciled to the job's target kind.
type Feature struct {
	Attributes map[string]cell.Value
	Sequence   *coordparse.Sequence
}

// Report describes a completed export.
type Report struct {
	Written  int               `json:"written"`
	Skipped  int               `json:"skipped"`
	Reasons  []string          `json:"reasons,omitempty"`
	Files    []string          `json:"files"`
	Geometry string            `json:"geometry"`
	CRS      string            `json:"crs"`
	Renamed  map[string]string `json:"renamed,omitempty"`
	Warnings int               `json:"warnings,omitempty"`
}

type Options struct {
	Logger *zerolog.Logger
}

type Exporter struct {
	logger zerolog.Logger
}

func NewExporter(options *Options) *Exporter {
	if options == nil {
		options = &Options{}
	}
	logger := zerolog.Nop()
	if options.Logger != nil {
		logger = *options.Logger
	}
	return &Exporter{logger: logger}
}

// Export validates the job, then materializes every feature and writes
// the output files.  Features must already be filtered: every sequence
// has to match the job's target kind.  Cancellation is checked between
// rows; on cancellation or write failure every artifact the export
// created is removed, restoring the output location to its prior
// shape.  Files that already existed there stay put.
func (e *Exporter) Export(ctx context.Context, job *Job, features []Feature) (*Report, error) {
	checked, err := job.Validate()
	if err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, validationErrorf("no features to export")
	}

	shapeType, err := shapeTypeFor(job.Target)
	if err != nil {
		return nil, err
	}

	fields, fieldKinds := buildFields(checked.fields, features)

	artifacts := sidecarPaths(job.OutputPath)
	created := newArtifacts(artifacts)

	writer, err := shp.Create(job.OutputPath, shapeType)
	if err != nil {
		return nil, &IOError{Op: fmt.Sprintf("create %q", job.OutputPath), Err: err}
	}

	fail := func(cause error) error {
		writer.Close()
		removeArtifacts(created)
		return cause
	}

	writer.SetFields(fields)

	warnings := 0
	for i, feature := range features {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fail(ctxErr)
		}

		shape, buildErr := buildShape(job, feature.Sequence)
		if buildErr != nil {
			return nil, fail(fmt.Errorf("row %d: %w", i+1, buildErr))
		}
		writer.Write(shape)

		for f, mapping := range checked.fields {
			value := attributeValue(feature.Attributes[mapping.column], fieldKinds[f])
			if attrErr := writer.WriteAttribute(i, f, value); attrErr != nil {
				return nil, fail(&IOError{Op: fmt.Sprintf("write attribute %q for row %d", mapping.name, i+1), Err: attrErr})
			}
		}
		warnings += len(feature.Sequence.Warnings)
	}
	writer.Close()

	prj := strings.TrimSuffix(job.OutputPath, ".shp") + ".prj"
	if err := os.WriteFile(prj, []byte(checked.crs.WKT()), 0o644); err != nil {
		removeArtifacts(created)
		return nil, &IOError{Op: fmt.Sprintf("write %q", prj), Err: err}
	}

	if !checked.crs.IsGeographic() {
		// range warnings only apply to degree coordinates
		warnings = 0
	}

	report := &Report{
		Written:  len(features),
		Files:    artifacts,
		Geometry: job.Target.String(),
		CRS:      checked.crs.Code,
		Renamed:  checked.Renamed(),
		Warnings: warnings,
	}
	e.logger.Info().
		Int("written", report.Written).
		Str("geometry", report.Geometry).
		Str("crs", report.CRS).
		Str("output", job.OutputPath).
		Msg("export complete")
	return report, nil
}

func shapeTypeFor(kind coordparse.Kind) (shp.ShapeType, error) {
	switch kind {
	case coordparse.Point:
		return shp.POINT, nil
	case coordparse.Line:
		return shp.POLYLINE, nil
	case coordparse.Polygon:
		return shp.POLYGON, nil
	default:
		return 0, validationErrorf("no shapefile type for %s geometries", kind)
	}
}

func sidecarPaths(output string) []string {
	base := strings.TrimSuffix(output, ".shp")
	return []string{base + ".shp", base + ".shx", base + ".dbf", base + ".prj"}
}

// newArtifacts filters paths down to the ones that do not exist yet.
// A failed export removes only those, leaving whatever already lived
// at the output location in place.
func newArtifacts(paths []string) []string {
	var fresh []string
	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			fresh = append(fresh, path)
		}
	}
	return fresh
}

func removeArtifacts(paths []string) {
	for _, path := range paths {
		os.Remove(path)
	}
}

// buildShape converts a reconciled sequence into the shapefile record
// for the job's target kind.
func buildShape(job *Job, seq *coordparse.Sequence) (shp.Shape, error) {
	if seq.Kind != job.Target {
		return nil, fmt.Errorf("geometry is %s, expected %s", seq.Kind, job.Target)
	}

	switch job.Target {
	case coordparse.Point:
		pair := seq.Pairs[0]
		return &shp.Point{X: pair[0], Y: pair[1]}, nil

	case coordparse.Line:
		return shp.NewPolyLine([][]shp.Point{toShpPoints(seq.Pairs)}), nil

	case coordparse.Polygon:
		ring := orb.Ring(seq.Pairs)
		switch job.RingOrientation {
		case Clockwise:
			if ring.Orientation() == orb.CCW {
				ring = cloneRing(ring)
				ring.Reverse()
			}
		case CounterClockwise:
			if ring.Orientation() == orb.CW {
				ring = cloneRing(ring)
				ring.Reverse()
			}
		}
		polygon := shp.Polygon(*shp.NewPolyLine([][]shp.Point{toShpPoints(ring)}))
		return &polygon, nil
	}
	return nil, fmt.Errorf("unsupported target %s", job.Target)
}

func cloneRing(ring orb.Ring) orb.Ring {
	out := make(orb.Ring, len(ring))
	copy(out, ring)
	return out
}

func toShpPoints(pairs []orb.Point) []shp.Point {
	points := make([]shp.Point, len(pairs))
	for i, pair := range pairs {
		points[i] = shp.Point{X: pair[0], Y: pair[1]}
	}
	return points
}

type fieldKind int

const (
	textField fieldKind = iota
	numberField
)

// buildFields decides the DBF field layout.  A column whose non-null
// values are all numeric becomes a float field; everything else is a
// character field wide enough for the longest value.
func buildFields(mappings []fieldMapping, features []Feature) ([]shp.Field, []fieldKind) {
	fields := make([]shp.Field, len(mappings))
	kinds := make([]fieldKind, len(mappings))

	for i, mapping := range mappings {
		numeric := true
		width := 1
		nonNull := 0
		for _, feature := range features {
			value := feature.Attributes[mapping.column]
			if value.IsNull() {
				continue
			}
			nonNull++
			if _, ok := value.Number(); !ok {
				numeric = false
			}
			if n := len(value.Text()); n > width {
				width = n
			}
		}

		if numeric && nonNull > 0 {
			fields[i] = shp.FloatField(mapping.name, 18, 6)
			kinds[i] = numberField
			continue
		}
		if width > 254 {
			width = 254
		}
		fields[i] = shp.StringField(mapping.name, uint8(width))
		kinds[i] = textField
	}
	return fields, kinds
}

func attributeValue(value cell.Value, kind fieldKind) any {
	if kind == numberField {
		num, _ := value.Number()
		return num
	}
	text := value.Text()
	if len(text) > 254 {
		text = text[:254]
	}
	return text
}
