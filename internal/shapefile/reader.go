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

package shapefile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"

	"github.com/aidingjing/shp-processor/internal/cell"
	"github.com/aidingjing/shp-processor/internal/coordparse"
)

// Contents is a fully materialized shapefile: geometry kind, attribute
// schema, and one feature per record.  Attribute values come back as
// text, which is how the DBF format stores them anyway.
type Contents struct {
	Path     string
	Kind     coordparse.Kind
	Fields   []string
	Features []Feature
	// ProjectionWKT is the raw .prj sidecar content, empty when the
	// sidecar is missing.
	ProjectionWKT string
}

// Read materializes a shapefile and its sidecars.
func Read(path string) (*Contents, error) {
	if !strings.EqualFold(filepath.Ext(path), ".shp") {
		return nil, validationErrorf("input path %q must end in .shp", path)
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, &IOError{Op: fmt.Sprintf("open %q", path), Err: err}
	}
	defer reader.Close()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, field := range fields {
		names[i] = strings.TrimRight(string(field.Name[:]), "\x00")
	}

	contents := &Contents{Path: path, Fields: names}
	for reader.Next() {
		n, shape := reader.Shape()

		seq, seqErr := sequenceFromShape(shape)
		if seqErr != nil {
			return nil, fmt.Errorf("record %d of %q: %w", n+1, path, seqErr)
		}
		if contents.Kind == coordparse.Invalid {
			contents.Kind = seq.Kind
		}

		attributes := make(map[string]cell.Value, len(names))
		for f, name := range names {
			attributes[name] = cell.NewText(strings.TrimSpace(reader.ReadAttribute(n, f)))
		}
		contents.Features = append(contents.Features, Feature{
			Attributes: attributes,
			Sequence:   seq,
		})
	}
	if err := reader.Err(); err != nil {
		return nil, &IOError{Op: fmt.Sprintf("read %q", path), Err: err}
	}

	prj := strings.TrimSuffix(path, ".shp") + ".prj"
	if wkt, prjErr := os.ReadFile(prj); prjErr == nil {
		contents.ProjectionWKT = strings.TrimSpace(string(wkt))
	}
	return contents, nil
}

// CRS matches the .prj content against the supported CRS table.  The
// second return is false when the projection is missing or unknown.
func (c *Contents) CRS() (CRS, bool) {
	if c.ProjectionWKT == "" {
		return CRS{}, false
	}
	for _, crs := range SupportedCRS {
		if crs.wkt == c.ProjectionWKT {
			return crs, true
		}
	}
	return CRS{}, false
}

func sequenceFromShape(shape shp.Shape) (*coordparse.Sequence, error) {
	switch s := shape.(type) {
	case *shp.Point:
		return &coordparse.Sequence{
			Kind:  coordparse.Point,
			Pairs: []orb.Point{{s.X, s.Y}},
		}, nil
	case *shp.PolyLine:
		return &coordparse.Sequence{
			Kind:  coordparse.Line,
			Pairs: fromShpPoints(s.Points),
		}, nil
	case *shp.Polygon:
		return &coordparse.Sequence{
			Kind:  coordparse.Polygon,
			Pairs: fromShpPoints(s.Points),
		}, nil
	case *shp.Null:
		return &coordparse.Sequence{}, nil
	default:
		return nil, fmt.Errorf("unsupported shape type %T", shape)
	}
}

func fromShpPoints(points []shp.Point) []orb.Point {
	pairs := make([]orb.Point, len(points))
	for i, point := range points {
		pairs[i] = orb.Point{point.X, point.Y}
	}
	return pairs
}
