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

	"github.com/aidingjing/shp-processor/internal/coordparse"
)

// Orientation controls polygon ring winding in the output.
type Orientation int

const (
	// KeepOrientation writes rings in input vertex order.
	KeepOrientation Orientation = iota
	// Clockwise forces outer-ring winding required by strict shapefile
	// consumers.
	Clockwise
	// CounterClockwise forces the opposite winding.
	CounterClockwise
)

func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "keep":
		return KeepOrientation, nil
	case "cw", "clockwise":
		return Clockwise, nil
	case "ccw", "counterclockwise":
		return CounterClockwise, nil
	default:
		return KeepOrientation, validationErrorf("unsupported ring orientation %q (use keep, cw, or ccw)", s)
	}
}

// Job describes one export invocation.  A job is validated once and
// treated as immutable afterwards.
type Job struct {
	// OutputPath is the .shp file to create.  Sidecar files (.shx,
	// .dbf, .prj) are derived from it.
	OutputPath string

	// CRS identifies the coordinate reference system by name, EPSG
	// code, or bare EPSG number.  Empty selects WGS84.
	CRS string

	// Columns are the attribute columns to write, in output order.
	Columns []string

	// Target is the single geometry kind written to the file.
	Target coordparse.Kind

	// RingOrientation applies to polygon exports only.
	RingOrientation Orientation
}

// validated carries the results of job validation.
type validated struct {
	crs    CRS
	fields []fieldMapping
}

type fieldMapping struct {
	column string
	name   string
}

// Validate checks the job before any row is processed.  All failures
// here are ValidationErrors: they identify caller mistakes, not data
// or I/O problems.
func (j *Job) Validate() (*validated, error) {
	if j.Target == coordparse.Invalid {
		return nil, validationErrorf("no target geometry type selected")
	}

	if len(j.Columns) == 0 {
		return nil, validationErrorf("no attribute columns selected")
	}
	seen := map[string]bool{}
	for _, column := range j.Columns {
		if column == "" {
			return nil, validationErrorf("empty attribute column name")
		}
		if seen[column] {
			return nil, validationErrorf("duplicate attribute column %q", column)
		}
		seen[column] = true
	}

	crs, err := LookupCRS(j.CRS)
	if err != nil {
		return nil, err
	}

	if err := checkOutputPath(j.OutputPath); err != nil {
		return nil, err
	}

	return &validated{
		crs:    crs,
		fields: sanitizeColumns(j.Columns),
	}, nil
}

// Renamed returns the column→field remapping for columns whose DBF
// name differs from the source column name.
func (v *validated) Renamed() map[string]string {
	renamed := map[string]string{}
	for _, field := range v.fields {
		if field.column != field.name {
			renamed[field.column] = field.name
		}
	}
	return renamed
}

func checkOutputPath(path string) error {
	if path == "" {
		return validationErrorf("no output path given")
	}
	if !strings.EqualFold(filepath.Ext(path), ".shp") {
		return validationErrorf("output path %q must end in .shp", path)
	}

	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return validationErrorf("output directory %q does not exist", dir)
	}
	if !info.IsDir() {
		return validationErrorf("output location %q is not a directory", dir)
	}

	// probe for writability instead of interpreting permission bits
	probe, err := os.CreateTemp(dir, ".shpexport-probe-")
	if err != nil {
		return validationErrorf("output directory %q is not writable: %v", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

// dbfNameLength is the attribute name limit of the legacy DBF format.
const dbfNameLength = 10

// sanitizeColumns maps column names onto DBF-safe field names: ASCII
// letters, digits and underscore, at most 10 bytes, unique.  Collisions
// after truncation get a numeric suffix.
func sanitizeColumns(columns []string) []fieldMapping {
	taken := map[string]bool{}
	fields := make([]fieldMapping, len(columns))

	for i, column := range columns {
		name := sanitizeName(column)
		if len(name) > dbfNameLength {
			name = name[:dbfNameLength]
		}

		unique := name
		for suffix := 2; taken[strings.ToUpper(unique)]; suffix++ {
			tail := fmt.Sprintf("_%d", suffix)
			unique = name
			if len(unique)+len(tail) > dbfNameLength {
				unique = unique[:dbfNameLength-len(tail)]
			}
			unique += tail
		}
		taken[strings.ToUpper(unique)] = true

		fields[i] = fieldMapping{column: column, name: unique}
	}
	return fields
}

func sanitizeName(column string) string {
	var b strings.Builder
	for _, r := range column {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	// DBF field names must start with a letter
	name := b.String()
	if name == "" || !isLetter(name[0]) {
		name = "F" + name
	}
	return name
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
