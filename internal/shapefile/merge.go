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
	"context"
	"fmt"

	"github.com/aidingjing/shp-processor/internal/cell"
)

// Check is one compatibility check run before a merge.
type Check struct {
	Title   string `json:"title"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

// CompatibilityReport collects the checks for a set of merge inputs.
type CompatibilityReport struct {
	Checks     []*Check `json:"checks"`
	Compatible bool     `json:"compatible"`
}

func (r *CompatibilityReport) add(title string, passed bool, message string) {
	r.Checks = append(r.Checks, &Check{Title: title, Passed: passed, Message: message})
	if !passed {
		r.Compatible = false
	}
}

// CheckCompatibility verifies that the inputs can be merged into a
// single shapefile: at least two files, one shared geometry kind, and
// no conflicting projection definitions.
func CheckCompatibility(inputs []*Contents) *CompatibilityReport {
	report := &CompatibilityReport{Compatible: true}

	report.add("at least two inputs", len(inputs) >= 2,
		fmt.Sprintf("got %d input file(s)", len(inputs)))

	kinds := map[string]bool{}
	empty := []string{}
	for _, input := range inputs {
		if len(input.Features) == 0 {
			empty = append(empty, input.Path)
			continue
		}
		kinds[input.Kind.String()] = true
	}
	report.add("no empty inputs", len(empty) == 0, fmt.Sprintf("%v", empty))
	report.add("single geometry type", len(kinds) == 1, fmt.Sprintf("found %v", keys(kinds)))

	projections := map[string]bool{}
	for _, input := range inputs {
		if input.ProjectionWKT != "" {
			projections[input.ProjectionWKT] = true
		}
	}
	report.add("consistent projection", len(projections) <= 1,
		fmt.Sprintf("%d distinct projection definitions", len(projections)))

	return report
}

// Merge reads every input shapefile and writes their union to the
// output path.  Attribute columns are the union of all input columns in
// first-seen order; a feature missing a column gets an empty value.
// The output CRS is taken from the inputs' projection when it matches
// the supported table, WGS84 otherwise.
func Merge(ctx context.Context, inputs []string, output string) (*Report, error) {
	contents := make([]*Contents, len(inputs))
	for i, input := range inputs {
		read, err := Read(input)
		if err != nil {
			return nil, err
		}
		contents[i] = read
	}

	report := CheckCompatibility(contents)
	if !report.Compatible {
		for _, check := range report.Checks {
			if !check.Passed {
				return nil, validationErrorf("merge inputs are incompatible: %s (%s)", check.Title, check.Message)
			}
		}
	}

	columns := []string{}
	seen := map[string]bool{}
	for _, input := range contents {
		for _, field := range input.Fields {
			if !seen[field] {
				seen[field] = true
				columns = append(columns, field)
			}
		}
	}

	features := []Feature{}
	for _, input := range contents {
		for _, feature := range input.Features {
			attributes := make(map[string]cell.Value, len(columns))
			for _, column := range columns {
				attributes[column] = feature.Attributes[column]
			}
			features = append(features, Feature{
				Attributes: attributes,
				Sequence:   feature.Sequence,
			})
		}
	}

	crs := DefaultCRS()
	for _, input := range contents {
		if matched, ok := input.CRS(); ok {
			crs = matched
			break
		}
	}

	job := &Job{
		OutputPath: output,
		CRS:        crs.Code,
		Columns:    columns,
		Target:     contents[0].Kind,
	}
	return NewExporter(nil).Export(ctx, job, features)
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	return out
}
