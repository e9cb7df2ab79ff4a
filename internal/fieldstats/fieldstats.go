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

// Package fieldstats estimates which column of a result set holds
// spatial data.  It runs the coordinate parser over a deterministic
// sample of a column and aggregates the geometry kinds it sees.
package fieldstats

import (
	"sort"

	"github.com/aidingjing/shp-processor/internal/cell"
	"github.com/aidingjing/shp-processor/internal/coordparse"
)

const (
	DefaultSampleCap = 500
	DefaultThreshold = 0.5
)

type Options struct {
	// SampleCap bounds how many non-null values are parsed per column.
	// Sampling is first-N in result order so analysis is reproducible.
	SampleCap int

	// Threshold is the minimum success ratio for a field to be
	// recommended.  A field below the threshold can still be selected
	// by the caller; the flag is advisory.  Zero or negative selects
	// DefaultThreshold.
	Threshold float64
}

type Analyzer struct {
	parser    *coordparse.Parser
	sampleCap int
	threshold float64
}

func New(parser *coordparse.Parser, options *Options) *Analyzer {
	if options == nil {
		options = &Options{}
	}
	sampleCap := options.SampleCap
	if sampleCap <= 0 {
		sampleCap = DefaultSampleCap
	}
	threshold := options.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Analyzer{
		parser:    parser,
		sampleCap: sampleCap,
		threshold: threshold,
	}
}

// Result summarizes one column's sample.
type Result struct {
	Field        string                  `json:"field"`
	Sampled      int                     `json:"sampled"`
	Counts       map[coordparse.Kind]int `json:"-"`
	SuccessRatio float64                 `json:"successRatio"`
	Kind         coordparse.Kind         `json:"kind"`
	Recommended  bool                    `json:"recommended"`
	Diagnostics  []coordparse.Diagnostic `json:"diagnostics,omitempty"`
}

// Analyze parses up to the sample cap of non-null values from a column.
// Values that are not already text are coerced through the cell layer;
// anything that cannot be coerced counts as invalid rather than failing
// the analysis.
func (a *Analyzer) Analyze(field string, values []cell.Value) *Result {
	result := &Result{
		Field:  field,
		Counts: map[coordparse.Kind]int{},
	}

	for _, value := range values {
		if result.Sampled >= a.sampleCap {
			break
		}
		if value.IsNull() {
			continue
		}
		result.Sampled++

		if value.Type() == cell.Other {
			result.Counts[coordparse.Invalid]++
			continue
		}

		seq := a.parser.Parse(value.Text())
		result.Counts[seq.Kind]++
		result.Diagnostics = append(result.Diagnostics, seq.Diagnostics...)
	}

	valid := result.Sampled - result.Counts[coordparse.Invalid]
	if result.Sampled > 0 {
		result.SuccessRatio = float64(valid) / float64(result.Sampled)
	}
	result.Kind = Mode(result.Counts)
	result.Recommended = result.Kind != coordparse.Invalid && result.SuccessRatio >= a.threshold
	return result
}

// AnalyzeColumns analyzes every column of a row set and returns the
// results ordered best-first: recommended fields before the rest, then
// by success ratio, then by column order for stability.
func (a *Analyzer) AnalyzeColumns(columns []string, rows []map[string]cell.Value) []*Result {
	results := make([]*Result, len(columns))
	for i, column := range columns {
		values := make([]cell.Value, len(rows))
		for j, row := range rows {
			values[j] = row[column]
		}
		results[i] = a.Analyze(column, values)
	}

	order := map[string]int{}
	for i, column := range columns {
		order[column] = i
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Recommended != results[j].Recommended {
			return results[i].Recommended
		}
		if results[i].SuccessRatio != results[j].SuccessRatio {
			return results[i].SuccessRatio > results[j].SuccessRatio
		}
		return order[results[i].Field] < order[results[j].Field]
	})
	return results
}

// Mode returns the most frequent non-invalid kind.  Ties break toward
// the structurally least strict kind: Point beats Line beats Polygon.
func Mode(counts map[coordparse.Kind]int) coordparse.Kind {
	best := coordparse.Invalid
	bestCount := 0
	for _, kind := range []coordparse.Kind{coordparse.Point, coordparse.Line, coordparse.Polygon} {
		if counts[kind] > bestCount {
			best = kind
			bestCount = counts[kind]
		}
	}
	return best
}
