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

// Package rowsource reads tabular rows from databases and row files and
// normalizes every value through the cell package so downstream analysis
// sees one value model regardless of origin.
package rowsource

import (
	"context"

	"github.com/aidingjing/shp-processor/internal/cell"
)

// Row maps column names to normalized values.  Columns absent from a
// particular row are reported as zero values by cell.Value.
type Row map[string]cell.Value

// Result carries the rows of a source along with the column order the
// source presented them in.
type Result struct {
	Columns []string
	Rows    []Row
}

func cellValue(v any) cell.Value {
	return cell.Normalize(v)
}

// Source produces rows for analysis and export.
type Source interface {
	// Fetch reads all rows.  Implementations honor ctx cancellation
	// between rows.
	Fetch(ctx context.Context) (*Result, error)

	// Close releases any resources held by the source.
	Close() error
}
