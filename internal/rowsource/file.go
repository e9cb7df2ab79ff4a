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

package rowsource

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aidingjing/shp-processor/internal/storage"
)

// File reads rows from a JSON or CSV file.  The location may be a local
// path or a blob URL.
type File struct {
	location string
	format   string
}

// NewFile creates a file source.  The format is derived from the
// location's extension: .json for a JSON array of objects, .csv for a
// comma separated file with a header row.
func NewFile(location string) (*File, error) {
	ext := strings.ToLower(filepath.Ext(location))
	switch ext {
	case ".json", ".csv":
		return &File{location: location, format: ext[1:]}, nil
	}
	return nil, fmt.Errorf("unsupported row file extension %q (expected .json or .csv)", filepath.Ext(location))
}

func (f *File) Fetch(ctx context.Context) (*Result, error) {
	reader, err := storage.Open(ctx, f.location)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	if f.format == "csv" {
		return readCSV(ctx, reader)
	}
	return readJSON(ctx, reader)
}

func (f *File) Close() error {
	return nil
}

// readJSON decodes an array of objects.  Columns are the union of all
// object keys, sorted so repeated runs see the same order.
func readJSON(ctx context.Context, reader io.Reader) (*Result, error) {
	var records []map[string]any
	if err := json.NewDecoder(reader).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode rows: %w", err)
	}

	seen := map[string]bool{}
	result := &Result{}
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := make(Row, len(record))
		for name, value := range record {
			if !seen[name] {
				seen[name] = true
				result.Columns = append(result.Columns, name)
			}
			row[name] = cellValue(value)
		}
		result.Rows = append(result.Rows, row)
	}
	sort.Strings(result.Columns)
	return result, nil
}

// readCSV reads a header row followed by data rows.  Empty strings are
// treated as nulls since CSV has no other way to express them.
func readCSV(ctx context.Context, reader io.Reader) (*Result, error) {
	cr := csv.NewReader(reader)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("row file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	result := &Result{Columns: header}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(result.Rows)+1, err)
		}
		row := make(Row, len(header))
		for i, name := range header {
			if i >= len(record) || record[i] == "" {
				row[name] = cellValue(nil)
				continue
			}
			row[name] = cellValue(record[i])
		}
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}
