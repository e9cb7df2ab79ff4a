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
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MySQL reads rows from a MySQL database with a caller-provided query.
type MySQL struct {
	db    *sql.DB
	query string
}

// NewMySQL opens a connection pool for the given DSN.  The connection is
// not used until Fetch is called.
func NewMySQL(dsn string, query string) (*MySQL, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to mysql database: %w", err)
	}
	return &MySQL{db: db, query: query}, nil
}

// NewMySQLFromDB wraps an existing database handle.  Close closes the
// handle.
func NewMySQLFromDB(db *sql.DB, query string) *MySQL {
	return &MySQL{db: db, query: query}
}

// Fetch runs the query and scans every row.  Driver []byte values become
// text, NULLs become null cells.
func (m *MySQL) Fetch(ctx context.Context) (*Result, error) {
	dbRows, err := m.db.QueryContext(ctx, m.query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer dbRows.Close()

	columns, err := dbRows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	result := &Result{Columns: columns}
	for dbRows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := dbRows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(result.Rows), err)
		}

		row := make(Row, len(columns))
		for i, name := range columns {
			row[name] = cellValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := dbRows.Err(); err != nil {
		return nil, fmt.Errorf("failed while reading rows: %w", err)
	}

	return result, nil
}

func (m *MySQL) Close() error {
	return m.db.Close()
}
