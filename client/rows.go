/*
 * Copyright 2019 The grqlite Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package client

import (
	"database/sql/driver"
	"io"
	"strings"

	"github.com/grqlite/grqlite/types"
)

type rows struct {
	columns []string
	types   []string
	data    []types.Row
}

// newRows builds driver rows from the first result carrying columns. Write
// responses without a result set produce empty rows.
func newRows(res *types.Response) (r *rows, err error) {
	r = new(rows)

	for i := range res.Results {
		result := &res.Results[i]
		if len(result.Columns) == 0 {
			continue
		}

		var data []types.Row
		if data, err = result.Rows(); err != nil {
			r = nil
			return
		}

		r.columns = result.Columns
		r.types = result.Types
		r.data = data
		return
	}

	return
}

// Columns implements the driver.Rows.Columns method.
func (r *rows) Columns() []string {
	return r.columns[:]
}

// Close implements the driver.Rows.Close method.
func (r *rows) Close() error {
	r.data = nil
	return nil
}

// Next implements the driver.Rows.Next method.
func (r *rows) Next(dest []driver.Value) error {
	if len(r.data) == 0 {
		return io.EOF
	}

	for i, d := range r.data[0].Values() {
		dest[i] = d
	}

	// unshift data
	r.data = r.data[1:]

	return nil
}

// ColumnTypeDatabaseTypeName implements the
// driver.RowsColumnTypeDatabaseTypeName.ColumnTypeDatabaseTypeName method.
func (r *rows) ColumnTypeDatabaseTypeName(index int) string {
	if index >= len(r.types) {
		return ""
	}
	return strings.ToUpper(r.types[index])
}
