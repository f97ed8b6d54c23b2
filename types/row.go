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

package types

import "fmt"

// Row is an ordered mapping from column name to value, preserving the
// declaration order of the originating result set.
type Row struct {
	columns []string
	values  []interface{}
	index   map[string]int
}

// NewRow builds a row from parallel column and value slices.
func NewRow(columns []string, values []interface{}) (r Row, err error) {
	if len(columns) != len(values) {
		err = ErrColumnMismatch
		return
	}

	index := make(map[string]int, len(columns))
	for i, name := range columns {
		index[name] = i
	}

	r = Row{columns: columns, values: values, index: index}
	return
}

// Len returns the column count.
func (r Row) Len() int {
	return len(r.values)
}

// Columns returns the column names in declaration order.
func (r Row) Columns() []string {
	return r.columns[:]
}

// Values returns the row values in declaration order.
func (r Row) Values() []interface{} {
	return r.values[:]
}

// Get returns the value at position i.
func (r Row) Get(i int) interface{} {
	return r.values[i]
}

// Value returns the value of the named column.
func (r Row) Value(name string) (v interface{}, ok bool) {
	var i int
	if i, ok = r.index[name]; ok {
		v = r.values[i]
	}
	return
}

// Map returns the row as a plain map. Declaration order is lost, use
// Columns/Values when order matters.
func (r Row) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(r.columns))
	for i, name := range r.columns {
		m[name] = r.values[i]
	}
	return m
}

func (r Row) String() string {
	return fmt.Sprintf("%v", r.Map())
}
