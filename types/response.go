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

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Result is the per-statement result object inside a server response. A
// write produces RowsAffected/LastInsertID, a read produces
// Columns/Types/Values, a failed statement produces Error.
type Result struct {
	Error        string          `json:"error,omitempty"`
	Columns      []string        `json:"columns,omitempty"`
	Types        []string        `json:"types,omitempty"`
	Values       [][]interface{} `json:"values,omitempty"`
	LastInsertID *int64          `json:"last_insert_id,omitempty"`
	RowsAffected *int64          `json:"rows_affected,omitempty"`
	Time         float64         `json:"time,omitempty"`
}

// Response is the top-level payload of the query and execute endpoints.
type Response struct {
	Results []Result `json:"results"`
	Error   string   `json:"error,omitempty"`
	Time    float64  `json:"time,omitempty"`
}

// DecodeResponse decodes a server response body. Numbers are kept as
// json.Number so integer columns survive the trip without float rounding.
func DecodeResponse(r io.Reader) (res *Response, err error) {
	d := json.NewDecoder(r)
	d.UseNumber()

	res = new(Response)
	if err = d.Decode(res); err != nil {
		res = nil
		err = errors.Wrap(err, "decode response")
	}
	return
}

// Rows converts the raw columnar values of a read result into typed rows,
// applying the per-column type hints.
func (r *Result) Rows() (rows []Row, err error) {
	rows = make([]Row, 0, len(r.Values))

	for _, rawRow := range r.Values {
		if len(rawRow) != len(r.Columns) {
			err = errors.Wrapf(ErrColumnMismatch, "%d != %d", len(rawRow), len(r.Columns))
			return
		}

		values := make([]interface{}, len(rawRow))
		for i, raw := range rawRow {
			if values[i], err = ConvertValue(r.typeHint(i), raw); err != nil {
				err = errors.Wrapf(err, "column %#v", r.Columns[i])
				return
			}
		}

		var row Row
		if row, err = NewRow(r.Columns, values); err != nil {
			return
		}
		rows = append(rows, row)
	}

	return
}

func (r *Result) typeHint(i int) string {
	if i < len(r.Types) {
		return r.Types[i]
	}
	return ""
}

// type affinity classes, following the SQLite affinity rules the server
// inherits from its storage engine
const (
	affinityNone = iota
	affinityInteger
	affinityReal
	affinityText
	affinityBlob
	affinityBool
	affinityTime
)

func typeAffinity(declType string) int {
	if declType == "" {
		return affinityNone
	}

	// "INTEGER NOT NULL" and "NUMBER(10)" resolve as "INTEGER" and "NUMBER"
	upper := strings.ToUpper(declType)
	upper = strings.SplitN(upper, "(", 2)[0]
	upper = strings.SplitN(upper, " ", 2)[0]

	switch {
	case upper == "BLOB":
		return affinityBlob
	case strings.HasPrefix(upper, "BOOL"):
		return affinityBool
	case upper == "DATE" || upper == "DATETIME" || upper == "TIMESTAMP":
		return affinityTime
	case strings.Contains(upper, "INT"):
		return affinityInteger
	case strings.Contains(upper, "CHAR"), strings.Contains(upper, "CLOB"),
		strings.Contains(upper, "TEXT"):
		return affinityText
	case upper == "REAL", upper == "FLOAT", upper == "DOUBLE",
		upper == "NUMERIC", upper == "NUMBER", upper == "DECIMAL":
		return affinityReal
	}

	return affinityNone
}

// timestampLayouts are tried in order when converting a time-affinity column.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// ConvertValue converts one raw JSON value into its native Go representation
// according to the column's declared type: integer columns become int64,
// real columns float64, blob columns base64-decoded byte slices, time
// columns time.Time. A nil value stays nil regardless of the declared type.
func ConvertValue(declType string, raw interface{}) (v interface{}, err error) {
	if raw == nil {
		return nil, nil
	}

	switch typeAffinity(declType) {
	case affinityInteger:
		return convertInteger(raw)
	case affinityReal:
		return convertReal(raw)
	case affinityBool:
		return convertBool(raw)
	case affinityBlob:
		return convertBlob(raw)
	case affinityTime:
		return convertTime(raw)
	case affinityText:
		if s, ok := raw.(string); ok {
			return s, nil
		}
		return convertNumber(raw)
	}

	// no declared type, keep whatever shape the JSON value has
	return convertNumber(raw)
}

func convertInteger(raw interface{}) (v interface{}, err error) {
	switch tv := raw.(type) {
	case json.Number:
		var i int64
		if i, err = tv.Int64(); err == nil {
			v = i
			return
		}
		err = nil
		var f float64
		if f, err = tv.Float64(); err != nil {
			err = errors.Wrapf(err, "integer value %#v", tv.String())
			return
		}
		v = int64(f)
	case float64:
		v = int64(tv)
	case int64:
		v = tv
	default:
		v = raw
	}
	return
}

func convertReal(raw interface{}) (v interface{}, err error) {
	switch tv := raw.(type) {
	case json.Number:
		var f float64
		if f, err = tv.Float64(); err != nil {
			err = errors.Wrapf(err, "real value %#v", tv.String())
			return
		}
		v = f
	case float64:
		v = tv
	case int64:
		v = float64(tv)
	default:
		v = raw
	}
	return
}

func convertBool(raw interface{}) (v interface{}, err error) {
	switch tv := raw.(type) {
	case bool:
		v = tv
	case json.Number:
		var i int64
		if i, err = tv.Int64(); err != nil {
			err = errors.Wrapf(err, "bool value %#v", tv.String())
			return
		}
		v = i != 0
	default:
		v = raw
	}
	return
}

func convertBlob(raw interface{}) (v interface{}, err error) {
	s, ok := raw.(string)
	if !ok {
		err = errors.Wrapf(ErrInvalidBlob, "unexpected %T", raw)
		return
	}

	var decoded []byte
	if decoded, err = base64.StdEncoding.DecodeString(s); err != nil {
		err = errors.Wrap(ErrInvalidBlob, err.Error())
		return
	}

	v = decoded
	return
}

func convertTime(raw interface{}) (v interface{}, err error) {
	s, ok := raw.(string)
	if !ok {
		return convertNumber(raw)
	}

	for _, layout := range timestampLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			v = t
			return
		}
	}

	// unparseable timestamps pass through as text
	err = nil
	v = s
	return
}

// convertNumber normalizes json.Number tokens of untyped columns, preferring
// int64 when the token has no fraction.
func convertNumber(raw interface{}) (v interface{}, err error) {
	n, ok := raw.(json.Number)
	if !ok {
		return raw, nil
	}

	if !strings.ContainsAny(n.String(), ".eE") {
		var i int64
		if i, err = n.Int64(); err == nil {
			v = i
			return
		}
		err = nil
	}

	var f float64
	if f, err = n.Float64(); err != nil {
		err = errors.Wrapf(err, "numeric value %#v", n.String())
		return
	}
	v = f
	return
}
