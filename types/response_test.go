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
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func jsonNumber(s string) json.Number {
	return json.Number(s)
}

func TestDecodeResponse(t *testing.T) {
	Convey("decode read response", t, func() {
		body := `{"results":[{"columns":["id","name"],"types":["integer","text"],` +
			`"values":[[1,"fiona"],[2,"declan"]]}],"time":0.02}`
		res, err := DecodeResponse(strings.NewReader(body))
		So(err, ShouldBeNil)
		So(res.Error, ShouldBeEmpty)
		So(len(res.Results), ShouldEqual, 1)
		So(res.Results[0].Columns, ShouldResemble, []string{"id", "name"})
		So(res.Time, ShouldEqual, 0.02)
	})

	Convey("decode write response", t, func() {
		body := `{"results":[{"last_insert_id":5,"rows_affected":1}]}`
		res, err := DecodeResponse(strings.NewReader(body))
		So(err, ShouldBeNil)
		So(*res.Results[0].LastInsertID, ShouldEqual, 5)
		So(*res.Results[0].RowsAffected, ShouldEqual, 1)
	})

	Convey("decode per-statement error", t, func() {
		body := `{"results":[{"error":"near \"nonsense\": syntax error"}]}`
		res, err := DecodeResponse(strings.NewReader(body))
		So(err, ShouldBeNil)
		So(res.Results[0].Error, ShouldContainSubstring, "syntax error")
	})

	Convey("decode garbage", t, func() {
		res, err := DecodeResponse(strings.NewReader("not json"))
		So(err, ShouldNotBeNil)
		So(res, ShouldBeNil)
	})
}

func TestResultRows(t *testing.T) {
	Convey("typed conversion per column", t, func() {
		body := `{"results":[{"columns":["i","f","s","b","t"],` +
			`"types":["integer","real","text","blob","timestamp"],` +
			`"values":[[42,3.5,"x","AAH/","2019-06-01T12:30:15Z"],` +
			`[null,null,null,null,null]]}]}`
		res, err := DecodeResponse(strings.NewReader(body))
		So(err, ShouldBeNil)

		rows, err := res.Results[0].Rows()
		So(err, ShouldBeNil)
		So(len(rows), ShouldEqual, 2)

		So(rows[0].Get(0), ShouldEqual, int64(42))
		So(rows[0].Get(1), ShouldEqual, 3.5)
		So(rows[0].Get(2), ShouldEqual, "x")
		So(rows[0].Get(3), ShouldResemble, []byte{0, 1, 255})
		So(rows[0].Get(4), ShouldResemble, time.Date(2019, 6, 1, 12, 30, 15, 0, time.UTC))

		for i := 0; i < rows[1].Len(); i++ {
			So(rows[1].Get(i), ShouldBeNil)
		}
	})

	Convey("row width mismatch", t, func() {
		r := &Result{
			Columns: []string{"a", "b"},
			Types:   []string{"integer", "integer"},
			Values:  [][]interface{}{{1}},
		}
		_, err := r.Rows()
		So(errors.Cause(err), ShouldEqual, ErrColumnMismatch)
	})
}

func TestTypeAffinity(t *testing.T) {
	Convey("declared type classes", t, func() {
		So(typeAffinity("integer"), ShouldEqual, affinityInteger)
		So(typeAffinity("INT"), ShouldEqual, affinityInteger)
		So(typeAffinity("BIGINT"), ShouldEqual, affinityInteger)
		So(typeAffinity("INTEGER NOT NULL"), ShouldEqual, affinityInteger)
		So(typeAffinity("real"), ShouldEqual, affinityReal)
		So(typeAffinity("NUMBER(10)"), ShouldEqual, affinityReal)
		So(typeAffinity("varchar(20)"), ShouldEqual, affinityText)
		So(typeAffinity("text"), ShouldEqual, affinityText)
		So(typeAffinity("blob"), ShouldEqual, affinityBlob)
		So(typeAffinity("boolean"), ShouldEqual, affinityBool)
		So(typeAffinity("datetime"), ShouldEqual, affinityTime)
		So(typeAffinity(""), ShouldEqual, affinityNone)
	})
}

func TestConvertValue(t *testing.T) {
	Convey("integer wider than float precision", t, func() {
		res, err := DecodeResponse(strings.NewReader(
			`{"results":[{"columns":["a"],"types":["integer"],"values":[[9007199254740993]]}]}`))
		So(err, ShouldBeNil)
		rows, err := res.Results[0].Rows()
		So(err, ShouldBeNil)
		So(rows[0].Get(0), ShouldEqual, int64(9007199254740993))
	})

	Convey("bool columns", t, func() {
		v, err := ConvertValue("boolean", jsonNumber("1"))
		So(err, ShouldBeNil)
		So(v, ShouldEqual, true)

		v, err = ConvertValue("boolean", jsonNumber("0"))
		So(err, ShouldBeNil)
		So(v, ShouldEqual, false)
	})

	Convey("untyped values keep their JSON shape", t, func() {
		v, err := ConvertValue("", jsonNumber("3"))
		So(err, ShouldBeNil)
		So(v, ShouldEqual, int64(3))

		v, err = ConvertValue("", jsonNumber("3.14"))
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 3.14)

		v, err = ConvertValue("", "plain")
		So(err, ShouldBeNil)
		So(v, ShouldEqual, "plain")
	})

	Convey("invalid blob", t, func() {
		_, err := ConvertValue("blob", "%%%not base64%%%")
		So(errors.Cause(err), ShouldEqual, ErrInvalidBlob)
	})

	Convey("unparseable timestamp passes through as text", t, func() {
		v, err := ConvertValue("timestamp", "yesterday")
		So(err, ShouldBeNil)
		So(v, ShouldEqual, "yesterday")
	})

	Convey("date only", t, func() {
		v, err := ConvertValue("date", "2019-06-01")
		So(err, ShouldBeNil)
		So(v, ShouldResemble, time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC))
	})
}
