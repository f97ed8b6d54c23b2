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
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/grqlite/grqlite/types"
)

func TestRows(t *testing.T) {
	Convey("test driver rows", t, func() {
		res, err := types.DecodeResponse(strings.NewReader(
			`{"results":[{"columns":["id","name"],"types":["integer","text"],` +
				`"values":[[1,"fiona"],[2,"declan"]]}]}`))
		So(err, ShouldBeNil)

		r, err := newRows(res)
		So(err, ShouldBeNil)
		So(r.Columns(), ShouldResemble, []string{"id", "name"})
		So(r.ColumnTypeDatabaseTypeName(0), ShouldEqual, "INTEGER")
		So(r.ColumnTypeDatabaseTypeName(1), ShouldEqual, "TEXT")
		So(r.ColumnTypeDatabaseTypeName(2), ShouldEqual, "")

		dest := make([]driver.Value, 2)
		So(r.Next(dest), ShouldBeNil)
		So(dest[0], ShouldEqual, int64(1))
		So(dest[1], ShouldEqual, "fiona")
		So(r.Next(dest), ShouldBeNil)
		So(dest[1], ShouldEqual, "declan")
		So(r.Next(dest), ShouldEqual, io.EOF)

		So(r.Close(), ShouldBeNil)
	})

	Convey("test rows of a write response", t, func() {
		res, err := types.DecodeResponse(strings.NewReader(
			`{"results":[{"last_insert_id":1,"rows_affected":1}]}`))
		So(err, ShouldBeNil)

		r, err := newRows(res)
		So(err, ShouldBeNil)
		So(r.Columns(), ShouldBeEmpty)

		dest := make([]driver.Value, 0)
		So(r.Next(dest), ShouldEqual, io.EOF)
	})

	Convey("test rows skip resultless entries", t, func() {
		res, err := types.DecodeResponse(strings.NewReader(
			`{"results":[{"rows_affected":1},` +
				`{"columns":["n"],"types":["integer"],"values":[[7]]}]}`))
		So(err, ShouldBeNil)

		r, err := newRows(res)
		So(err, ShouldBeNil)
		So(r.Columns(), ShouldResemble, []string{"n"})

		dest := make([]driver.Value, 1)
		So(r.Next(dest), ShouldBeNil)
		So(dest[0], ShouldEqual, int64(7))
	})
}
