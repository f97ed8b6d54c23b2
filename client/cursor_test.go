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
	"context"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/grqlite/grqlite/types"
)

func TestCursorFetch(t *testing.T) {
	Convey("test cursor fetch sequence", t, func() {
		ts := startTestServer()
		defer ts.Close()

		conn, err := Connect(ts.config())
		So(err, ShouldBeNil)
		defer conn.Close()

		cursor, err := conn.Cursor()
		So(err, ShouldBeNil)
		So(cursor.Connection(), ShouldEqual, conn)
		So(cursor.RowCount(), ShouldEqual, -1)

		ts.queue(`{"results":[{"columns":["id","name"],"types":["integer","text"],` +
			`"values":[[1,"fiona"],[2,"declan"],[3,"aoife"]]}]}`)
		err = cursor.Execute(context.Background(), "select * from people")
		So(err, ShouldBeNil)
		So(cursor.RowCount(), ShouldEqual, 3)
		So(cursor.Description(), ShouldResemble, []Column{
			{Name: "id", Type: "integer"},
			{Name: "name", Type: "text"},
		})

		// fetchone advances the position
		row, err := cursor.FetchOne()
		So(err, ShouldBeNil)
		So(row, ShouldNotBeNil)
		So(row.Get(0), ShouldEqual, int64(1))
		v, ok := row.Value("name")
		So(ok, ShouldBeTrue)
		So(v, ShouldEqual, "fiona")
		So(cursor.RowNumber(), ShouldEqual, 1)

		// fetchmany returns at most the requested batch
		rows, err := cursor.FetchMany(1)
		So(err, ShouldBeNil)
		So(len(rows), ShouldEqual, 1)
		So(rows[0].Get(1), ShouldEqual, "declan")

		// fetchall drains the rest
		rows, err = cursor.FetchAll()
		So(err, ShouldBeNil)
		So(len(rows), ShouldEqual, 1)
		So(rows[0].Get(1), ShouldEqual, "aoife")

		// an exhausted cursor keeps returning nothing, not an error
		row, err = cursor.FetchOne()
		So(err, ShouldBeNil)
		So(row, ShouldBeNil)
		rows, err = cursor.FetchAll()
		So(err, ShouldBeNil)
		So(rows, ShouldBeEmpty)

		// fetchmany default batch size
		ts.queue(`{"results":[{"columns":["id"],"types":["integer"],"values":[[1],[2]]}]}`)
		err = cursor.Execute(context.Background(), "select id from people")
		So(err, ShouldBeNil)
		rows, err = cursor.FetchMany(0)
		So(err, ShouldBeNil)
		So(len(rows), ShouldEqual, DefaultArraySize)
		cursor.SetArraySize(2)
		rows, err = cursor.FetchMany(0)
		So(err, ShouldBeNil)
		So(len(rows), ShouldEqual, 1)
	})
}

func TestCursorWrites(t *testing.T) {
	Convey("test cursor write statements", t, func() {
		ts := startTestServer()
		defer ts.Close()

		conn, err := Connect(ts.config())
		So(err, ShouldBeNil)
		defer conn.Close()

		cursor, err := conn.Cursor()
		So(err, ShouldBeNil)

		// insert sets lastrowid
		ts.queue(`{"results":[{"last_insert_id":7,"rows_affected":1}]}`)
		err = cursor.Execute(context.Background(), "insert into people (name) values (?)", "fiona")
		So(err, ShouldBeNil)
		So(cursor.LastRowID(), ShouldEqual, 7)
		So(ts.lastRequest().Path, ShouldEqual, "/db/execute")
		So(ts.lastRequest().Body, ShouldEqual, `[["insert into people (name) values (?)","fiona"]]`)

		// update reports affected rows as the row count
		ts.queue(`{"results":[{"rows_affected":2}]}`)
		err = cursor.Execute(context.Background(), "update people set name = ? where id < ?", "x", 3)
		So(err, ShouldBeNil)
		So(cursor.RowCount(), ShouldEqual, 2)

		// delete likewise
		ts.queue(`{"results":[{"rows_affected":1}]}`)
		err = cursor.Execute(context.Background(), "delete from people where id = ?", 1)
		So(err, ShouldBeNil)
		So(cursor.RowCount(), ShouldEqual, 1)

		// named arguments
		ts.queue(`{"results":[{"rows_affected":1}]}`)
		err = cursor.ExecuteNamed(context.Background(),
			"update people set name = :name where id = :id",
			map[string]interface{}{"name": "fiona", "id": 2})
		So(err, ShouldBeNil)
		So(ts.lastRequest().Body, ShouldContainSubstring, `{"id":2,"name":"fiona"}`)

		// server statement error
		ts.queue(`{"results":[{"error":"no such table: missing"}]}`)
		err = cursor.Execute(context.Background(), "insert into missing values (1)")
		So(errors.Cause(err), ShouldEqual, ErrStatementFailed)
	})
}

func TestCursorExecuteMany(t *testing.T) {
	Convey("test cursor batch execution", t, func() {
		ts := startTestServer()
		defer ts.Close()

		conn, err := Connect(ts.config())
		So(err, ShouldBeNil)
		defer conn.Close()

		cursor, err := conn.Cursor()
		So(err, ShouldBeNil)

		// N tuples produce one request with N statements
		ts.queue(`{"results":[{"rows_affected":1},{"rows_affected":1},{"rows_affected":1}]}`)
		sent := ts.requestCount()
		err = cursor.ExecuteMany(context.Background(),
			"insert into people (name) values (?)",
			[][]interface{}{{"fiona"}, {"declan"}, {"aoife"}})
		So(err, ShouldBeNil)
		So(ts.requestCount(), ShouldEqual, sent+1)
		So(ts.lastRequest().Body, ShouldEqual,
			`[["insert into people (name) values (?)","fiona"],`+
				`["insert into people (name) values (?)","declan"],`+
				`["insert into people (name) values (?)","aoife"]]`)
		So(cursor.RowCount(), ShouldEqual, 3)

		// batch leaves no result set behind
		row, err := cursor.FetchOne()
		So(err, ShouldBeNil)
		So(row, ShouldBeNil)

		// a bad tuple fails before any network call
		sent = ts.requestCount()
		err = cursor.ExecuteMany(context.Background(),
			"insert into people (name) values (?)",
			[][]interface{}{{"fiona"}, {"declan", "extra"}})
		So(errors.Cause(err), ShouldEqual, types.ErrParameterCount)
		So(ts.requestCount(), ShouldEqual, sent)

		// per-statement failures are reported with their index
		ts.queue(`{"results":[{"rows_affected":1},{"error":"constraint failed"}]}`)
		err = cursor.ExecuteMany(context.Background(),
			"insert into people (id) values (?)",
			[][]interface{}{{1}, {1}})
		So(errors.Cause(err), ShouldEqual, ErrStatementFailed)
		So(err.Error(), ShouldContainSubstring, "statement 1")
	})
}

func TestCursorUsageErrors(t *testing.T) {
	Convey("test cursor usage errors", t, func() {
		ts := startTestServer()
		defer ts.Close()

		conn, err := Connect(ts.config())
		So(err, ShouldBeNil)

		cursor, err := conn.Cursor()
		So(err, ShouldBeNil)

		// mixed placeholder styles fail before any network call
		sent := ts.requestCount()
		err = cursor.Execute(context.Background(),
			"select * from people where id = ? and name = :name", 1)
		So(errors.Cause(err), ShouldEqual, types.ErrMixedParameters)
		So(ts.requestCount(), ShouldEqual, sent)

		// fetch after close is a usage error
		ts.queue(`{"results":[{"columns":["id"],"types":["integer"],"values":[[1]]}]}`)
		err = cursor.Execute(context.Background(), "select id from people")
		So(err, ShouldBeNil)
		err = cursor.Close()
		So(err, ShouldBeNil)
		_, err = cursor.FetchOne()
		So(errors.Cause(err), ShouldEqual, ErrCursorClosed)
		_, err = cursor.FetchAll()
		So(errors.Cause(err), ShouldEqual, ErrCursorClosed)
		err = cursor.Execute(context.Background(), "select id from people")
		So(errors.Cause(err), ShouldEqual, ErrCursorClosed)

		// closing twice is fine
		So(cursor.Close(), ShouldBeNil)

		// cursors from a closed connection are unusable
		cursor, err = conn.Cursor()
		So(err, ShouldBeNil)
		So(conn.Close(), ShouldBeNil)
		_, err = cursor.FetchOne()
		So(errors.Cause(err), ShouldEqual, ErrConnectionClosed)
		_, err = conn.Cursor()
		So(errors.Cause(err), ShouldEqual, ErrConnectionClosed)
	})
}

func TestConnectionExecute(t *testing.T) {
	Convey("test connection execute convenience", t, func() {
		ts := startTestServer()
		defer ts.Close()

		conn, err := ConnectDSN(ts.config().FormatDSN())
		So(err, ShouldBeNil)
		defer conn.Close()

		ts.queue(`{"results":[{"columns":["n"],"types":["integer"],"values":[[42]]}]}`)
		cursor, err := conn.Execute(context.Background(), "select n from answers")
		So(err, ShouldBeNil)
		row, err := cursor.FetchOne()
		So(err, ShouldBeNil)
		So(row.Get(0), ShouldEqual, int64(42))

		// commit and rollback are accepted and do nothing
		So(conn.Commit(), ShouldBeNil)
		So(conn.Rollback(), ShouldBeNil)
	})
}
