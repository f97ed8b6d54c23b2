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
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/grqlite/grqlite/types"
	"github.com/grqlite/grqlite/utils/log"
)

// DefaultArraySize is the FetchMany batch size when none is given.
const DefaultArraySize = 1

// Column describes one result column of the last executed statement.
type Column struct {
	Name string
	Type string
}

// Cursor is a handle over one statement's result set with sequential row
// retrieval. A cursor is mutated by Execute/ExecuteMany, read by the fetch
// methods and invalidated by Close.
type Cursor struct {
	conn *Connection

	description []Column
	rows        []types.Row
	rownumber   int
	rowcount    int64
	lastRowID   int64
	arraySize   int
	closed      int32
}

func newCursor(conn *Connection) *Cursor {
	return &Cursor{
		conn:      conn,
		rowcount:  -1,
		arraySize: DefaultArraySize,
	}
}

// Connection returns the owning connection.
func (c *Cursor) Connection() *Connection {
	return c.conn
}

// Execute runs one statement with positional arguments. SELECT and PRAGMA
// statements travel to the query endpoint, everything else to the execute
// endpoint.
func (c *Cursor) Execute(ctx context.Context, operation string, args ...interface{}) (err error) {
	var stmt *types.Statement
	if stmt, err = types.NewStatement(operation, args...); err != nil {
		return
	}
	return c.execute(ctx, stmt)
}

// ExecuteNamed runs one statement with named arguments.
func (c *Cursor) ExecuteNamed(ctx context.Context, operation string, args map[string]interface{}) (err error) {
	var stmt *types.Statement
	if stmt, err = types.NewNamedStatement(operation, args); err != nil {
		return
	}
	return c.execute(ctx, stmt)
}

// ExecuteMany runs one write statement once per argument tuple, sending all
// repetitions to the server as a single batch.
func (c *Cursor) ExecuteMany(ctx context.Context, operation string, seqOfArgs [][]interface{}) (err error) {
	stmts := make([]*types.Statement, 0, len(seqOfArgs))
	for _, args := range seqOfArgs {
		var stmt *types.Statement
		if stmt, err = types.NewStatement(operation, args...); err != nil {
			return
		}
		stmts = append(stmts, stmt)
	}
	return c.executeBatch(ctx, stmts)
}

// ExecuteManyNamed is ExecuteMany with named argument mappings.
func (c *Cursor) ExecuteManyNamed(ctx context.Context, operation string, seqOfArgs []map[string]interface{}) (err error) {
	stmts := make([]*types.Statement, 0, len(seqOfArgs))
	for _, args := range seqOfArgs {
		var stmt *types.Statement
		if stmt, err = types.NewNamedStatement(operation, args); err != nil {
			return
		}
		stmts = append(stmts, stmt)
	}
	return c.executeBatch(ctx, stmts)
}

// FetchOne fetches the next row of the result set, or nil when exhausted.
func (c *Cursor) FetchOne() (row *types.Row, err error) {
	if err = c.usable(); err != nil {
		return
	}

	if c.rownumber >= len(c.rows) {
		return
	}

	row = &c.rows[c.rownumber]
	c.rownumber++
	return
}

// FetchMany fetches the next size rows. A size below one falls back to the
// cursor array size. Fewer rows are returned near exhaustion, none when
// exhausted.
func (c *Cursor) FetchMany(size int) (rows []types.Row, err error) {
	if err = c.usable(); err != nil {
		return
	}

	if size < 1 {
		size = c.arraySize
	}
	if remaining := len(c.rows) - c.rownumber; size > remaining {
		size = remaining
	}

	rows = make([]types.Row, 0, size)
	for i := 0; i < size; i++ {
		rows = append(rows, c.rows[c.rownumber])
		c.rownumber++
	}
	return
}

// FetchAll fetches all remaining rows of the result set.
func (c *Cursor) FetchAll() (rows []types.Row, err error) {
	if err = c.usable(); err != nil {
		return
	}
	return c.FetchMany(len(c.rows) - c.rownumber)
}

// RowCount returns the number of result rows of the last read, or the number
// of affected rows of the last UPDATE/DELETE. Before any execution it is -1.
func (c *Cursor) RowCount() int64 {
	return c.rowcount
}

// RowNumber returns the zero-based position within the current result set.
func (c *Cursor) RowNumber() int {
	return c.rownumber
}

// LastRowID returns the row ID assigned by the last INSERT.
func (c *Cursor) LastRowID() int64 {
	return c.lastRowID
}

// Description returns the column metadata of the last executed statement,
// nil for statements without a result set.
func (c *Cursor) Description() []Column {
	return c.description
}

// SetArraySize changes the default FetchMany batch size.
func (c *Cursor) SetArraySize(size int) {
	if size > 0 {
		c.arraySize = size
	}
}

// Close invalidates the cursor. Fetching from a closed cursor is an error.
func (c *Cursor) Close() error {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		c.rows = nil
		c.description = nil
	}
	return nil
}

func (c *Cursor) usable() error {
	if atomic.LoadInt32(&c.closed) != 0 {
		return ErrCursorClosed
	}
	if atomic.LoadInt32(&c.conn.closed) != 0 {
		return ErrConnectionClosed
	}
	return nil
}

func (c *Cursor) execute(ctx context.Context, stmt *types.Statement) (err error) {
	if err = c.usable(); err != nil {
		return
	}

	log.WithFields(log.Fields{
		"operation": stmt.Pattern,
		"read":      stmt.IsRead(),
	}).Debug("executing statement")

	var res *types.Response
	if stmt.IsRead() {
		res, err = c.conn.client.Query(ctx, []*types.Statement{stmt}, c.conn.cfg.Level)
	} else {
		res, err = c.conn.client.Execute(ctx, []*types.Statement{stmt}, c.conn.cfg.executeOptions())
	}
	if err != nil {
		return
	}

	return c.consumeResponse(stmt.Command(), res)
}

func (c *Cursor) executeBatch(ctx context.Context, stmts []*types.Statement) (err error) {
	if err = c.usable(); err != nil {
		return
	}

	log.WithField("statements", len(stmts)).Debug("executing batch")

	var res *types.Response
	if res, err = c.conn.client.Execute(ctx, stmts, c.conn.cfg.executeOptions()); err != nil {
		return
	}

	var affected int64
	for i, result := range res.Results {
		if result.Error != "" {
			err = errors.Wrapf(ErrStatementFailed, "statement %d: %s", i, result.Error)
			return
		}
		if result.RowsAffected != nil {
			affected += *result.RowsAffected
		}
	}

	c.rows = nil
	c.description = nil
	c.rownumber = 0
	c.rowcount = affected
	return
}

// consumeResponse folds a response into cursor state the way the standard
// database interface expects: lastrowid after INSERT, affected rows as the
// row count of UPDATE/DELETE, materialized rows for reads.
func (c *Cursor) consumeResponse(command string, res *types.Response) (err error) {
	var affected int64
	var lastInsertID *int64
	var payload *types.Result

	for i := range res.Results {
		result := &res.Results[i]
		if result.Error != "" {
			err = errors.Wrapf(ErrStatementFailed, "statement %d: %s", i, result.Error)
			return
		}
		if result.RowsAffected != nil {
			affected += *result.RowsAffected
		}
		if result.LastInsertID != nil {
			lastInsertID = result.LastInsertID
		}
		if len(result.Columns) > 0 {
			payload = result
		}
	}

	if payload == nil {
		c.rows = nil
		c.description = nil
		if command == "INSERT" && lastInsertID != nil {
			c.lastRowID = *lastInsertID
		}
	} else {
		if c.rows, err = payload.Rows(); err != nil {
			return
		}
		c.description = make([]Column, len(payload.Columns))
		for i, name := range payload.Columns {
			col := Column{Name: name}
			if i < len(payload.Types) {
				col.Type = payload.Types[i]
			}
			c.description[i] = col
		}
	}

	c.rownumber = 0
	switch command {
	case "UPDATE", "DELETE":
		c.rowcount = affected
	default:
		c.rowcount = int64(len(c.rows))
	}
	return
}
