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
	"database/sql"
	"database/sql/driver"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/grqlite/grqlite/rqhttp"
	"github.com/grqlite/grqlite/types"
	"github.com/grqlite/grqlite/utils/log"
)

// conn implements the driver.Conn interface over the HTTP transport.
type conn struct {
	cfg    *Config
	client *rqhttp.Client

	queries       []*types.Statement
	inTransaction bool
	closed        int32
}

func newConn(cfg *Config) (c *conn) {
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	c = &conn{
		cfg:    cfg,
		client: rqhttp.NewClient(cfg.transportConfig()),
	}

	log.WithFields(log.Fields{
		"host": cfg.Host,
		"port": cfg.Port,
	}).Debug("new connection")

	return
}

// Prepare implements the driver.Conn.Prepare method.
func (c *conn) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

// Close implements the driver.Conn.Close method.
func (c *conn) Close() error {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		log.Debug("closed connection")
		return c.client.Close()
	}
	return nil
}

// Begin implements the driver.Conn.Begin method.
func (c *conn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// BeginTx implements the driver.ConnBeginTx.BeginTx method. Write statements
// issued inside the transaction are queued and flushed to the execute
// endpoint as one atomic batch on Commit.
func (c *conn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if atomic.LoadInt32(&c.closed) != 0 {
		return nil, driver.ErrBadConn
	}

	if c.inTransaction {
		return nil, sql.ErrTxDone
	}

	c.inTransaction = true
	c.queries = c.queries[:0]

	return c, nil
}

// PrepareContext implements the driver.ConnPrepareContext.PrepareContext method.
func (c *conn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if atomic.LoadInt32(&c.closed) != 0 {
		return nil, driver.ErrBadConn
	}

	return newStmt(c, query), nil
}

// ExecContext implements the driver.ExecerContext.ExecContext method.
func (c *conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (result driver.Result, err error) {
	if atomic.LoadInt32(&c.closed) != 0 {
		err = driver.ErrBadConn
		return
	}

	var stmt *types.Statement
	if stmt, err = convertQuery(query, args); err != nil {
		return
	}

	if c.inTransaction {
		c.queries = append(c.queries, stmt)
		result = driver.ResultNoRows
		return
	}

	var res *types.Response
	if res, err = c.client.Execute(ctx, []*types.Statement{stmt}, c.cfg.executeOptions()); err != nil {
		return
	}

	if err = checkResults(res); err != nil {
		return
	}

	return newResult(res), nil
}

// QueryContext implements the driver.QueryerContext.QueryContext method.
func (c *conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (r driver.Rows, err error) {
	if atomic.LoadInt32(&c.closed) != 0 {
		err = driver.ErrBadConn
		return
	}

	if c.inTransaction {
		err = ErrQueryInTransaction
		return
	}

	var stmt *types.Statement
	if stmt, err = convertQuery(query, args); err != nil {
		return
	}

	var res *types.Response
	if stmt.IsRead() {
		res, err = c.client.Query(ctx, []*types.Statement{stmt}, c.cfg.Level)
	} else {
		res, err = c.client.Execute(ctx, []*types.Statement{stmt}, c.cfg.executeOptions())
	}
	if err != nil {
		return
	}

	if err = checkResults(res); err != nil {
		return
	}

	return newRows(res)
}

// Commit implements the driver.Tx.Commit method.
func (c *conn) Commit() (err error) {
	if atomic.LoadInt32(&c.closed) != 0 {
		return driver.ErrBadConn
	}

	if !c.inTransaction {
		return sql.ErrTxDone
	}

	defer func() {
		c.queries = c.queries[:0]
		c.inTransaction = false
	}()

	if len(c.queries) > 0 {
		opts := c.cfg.executeOptions()
		opts.Transaction = true

		var res *types.Response
		if res, err = c.client.Execute(context.Background(), c.queries, opts); err != nil {
			return
		}
		err = checkResults(res)
	}

	return
}

// Rollback implements the driver.Tx.Rollback method.
func (c *conn) Rollback() error {
	if atomic.LoadInt32(&c.closed) != 0 {
		return driver.ErrBadConn
	}

	if !c.inTransaction {
		return sql.ErrTxDone
	}

	defer func() {
		c.queries = c.queries[:0]
		c.inTransaction = false
	}()

	if len(c.queries) == 0 {
		return sql.ErrTxDone
	}

	return nil
}

// convertQuery converts driver arguments into a statement, keeping ordinal
// and named binding apart.
func convertQuery(query string, args []driver.NamedValue) (stmt *types.Statement, err error) {
	var ordinal []interface{}
	var named map[string]interface{}

	for _, v := range args {
		if v.Name != "" {
			if named == nil {
				named = make(map[string]interface{}, len(args))
			}
			named[v.Name] = v.Value
		} else {
			ordinal = append(ordinal, v.Value)
		}
	}

	if len(ordinal) > 0 && len(named) > 0 {
		err = errors.Wrapf(ErrMixedArgs, "statement %#v", query)
		return
	}

	if len(named) > 0 {
		return types.NewNamedStatement(query, named)
	}
	return types.NewStatement(query, ordinal...)
}

// checkResults surfaces the first per-statement error of a response.
func checkResults(res *types.Response) (err error) {
	for i, result := range res.Results {
		if result.Error != "" {
			err = errors.Wrapf(ErrStatementFailed, "statement %d: %s", i, result.Error)
			return
		}
	}
	return
}
