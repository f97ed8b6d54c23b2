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

	"github.com/grqlite/grqlite/rqhttp"
	"github.com/grqlite/grqlite/utils/log"
)

// Connection is the direct client surface: it hands out cursors over one
// server connection. Use the registered sql driver instead when the
// database/sql interface is wanted.
type Connection struct {
	cfg    *Config
	client *rqhttp.Client
	closed int32
}

// Connect opens a connection with the given config. A nil config connects to
// the default local node.
func Connect(cfg *Config) (c *Connection, err error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	c = &Connection{
		cfg:    cfg,
		client: rqhttp.NewClient(cfg.transportConfig()),
	}

	log.WithFields(log.Fields{
		"host": cfg.Host,
		"port": cfg.Port,
	}).Debug("new connection")

	return
}

// ConnectDSN opens a connection from a DSN string.
func ConnectDSN(dsn string) (c *Connection, err error) {
	var cfg *Config
	if cfg, err = ParseDSN(dsn); err != nil {
		return
	}
	return Connect(cfg)
}

// Cursor returns a new cursor over this connection.
func (c *Connection) Cursor() (cur *Cursor, err error) {
	if atomic.LoadInt32(&c.closed) != 0 {
		err = ErrConnectionClosed
		return
	}

	cur = newCursor(c)
	return
}

// Execute is a convenience that executes one statement on a fresh cursor and
// returns that cursor for fetching.
func (c *Connection) Execute(ctx context.Context, operation string, args ...interface{}) (cur *Cursor, err error) {
	if cur, err = c.Cursor(); err != nil {
		return
	}
	if err = cur.Execute(ctx, operation, args...); err != nil {
		cur = nil
	}
	return
}

// Status fetches the node diagnostics of the connected server.
func (c *Connection) Status(ctx context.Context) (map[string]interface{}, error) {
	if atomic.LoadInt32(&c.closed) != 0 {
		return nil, ErrConnectionClosed
	}
	return c.client.Status(ctx)
}

// Leader returns the base URL the connection is currently targeted at. A
// leader redirect moves it to the redirecting node's announced leader.
func (c *Connection) Leader() string {
	return c.client.Base()
}

// Commit exists for interface parity. Every statement batch is committed by
// the server on its own, so there is nothing to do.
func (c *Connection) Commit() error {
	return nil
}

// Rollback exists for interface parity, see Commit.
func (c *Connection) Rollback() error {
	return nil
}

// Close closes the connection. The connection is unusable from this point
// forward, as are all cursors created from it.
func (c *Connection) Close() error {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		log.Debug("closed connection")
		return c.client.Close()
	}
	return nil
}
