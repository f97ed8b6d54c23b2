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

import "github.com/pkg/errors"

// Various errors the client might return.
var (
	// ErrQueryInTransaction represents a read query presented during a transaction.
	ErrQueryInTransaction = errors.New("only write is supported during transaction")
	// ErrConnectionClosed represents an operation on a closed connection.
	ErrConnectionClosed = errors.New("connection already closed")
	// ErrCursorClosed represents an operation on a closed cursor.
	ErrCursorClosed = errors.New("cursor already closed")
	// ErrStatementFailed represents a statement the server rejected with an error.
	ErrStatementFailed = errors.New("statement failed")
	// ErrMixedArgs represents driver arguments mixing ordinal and named binding.
	ErrMixedArgs = errors.New("mixed ordinal and named arguments")
)
