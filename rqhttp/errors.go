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

package rqhttp

import "github.com/pkg/errors"

// Various errors the transport might return.
var (
	// ErrUnexpectedStatus represents a non-2xx response from the server.
	ErrUnexpectedStatus = errors.New("received unexpected http status")
	// ErrTooManyRedirects represents exceeding the configured redirect limit.
	ErrTooManyRedirects = errors.New("too many leader redirects")
	// ErrNoStatements represents a request with an empty statement list.
	ErrNoStatements = errors.New("no statements to send")
)
