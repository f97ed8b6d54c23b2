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

import "github.com/pkg/errors"

// Various errors returned while building statements or decoding results.
var (
	// ErrMixedParameters represents a statement using both positional and named placeholders.
	ErrMixedParameters = errors.New("mixed positional and named placeholders in one statement")
	// ErrParameterCount represents a positional argument count not matching the placeholder count.
	ErrParameterCount = errors.New("parameter count does not match placeholder count")
	// ErrParameterRequired represents a statement with placeholders but no arguments supplied.
	ErrParameterRequired = errors.New("parameter required but not given")
	// ErrParameterName represents a named placeholder with no matching argument.
	ErrParameterName = errors.New("named parameters do not match statement")
	// ErrBindMismatch represents arguments supplied in the wrong binding style.
	ErrBindMismatch = errors.New("binding style does not match supplied parameters")
	// ErrInvalidBlob represents an undecodable blob column value.
	ErrInvalidBlob = errors.New("invalid blob value")
	// ErrColumnMismatch represents a result row with a different width than its column list.
	ErrColumnMismatch = errors.New("row width does not match column list")
)
