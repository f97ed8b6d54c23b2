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
	"time"
	"unicode"

	"github.com/pkg/errors"
)

// Statement is one SQL statement prepared for the server query or execute
// endpoints, carrying either positional or named bind arguments but never both.
type Statement struct {
	Pattern   string
	Args      []interface{}
	NamedArgs map[string]interface{}
}

// NewStatement builds a statement with positional arguments. The argument
// count must match the number of "?" placeholders in the pattern, and the
// pattern must not use named placeholders.
func NewStatement(pattern string, args ...interface{}) (s *Statement, err error) {
	qmarks, named := scanPlaceholders(pattern)

	if qmarks > 0 && len(named) > 0 {
		err = errors.Wrapf(ErrMixedParameters, "statement %#v", pattern)
		return
	}
	if len(args) == 0 {
		if qmarks > 0 || len(named) > 0 {
			err = errors.Wrapf(ErrParameterRequired, "statement %#v", pattern)
			return
		}
		s = &Statement{Pattern: pattern}
		return
	}
	if len(named) > 0 {
		err = errors.Wrapf(ErrBindMismatch,
			"named binding used but a sequence supplied: %#v", pattern)
		return
	}
	if qmarks != len(args) {
		err = errors.Wrapf(ErrParameterCount, "%d != %d: %#v", qmarks, len(args), pattern)
		return
	}

	s = &Statement{Pattern: pattern, Args: adaptValues(args)}
	return
}

// NewNamedStatement builds a statement with named arguments. Every ":name"
// placeholder in the pattern must have a matching key, and the pattern must
// not use positional placeholders.
func NewNamedStatement(pattern string, args map[string]interface{}) (s *Statement, err error) {
	qmarks, named := scanPlaceholders(pattern)

	if qmarks > 0 && len(named) > 0 {
		err = errors.Wrapf(ErrMixedParameters, "statement %#v", pattern)
		return
	}
	if len(args) == 0 {
		if qmarks > 0 || len(named) > 0 {
			err = errors.Wrapf(ErrParameterRequired, "statement %#v", pattern)
			return
		}
		s = &Statement{Pattern: pattern}
		return
	}
	if qmarks > 0 {
		err = errors.Wrapf(ErrBindMismatch,
			"positional binding used but a mapping supplied: %#v", pattern)
		return
	}

	adapted := make(map[string]interface{}, len(named))
	for _, name := range named {
		v, ok := args[name]
		if !ok {
			err = errors.Wrapf(ErrParameterName, "missing %#v: %#v", name, pattern)
			return
		}
		adapted[name] = adaptValue(v)
	}

	s = &Statement{Pattern: pattern, NamedArgs: adapted}
	return
}

// MarshalJSON implements the json.Marshaler interface, producing the request
// entry shape expected by the server: a bare string for a parameterless
// statement, a [sql, v1, v2, ...] array for positional arguments, and a
// [sql, {name: value}] array for named arguments.
func (s *Statement) MarshalJSON() ([]byte, error) {
	if len(s.NamedArgs) > 0 {
		return json.Marshal([]interface{}{s.Pattern, s.NamedArgs})
	}
	if len(s.Args) > 0 {
		entry := make([]interface{}, 0, len(s.Args)+1)
		entry = append(entry, s.Pattern)
		entry = append(entry, s.Args...)
		return json.Marshal(entry)
	}
	return json.Marshal(s.Pattern)
}

// Command returns the upper-cased first keyword of the statement, used to
// route the statement to the query or execute endpoint.
func (s *Statement) Command() string {
	return strings.ToUpper(strings.SplitN(strings.TrimSpace(s.Pattern), " ", 2)[0])
}

// IsRead reports whether the statement should be sent to the query endpoint.
func (s *Statement) IsRead() bool {
	switch s.Command() {
	case "SELECT", "PRAGMA":
		return true
	}
	return false
}

// scanPlaceholders counts "?" placeholders and collects ":name" placeholder
// names in pattern, skipping quoted literals.
func scanPlaceholders(pattern string) (qmarks int, named []string) {
	var quote rune
	runes := []rune(pattern)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if quote != 0 {
			if r == quote {
				// doubled quote is an escaped quote inside the literal
				if i+1 < len(runes) && runes[i+1] == quote {
					i++
					continue
				}
				quote = 0
			}
			continue
		}

		switch {
		case r == '\'' || r == '"':
			quote = r
		case r == '?':
			qmarks++
		case r == ':':
			j := i + 1
			for j < len(runes) && unicode.IsLetter(runes[j]) {
				j++
			}
			if j > i+1 {
				named = append(named, string(runes[i+1:j]))
				i = j - 1
			}
		}
	}

	return
}

// adaptValue converts a Go value into a form that serializes correctly for
// the server: timestamps as ISO-8601 text with a space separator, byte
// slices as integer arrays, everything else as-is.
func adaptValue(v interface{}) interface{} {
	switch tv := v.(type) {
	case time.Time:
		return tv.Format("2006-01-02 15:04:05")
	case []byte:
		ints := make([]int, len(tv))
		for i, b := range tv {
			ints[i] = int(b)
		}
		return ints
	}
	return v
}

func adaptValues(args []interface{}) (adapted []interface{}) {
	adapted = make([]interface{}, len(args))
	for i, v := range args {
		adapted[i] = adaptValue(v)
	}
	return
}
