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

import "github.com/grqlite/grqlite/types"

type execResult struct {
	affectedRows int64
	lastInsertID int64
}

// newResult folds the per-statement write results of a response.
func newResult(res *types.Response) *execResult {
	r := new(execResult)
	for _, result := range res.Results {
		if result.RowsAffected != nil {
			r.affectedRows += *result.RowsAffected
		}
		if result.LastInsertID != nil {
			r.lastInsertID = *result.LastInsertID
		}
	}
	return r
}

// LastInsertId returns the last inserted row ID.
func (r *execResult) LastInsertId() (int64, error) {
	return r.lastInsertID, nil
}

// RowsAffected returns how many rows were affected.
func (r *execResult) RowsAffected() (int64, error) {
	return r.affectedRows, nil
}
