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
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// testRequest captures one request the fake node received.
type testRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   string
}

// testServer is a scripted stand-in for a database node: it records every
// request and answers with queued response bodies.
type testServer struct {
	srv *httptest.Server

	mu        sync.Mutex
	requests  []testRequest
	responses []string
}

const emptyResults = `{"results":[{}]}`

func startTestServer() *testServer {
	ts := new(testServer)
	ts.srv = httptest.NewServer(http.HandlerFunc(ts.handle))
	return ts
}

func (ts *testServer) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := ioutil.ReadAll(r.Body)

	ts.mu.Lock()
	ts.requests = append(ts.requests, testRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Body:   strings.TrimSpace(string(body)),
	})
	response := emptyResults
	if len(ts.responses) > 0 {
		response = ts.responses[0]
		ts.responses = ts.responses[1:]
	}
	ts.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(response))
}

// queue appends a canned response body observed by the next request.
func (ts *testServer) queue(bodies ...string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.responses = append(ts.responses, bodies...)
}

func (ts *testServer) requestCount() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.requests)
}

func (ts *testServer) lastRequest() testRequest {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.requests) == 0 {
		return testRequest{}
	}
	return ts.requests[len(ts.requests)-1]
}

// config builds a client config pointed at the fake node.
func (ts *testServer) config() *Config {
	u, _ := url.Parse(ts.srv.URL)
	port, _ := strconv.Atoi(u.Port())

	cfg := NewConfig()
	cfg.Host = u.Hostname()
	cfg.Port = port
	return cfg
}

func (ts *testServer) Close() {
	ts.srv.Close()
}
