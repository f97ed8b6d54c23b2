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

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/dghubble/sling"
	"github.com/pkg/errors"

	"github.com/grqlite/grqlite/types"
	"github.com/grqlite/grqlite/utils/log"
	"github.com/grqlite/grqlite/utils/timer"
)

// Level is the read consistency level applied to queries.
type Level string

// Read consistency levels supported by the server.
const (
	LevelNone   Level = "none"
	LevelWeak   Level = "weak"
	LevelStrong Level = "strong"
)

const (
	queryPath   = "/db/query"
	executePath = "/db/execute"
	statusPath  = "/status"
)

var (
	// UnlimitedRedirects follows leader redirects without bound.
	UnlimitedRedirects = -1

	// DefaultRetries is the request attempt limit on transient failures.
	DefaultRetries uint64 = 10

	// DefaultRetryInterval is the initial backoff interval between retries.
	DefaultRetryInterval = 100 * time.Millisecond
)

// Config collects the connection parameters of a Client.
type Config struct {
	Scheme         string
	Host           string
	Port           int
	User           string
	Password       string
	ConnectTimeout time.Duration
	// MaxRedirects bounds leader redirect following: 0 follows none,
	// UnlimitedRedirects (-1) follows without bound. NewConfig defaults to
	// unlimited.
	MaxRedirects  int
	Retries       uint64
	RetryInterval time.Duration
}

// NewConfig creates a transport config with default values.
func NewConfig() *Config {
	return &Config{
		Scheme:        "http",
		Host:          "localhost",
		Port:          4001,
		MaxRedirects:  UnlimitedRedirects,
		Retries:       DefaultRetries,
		RetryInterval: DefaultRetryInterval,
	}
}

// ExecuteOptions control how the execute endpoint applies a statement batch.
type ExecuteOptions struct {
	// Transaction wraps the batch in a single transaction, rolled back
	// entirely when any statement fails.
	Transaction bool
	// Queue enqueues the batch for asynchronous execution.
	Queue bool
	// Wait blocks a queued batch until it has been committed.
	Wait bool
}

type queryParams struct {
	Q     string `url:"q,omitempty"`
	Level string `url:"level,omitempty"`
}

type executeParams struct {
	Transaction bool `url:"transaction,omitempty"`
	Queue       bool `url:"queue,omitempty"`
	Wait        bool `url:"wait,omitempty"`
}

// Client speaks the server's HTTP API: it encodes statement batches into
// query/execute requests, follows leader redirects and retries transient
// connection failures.
type Client struct {
	cfg *Config
	hc  *http.Client

	// base host may be re-targeted by a leader redirect
	baseLock sync.RWMutex
	baseURL  string
}

// NewClient creates a client from cfg, filling unset fields with defaults.
func NewClient(cfg *Config) *Client {
	defaults := NewConfig()
	if cfg == nil {
		cfg = defaults
	}
	if cfg.Scheme == "" {
		cfg.Scheme = defaults.Scheme
	}
	if cfg.Host == "" {
		cfg.Host = defaults.Host
	}
	if cfg.Port == 0 {
		cfg.Port = defaults.Port
	}
	if cfg.Retries == 0 {
		cfg.Retries = defaults.Retries
	}
	if cfg.RetryInterval == 0 {
		cfg.RetryInterval = defaults.RetryInterval
	}

	return &Client{
		cfg: cfg,
		hc: &http.Client{
			Timeout: cfg.ConnectTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// redirects re-issue the original method, handled manually
				return http.ErrUseLastResponse
			},
		},
		baseURL: fmt.Sprintf("%s://%s:%d", cfg.Scheme, cfg.Host, cfg.Port),
	}
}

// Base returns the current base URL, reflecting any leader re-targeting.
func (c *Client) Base() string {
	c.baseLock.RLock()
	defer c.baseLock.RUnlock()
	return c.baseURL
}

// Query sends read statements to the query endpoint. A single parameterless
// statement travels as a GET with the statement in the query string, a batch
// or a parameterized statement travels as a POST with a JSON body.
func (c *Client) Query(ctx context.Context, stmts []*types.Statement, level Level) (res *types.Response, err error) {
	if len(stmts) == 0 {
		err = ErrNoStatements
		return
	}

	var s *sling.Sling
	if len(stmts) == 1 && len(stmts[0].Args) == 0 && len(stmts[0].NamedArgs) == 0 {
		s = c.newSling().Get(queryPath).
			QueryStruct(&queryParams{Q: stmts[0].Pattern, Level: string(level)})
	} else {
		s = c.newSling().Post(queryPath).
			QueryStruct(&queryParams{Level: string(level)}).
			BodyJSON(stmts)
	}

	return c.roundTrip(ctx, s)
}

// Execute sends write statements to the execute endpoint as one batch.
func (c *Client) Execute(ctx context.Context, stmts []*types.Statement, opts ExecuteOptions) (res *types.Response, err error) {
	if len(stmts) == 0 {
		err = ErrNoStatements
		return
	}

	s := c.newSling().Post(executePath).
		QueryStruct(&executeParams{
			Transaction: opts.Transaction,
			Queue:       opts.Queue,
			Wait:        opts.Wait,
		}).
		BodyJSON(stmts)

	return c.roundTrip(ctx, s)
}

// Status fetches the node diagnostics endpoint.
func (c *Client) Status(ctx context.Context) (status map[string]interface{}, err error) {
	var body []byte
	if body, err = c.fetch(ctx, c.newSling().Get(statusPath)); err != nil {
		return
	}

	if err = json.Unmarshal(body, &status); err != nil {
		status = nil
		err = errors.Wrap(err, "decode status")
	}
	return
}

// Close releases idle connections held by the underlying http client.
func (c *Client) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}

func (c *Client) newSling() *sling.Sling {
	s := sling.New().Client(c.hc).Base(c.Base())
	if c.cfg.User != "" || c.cfg.Password != "" {
		s = s.SetBasicAuth(c.cfg.User, c.cfg.Password)
	}
	return s
}

func (c *Client) roundTrip(ctx context.Context, s *sling.Sling) (res *types.Response, err error) {
	var body []byte
	if body, err = c.fetch(ctx, s); err != nil {
		return
	}

	if res, err = types.DecodeResponse(bytes.NewReader(body)); err != nil {
		return
	}
	if res.Error != "" {
		err = errors.Errorf("server error: %s", res.Error)
		res = nil
	}
	return
}

// fetch performs one API call: it retries transient connection failures and
// follows leader redirects, re-targeting the client at the announced leader.
func (c *Client) fetch(ctx context.Context, s *sling.Sling) (body []byte, err error) {
	var req *http.Request
	if req, err = s.Request(); err != nil {
		err = errors.Wrap(err, "build request")
		return
	}
	req = req.WithContext(ctx)

	var reqBody []byte
	if req.Body != nil {
		if reqBody, err = ioutil.ReadAll(req.Body); err != nil {
			err = errors.Wrap(err, "buffer request body")
			return
		}
		req.Body.Close()
	}

	target := req.URL.String()
	redirects := 0
	tm := timer.NewTimer()

	for {
		log.WithFields(log.Fields{
			"method": req.Method,
			"url":    target,
		}).Debug("sending request")

		var resp *http.Response
		if resp, err = c.retryRequest(ctx, req.Method, target, req.Header, reqBody); err != nil {
			return
		}
		tm.Add("request")

		if !isRedirect(resp.StatusCode) {
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				io.Copy(ioutil.Discard, resp.Body)
				err = errors.Wrapf(ErrUnexpectedStatus, "%d", resp.StatusCode)
				return
			}
			if body, err = ioutil.ReadAll(resp.Body); err != nil {
				err = errors.Wrap(err, "read response body")
				return
			}
			tm.Add("read")
			log.WithFields(tm.ToLogFields()).Debug("request complete")
			return
		}

		location := resp.Header.Get("Location")
		io.Copy(ioutil.Discard, resp.Body)
		resp.Body.Close()

		if location == "" {
			err = errors.Wrapf(ErrUnexpectedStatus, "%d without location", resp.StatusCode)
			return
		}

		redirects++
		if c.cfg.MaxRedirects != UnlimitedRedirects && redirects > c.cfg.MaxRedirects {
			err = errors.Wrapf(ErrTooManyRedirects, "%d", redirects)
			return
		}

		log.WithFields(log.Fields{
			"status":   resp.StatusCode,
			"location": location,
		}).Debug("following leader redirect")

		if target, err = c.retarget(target, location); err != nil {
			return
		}
	}
}

// retryRequest sends one request, re-dialing on transient failures the way
// the server's clients are expected to.
func (c *Client) retryRequest(ctx context.Context, method, target string, header http.Header, body []byte) (resp *http.Response, err error) {
	bo := backoff.WithContext(
		backoff.WithMaxRetries(c.newBackOff(), c.cfg.Retries-1), ctx)

	err = backoff.Retry(func() (rerr error) {
		var req *http.Request
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		if req, rerr = http.NewRequest(method, target, reader); rerr != nil {
			rerr = backoff.Permanent(rerr)
			return
		}
		for k, vs := range header {
			req.Header[k] = vs
		}
		req = req.WithContext(ctx)

		if resp, rerr = c.hc.Do(req); rerr != nil {
			log.WithError(rerr).Debug("request failed, retrying")
		}
		return
	}, bo)

	if err != nil {
		err = errors.Wrap(err, "request failed")
	}
	return
}

func (c *Client) newBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.RetryInterval
	return bo
}

// retarget resolves location against target and, when the redirect points at
// another node, re-targets the client base URL at that node.
func (c *Client) retarget(target, location string) (next string, err error) {
	base, err := url.Parse(target)
	if err != nil {
		err = errors.Wrap(err, "parse request url")
		return
	}

	loc, err := base.Parse(location)
	if err != nil {
		err = errors.Wrap(err, "parse redirect location")
		return
	}

	if loc.Host != base.Host {
		newBase := fmt.Sprintf("%s://%s", loc.Scheme, loc.Host)

		c.baseLock.Lock()
		c.baseURL = newBase
		c.baseLock.Unlock()

		log.WithField("base", newBase).Debug("re-targeted client at new leader")
	}

	next = loc.String()
	return
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}
