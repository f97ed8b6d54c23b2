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
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/grqlite/grqlite/rqhttp"
)

const (
	paramKeyLevel        = "level"
	paramKeyTimeout      = "timeout"
	paramKeyMaxRedirects = "max_redirects"
	paramKeyTransaction  = "transaction"
	paramKeyQueue        = "queue"
	paramKeyWait         = "wait"
	paramKeyDebug        = "debug"

	schemePlain = "grqlite"
	schemeTLS   = "grqlites"
)

// Default connection parameters.
var (
	DefaultHost  = "localhost"
	DefaultPort  = 4001
	DefaultLevel = rqhttp.LevelWeak
)

// Config is a configuration parsed from a DSN string.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	HTTPS    bool

	Level          rqhttp.Level
	ConnectTimeout time.Duration
	MaxRedirects   int

	// write options applied on the execute endpoint
	Transaction bool
	Queue       bool
	Wait        bool

	Debug bool
}

// NewConfig creates a new config with default values.
func NewConfig() *Config {
	return &Config{
		Host:         DefaultHost,
		Port:         DefaultPort,
		Level:        DefaultLevel,
		MaxRedirects: rqhttp.UnlimitedRedirects,
		Transaction:  true,
	}
}

// FormatDSN formats the given Config into a DSN string which can be passed to
// the driver.
func (cfg *Config) FormatDSN() string {
	u := &url.URL{
		Scheme: schemePlain,
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	}
	if cfg.HTTPS {
		u.Scheme = schemeTLS
	}
	if cfg.User != "" || cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}

	newQuery := u.Query()

	if cfg.Level != DefaultLevel {
		newQuery.Set(paramKeyLevel, string(cfg.Level))
	}
	if cfg.ConnectTimeout != 0 {
		newQuery.Set(paramKeyTimeout, cfg.ConnectTimeout.String())
	}
	if cfg.MaxRedirects != rqhttp.UnlimitedRedirects {
		newQuery.Set(paramKeyMaxRedirects, strconv.Itoa(cfg.MaxRedirects))
	}
	if !cfg.Transaction {
		newQuery.Set(paramKeyTransaction, "false")
	}
	if cfg.Queue {
		newQuery.Set(paramKeyQueue, "true")
	}
	if cfg.Wait {
		newQuery.Set(paramKeyWait, "true")
	}
	if cfg.Debug {
		newQuery.Set(paramKeyDebug, "true")
	}

	u.RawQuery = newQuery.Encode()

	return u.String()
}

// ParseDSN parses the DSN string to a Config.
func ParseDSN(dsn string) (cfg *Config, err error) {
	if !strings.Contains(dsn, "//") {
		dsn = schemePlain + "://" + dsn
	}

	var u *url.URL
	if u, err = url.Parse(dsn); err != nil {
		err = errors.Wrapf(err, "invalid dsn %#v", dsn)
		return
	}

	cfg = NewConfig()

	switch u.Scheme {
	case schemePlain:
	case schemeTLS:
		cfg.HTTPS = true
	default:
		cfg = nil
		err = errors.Errorf("unsupported dsn scheme %#v", u.Scheme)
		return
	}

	if h := u.Hostname(); h != "" {
		cfg.Host = h
	}
	if p := u.Port(); p != "" {
		if cfg.Port, err = strconv.Atoi(p); err != nil {
			cfg = nil
			err = errors.Wrapf(err, "invalid dsn port %#v", p)
			return
		}
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Password, _ = u.User.Password()
	}

	urlQuery := u.Query()

	if level := urlQuery.Get(paramKeyLevel); level != "" {
		switch rqhttp.Level(level) {
		case rqhttp.LevelNone, rqhttp.LevelWeak, rqhttp.LevelStrong:
			cfg.Level = rqhttp.Level(level)
		default:
			cfg = nil
			err = errors.Errorf("unsupported consistency level %#v", level)
			return
		}
	}
	if timeout := urlQuery.Get(paramKeyTimeout); timeout != "" {
		if cfg.ConnectTimeout, err = time.ParseDuration(timeout); err != nil {
			cfg = nil
			err = errors.Wrapf(err, "invalid dsn timeout %#v", timeout)
			return
		}
	}
	if maxRedirects := urlQuery.Get(paramKeyMaxRedirects); maxRedirects != "" {
		if cfg.MaxRedirects, err = strconv.Atoi(maxRedirects); err != nil {
			cfg = nil
			err = errors.Wrapf(err, "invalid dsn max_redirects %#v", maxRedirects)
			return
		}
	}
	if urlQuery.Get(paramKeyTransaction) == "false" {
		cfg.Transaction = false
	}
	if urlQuery.Get(paramKeyQueue) == "true" {
		cfg.Queue = true
	}
	if urlQuery.Get(paramKeyWait) == "true" {
		cfg.Wait = true
	}
	if urlQuery.Get(paramKeyDebug) == "true" {
		cfg.Debug = true
	}

	return
}

func (cfg *Config) transportConfig() *rqhttp.Config {
	tc := rqhttp.NewConfig()
	tc.Host = cfg.Host
	tc.Port = cfg.Port
	tc.User = cfg.User
	tc.Password = cfg.Password
	tc.ConnectTimeout = cfg.ConnectTimeout
	tc.MaxRedirects = cfg.MaxRedirects
	if cfg.HTTPS {
		tc.Scheme = "https"
	}
	return tc
}

func (cfg *Config) executeOptions() rqhttp.ExecuteOptions {
	return rqhttp.ExecuteOptions{
		Transaction: cfg.Transaction,
		Queue:       cfg.Queue,
		Wait:        cfg.Wait,
	}
}
