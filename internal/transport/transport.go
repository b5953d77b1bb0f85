// Copyright 2024 OpenSSF Scorecard Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package transport implements the crawler's authenticated HTTP transport
// (C1): bearer-token injection, per-request timeout, and a single
// 401-triggered refresh-and-retry, layered as a chain of http.RoundTrippers
// in the same style the source repo layers its GitHub roundtrippers.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	sce "github.com/pdiegmann/copima-cli-crawler-sub001/errors"
	"github.com/pdiegmann/copima-cli-crawler-sub001/log"
)

// TokenSource returns the currently valid access token for an account, and
// is invoked for every request and again on a 401-triggered refresh. It is
// satisfied by the tokenmanager package's Manager.
type TokenSource interface {
	GetAccessToken(ctx context.Context, accountID string) (string, error)
}

// Refresher performs the single-flighted OAuth2 refresh used when a request
// comes back 401.
type Refresher interface {
	RefreshAccessToken(ctx context.Context, accountID string) (string, error)
}

// Config controls the per-request timeout applied by New.
type Config struct {
	// Timeout is the hard per-request deadline. Zero uses DefaultTimeout.
	Timeout time.Duration
	// AccountID is the account whose tokens authenticate every request.
	AccountID string
}

// DefaultTimeout is applied when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// New builds the layered transport: timeout(auth(innerTransport)).
// inner is the base RoundTripper (typically http.DefaultTransport); it may
// be wrapped further by callers for additional concerns (e.g. rate limiting).
func New(cfg Config, tokens TokenSource, refresher Refresher, logger *log.Logger, inner http.RoundTripper) http.RoundTripper {
	if inner == nil {
		inner = http.DefaultTransport
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &timeoutTransport{
		timeout: timeout,
		inner: &authTransport{
			accountID: cfg.AccountID,
			tokens:    tokens,
			refresher: refresher,
			logger:    logger,
			inner:     inner,
		},
	}
}

// timeoutTransport enforces the hard per-request deadline.
type timeoutTransport struct {
	timeout time.Duration
	inner   http.RoundTripper
}

func (t *timeoutTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(r.Context(), t.timeout)
	defer cancel()

	resp, err := t.inner.RoundTrip(r.WithContext(ctx))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, sce.WithMessage(sce.ErrTimeout, err.Error())
		}
		if isUnreachable(err) {
			return nil, sce.WithMessage(sce.ErrNetworkUnreachable, err.Error())
		}
		return nil, err
	}
	return resp, nil
}

func isUnreachable(err error) bool {
	var opErr *net.OpError
	for e := err; e != nil; e = unwrap(e) {
		if oe, ok := e.(*net.OpError); ok {
			opErr = oe
			break
		}
	}
	if opErr == nil {
		return false
	}
	switch opErr.Err.(type) {
	case *net.DNSError:
		return true
	default:
		return opErr.Op == "dial"
	}
}

func unwrap(err error) error {
	u, ok := err.(interface{ Unwrap() error })
	if !ok {
		return nil
	}
	return u.Unwrap()
}

// authTransport injects the bearer token and performs a single
// 401-triggered refresh-and-retry.
type authTransport struct {
	accountID string
	tokens    TokenSource
	refresher Refresher
	logger    *log.Logger
	inner     http.RoundTripper
}

func (t *authTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	return t.roundTrip(r, false)
}

func (t *authTransport) roundTrip(r *http.Request, retried bool) (*http.Response, error) {
	token, err := t.tokens.GetAccessToken(r.Context(), t.accountID)
	if err != nil || token == "" {
		return nil, sce.WithMessage(sce.ErrAuthMissing, fmt.Sprintf("resolving access token: %v", err))
	}

	req := r.Clone(r.Context())
	req.Header.Set("Authorization", "Bearer "+token)
	if req.Header.Get("Content-Type") == "" && req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.inner.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !retried && t.refresher != nil {
		resp.Body.Close()
		if _, rerr := t.refresher.RefreshAccessToken(r.Context(), t.accountID); rerr != nil {
			return nil, sce.WithMessage(sce.ErrAuthExpired, fmt.Sprintf("refresh failed: %v", rerr))
		}
		return t.roundTrip(r, true)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, sce.WithMessage(sce.ErrAuthExpired, "401 after refresh retry")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(body))
		return nil, sce.MakeHTTPStatusError(resp.StatusCode, string(body))
	}

	return resp, nil
}
