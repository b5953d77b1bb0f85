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

package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	sce "github.com/pdiegmann/copima-cli-crawler-sub001/errors"
	"github.com/pdiegmann/copima-cli-crawler-sub001/log"
)

type fakeTokens struct {
	token string
	err   error
}

func (f *fakeTokens) GetAccessToken(context.Context, string) (string, error) {
	return f.token, f.err
}

type fakeRefresher struct {
	calls int32
	token string
	err   error
	// tokens, when set, receives the refreshed token on success, the way
	// the token manager stores it for the next GetAccessToken call.
	tokens *fakeTokens
}

func (f *fakeRefresher) RefreshAccessToken(context.Context, string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.tokens != nil && f.err == nil {
		f.tokens.token = f.token
	}
	return f.token, f.err
}

func testLogger() *log.Logger {
	return log.NewLogger(log.DefaultLevel)
}

func TestRoundTripInjectsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rt := New(Config{AccountID: "acct-1"}, &fakeTokens{token: "T1"}, &fakeRefresher{}, testLogger(), nil)
	cli := &http.Client{Transport: rt}

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := cli.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()

	if gotAuth != "Bearer T1" {
		t.Errorf("Authorization header = %q, want %q", gotAuth, "Bearer T1")
	}
}

func TestRoundTrip401TriggersRefreshAndRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("Authorization") != "Bearer T2" {
			t.Errorf("retry Authorization = %q, want %q", r.Header.Get("Authorization"), "Bearer T2")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tokens := &fakeTokens{token: "T1"}
	refresher := &fakeRefresher{token: "T2", tokens: tokens}
	rt := New(Config{AccountID: "acct-1"}, tokens, refresher, testLogger(), nil)
	cli := &http.Client{Transport: rt}

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := cli.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if atomic.LoadInt32(&refresher.calls) != 1 {
		t.Errorf("refresh calls = %d, want 1", refresher.calls)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("body = %q, want %q", body, `{"ok":true}`)
	}
}

func TestRoundTrip401AfterFailedRefreshIsAuthExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	rt := New(Config{AccountID: "acct-1"}, &fakeTokens{token: "T1"}, &fakeRefresher{err: errors.New("refresh denied")}, testLogger(), nil)
	cli := &http.Client{Transport: rt}

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	_, err := cli.Do(req)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, sce.ErrAuthExpired) {
		t.Errorf("err = %v, want wrapping %v", err, sce.ErrAuthExpired)
	}
}

func TestRoundTripNonTwoXXReturnsHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	rt := New(Config{AccountID: "acct-1"}, &fakeTokens{token: "T1"}, nil, testLogger(), nil)
	cli := &http.Client{Transport: rt}

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	_, err := cli.Do(req)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, sce.ErrHTTPStatus) {
		t.Errorf("err = %v, want wrapping %v", err, sce.ErrHTTPStatus)
	}
}

func TestRoundTripMissingTokenIsAuthMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rt := New(Config{AccountID: "acct-1"}, &fakeTokens{err: errors.New("no account")}, nil, testLogger(), nil)
	cli := &http.Client{Transport: rt}

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	_, err := cli.Do(req)
	if !errors.Is(err, sce.ErrAuthMissing) {
		t.Errorf("err = %v, want wrapping %v", err, sce.ErrAuthMissing)
	}
}

func TestRoundTripTimeoutIsErrTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rt := New(Config{AccountID: "acct-1", Timeout: 5 * time.Millisecond}, &fakeTokens{token: "T1"}, nil, testLogger(), nil)
	cli := &http.Client{Transport: rt}

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	_, err := cli.Do(req)
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if !errors.Is(err, sce.ErrTimeout) {
		t.Errorf("err = %v, want wrapping %v", err, sce.ErrTimeout)
	}
}
