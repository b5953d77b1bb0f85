// Copyright 2021 OpenSSF Scorecard Authors
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

// Package errors defines the crawler's error kinds and the wrapping helpers
// used to classify a failure for the progress report without a type switch
// at every call site.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigInvalid indicates the configuration failed validation before any work began.
	ErrConfigInvalid = errors.New("config invalid")
	// ErrAuthMissing indicates no usable access token could be resolved for the crawl.
	ErrAuthMissing = errors.New("auth missing")
	// ErrAuthExpired indicates the access token was rejected and a refresh did not recover it.
	ErrAuthExpired = errors.New("auth expired")
	// ErrNetworkUnreachable indicates the remote host could not be reached.
	ErrNetworkUnreachable = errors.New("network unreachable")
	// ErrTimeout indicates a request exceeded its deadline.
	ErrTimeout = errors.New("request timeout")
	// ErrHTTPStatus indicates a non-2xx, non-401 response.
	ErrHTTPStatus = errors.New("unexpected http status")
	// ErrGraphQLErrors indicates the GraphQL endpoint returned a non-empty errors array with HTTP 200.
	ErrGraphQLErrors = errors.New("graphql errors")
	// ErrCallbackError indicates a user transform failed; the originating record is preserved by the caller.
	ErrCallbackError = errors.New("callback error")
	// ErrWriteError indicates the hierarchical writer failed to persist a record.
	ErrWriteError = errors.New("write error")
	// ErrLockTimeout indicates the advisory lock on the progress file could not be acquired in time.
	ErrLockTimeout = errors.New("lock timeout")
)

// WithMessage wraps any of the sentinel errors above with additional context.
func WithMessage(e error, msg string) error {
	if len(msg) > 0 {
		return fmt.Errorf("%w: %v", e, msg)
	}
	// Still wrap with %w so callers may keep using errors.Is against the sentinel.
	return fmt.Errorf("%w", e)
}

// ExitCode maps a fatal error returned by the root command to the process
// exit code: 0 only when err is nil, 1 otherwise. Per-step errors never
// reach here — they are absorbed into the orchestrator's summary.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// GetName returns the stable name of a sentinel error kind, or ErrUnknown.
func GetName(err error) string {
	switch {
	case errors.Is(err, ErrConfigInvalid):
		return "ErrConfigInvalid"
	case errors.Is(err, ErrAuthMissing):
		return "ErrAuthMissing"
	case errors.Is(err, ErrAuthExpired):
		return "ErrAuthExpired"
	case errors.Is(err, ErrNetworkUnreachable):
		return "ErrNetworkUnreachable"
	case errors.Is(err, ErrTimeout):
		return "ErrTimeout"
	case errors.Is(err, ErrHTTPStatus):
		return "ErrHTTPStatus"
	case errors.Is(err, ErrGraphQLErrors):
		return "ErrGraphQLErrors"
	case errors.Is(err, ErrCallbackError):
		return "ErrCallbackError"
	case errors.Is(err, ErrWriteError):
		return "ErrWriteError"
	case errors.Is(err, ErrLockTimeout):
		return "ErrLockTimeout"
	default:
		return "ErrUnknown"
	}
}
