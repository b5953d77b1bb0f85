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
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pdiegmann/copima-cli-crawler-sub001/log"
)

// NewRateLimited wraps inner with a rate-limit-aware RoundTripper honoring
// the host's X-RateLimit-Remaining/X-RateLimit-Reset headers, matching the
// retry shape the source GitHub transport already uses for secondary rate
// limits and exhausted windows.
func NewRateLimited(inner http.RoundTripper, logger *log.Logger) http.RoundTripper {
	return &rateLimitTransport{logger: logger, inner: inner}
}

type rateLimitTransport struct {
	logger *log.Logger
	inner  http.RoundTripper
}

func (rl *rateLimitTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	resp, err := rl.inner.RoundTrip(r)
	if err != nil {
		return nil, fmt.Errorf("rate limit transport: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(data))

		retryAfter, convErr := strconv.Atoi(resp.Header.Get("Retry-After"))
		if convErr != nil {
			retryAfter = 60
		}
		rl.logger.Info(fmt.Sprintf("rate limited, waiting %ds to retry", retryAfter))
		time.Sleep(time.Duration(retryAfter) * time.Second)
		return rl.RoundTrip(r)
	}

	remaining, convErr := strconv.Atoi(resp.Header.Get("X-RateLimit-Remaining"))
	if convErr != nil {
		return resp, nil
	}
	if remaining > 0 {
		return resp, nil
	}

	reset, convErr := strconv.Atoi(resp.Header.Get("X-RateLimit-Reset"))
	if convErr != nil {
		return resp, nil
	}
	duration := time.Until(time.Unix(int64(reset), 0))
	if duration <= 0 {
		return resp, nil
	}
	rl.logger.Info(fmt.Sprintf("rate limit exhausted, waiting %s to retry", duration))
	time.Sleep(duration)
	return rl.RoundTrip(r)
}
