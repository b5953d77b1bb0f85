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
	"encoding/json"
	"io"
	"net/http"

	sce "github.com/pdiegmann/copima-cli-crawler-sub001/errors"
)

// NewGraphQLErrorChecking wraps inner so that a 200 OK response whose JSON
// body carries a non-empty top-level "errors" array is surfaced as
// ErrGraphQLErrors instead of being treated as success.
func NewGraphQLErrorChecking(inner http.RoundTripper) http.RoundTripper {
	return &graphQLErrorTransport{inner: inner}
}

type graphQLErrorTransport struct {
	inner http.RoundTripper
}

type graphQLEnvelope struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (g *graphQLErrorTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	resp, err := g.inner.RoundTrip(r)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if readErr != nil {
		return resp, nil
	}

	var env graphQLEnvelope
	if jsonErr := json.Unmarshal(body, &env); jsonErr != nil {
		return resp, nil
	}
	if len(env.Errors) == 0 {
		return resp, nil
	}

	messages := make([]string, 0, len(env.Errors))
	for _, e := range env.Errors {
		messages = append(messages, e.Message)
	}
	return resp, sce.MakeGraphQLError(messages)
}
