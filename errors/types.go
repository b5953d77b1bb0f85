// Copyright 2020 Security Scorecard Authors
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

package errors

import (
	"fmt"
)

type (
	// HTTPStatusError carries the status code and response body of a non-2xx, non-401 response.
	HTTPStatusError struct {
		wrappedError
		StatusCode int
		Body       string
	}
	// GraphQLError carries the messages returned inside a GraphQL response's errors array.
	GraphQLError struct {
		wrappedError
		Messages []string
	}
)

// MakeHTTPStatusError returns a wrapped ErrHTTPStatus carrying the response detail.
func MakeHTTPStatusError(statusCode int, body string) error {
	return &HTTPStatusError{
		wrappedError: wrappedError{
			msg:        fmt.Sprintf("http status %d", statusCode),
			innerError: ErrHTTPStatus,
		},
		StatusCode: statusCode,
		Body:       body,
	}
}

// MakeGraphQLError returns a wrapped ErrGraphQLErrors carrying the logical error messages.
func MakeGraphQLError(messages []string) error {
	return &GraphQLError{
		wrappedError: wrappedError{
			msg:        fmt.Sprintf("%d graphql error(s)", len(messages)),
			innerError: ErrGraphQLErrors,
		},
		Messages: messages,
	}
}

type wrappedError struct {
	innerError error
	msg        string
}

func (err *wrappedError) Error() string {
	return fmt.Sprintf("%s: %v", err.msg, err.innerError)
}

func (err *wrappedError) Unwrap() error {
	return err.innerError
}
