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
	"errors"
)

const (
	// HTTPStatusErrorName identifies a non-2xx, non-401 HTTP response.
	HTTPStatusErrorName = "HTTPStatusError"
	// GraphQLErrorName identifies a logical GraphQL error returned with HTTP 200.
	GraphQLErrorName = "GraphQLError"
	// UnknownErrorName is used for all error types not otherwise classified.
	UnknownErrorName = "UnknownError"
)

var (
	errHTTPStatus *HTTPStatusError
	errGraphQL    *GraphQLError
)

// GetErrorName returns the name of a detailed error type, or UnknownErrorName.
func GetErrorName(err error) string {
	switch {
	case errors.As(err, &errHTTPStatus):
		return HTTPStatusErrorName
	case errors.As(err, &errGraphQL):
		return GraphQLErrorName
	default:
		return UnknownErrorName
	}
}
