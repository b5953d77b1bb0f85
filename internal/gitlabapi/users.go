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

package gitlabapi

import (
	"context"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/paginate"
)

// ListUsers pages through every user visible to the account (step 2,
// `users`).
func (c *Client) ListUsers() paginate.RESTPageFetcher {
	return func(ctx context.Context, page, perPage int) ([]model.Resource, int, int, error) {
		opt := &gitlab.ListUsersOptions{ListOptions: listOptions(page, perPage)}
		users, resp, err := c.REST.Users.ListUsers(opt, gitlab.WithContext(ctx))
		return pageResult(users, resp, err)
	}
}
