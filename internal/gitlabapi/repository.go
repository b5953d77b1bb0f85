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
	"encoding/base64"
	"fmt"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/paginate"
)

// ListBranches pages through every branch of a project, not just its
// default branch, since the `repository` resource type archives all of
// them.
func (c *Client) ListBranches(projectID any) paginate.RESTPageFetcher {
	return func(ctx context.Context, page, perPage int) ([]model.Resource, int, int, error) {
		opt := &gitlab.ListBranchesOptions{ListOptions: listOptions(page, perPage)}
		branches, resp, err := c.REST.Branches.ListBranches(projectID, opt, gitlab.WithContext(ctx))
		return pageResult(branches, resp, err)
	}
}

// ListTags pages through a project's tags.
func (c *Client) ListTags(projectID any) paginate.RESTPageFetcher {
	return func(ctx context.Context, page, perPage int) ([]model.Resource, int, int, error) {
		opt := &gitlab.ListTagsOptions{ListOptions: listOptions(page, perPage)}
		tags, resp, err := c.REST.Tags.ListTags(projectID, opt, gitlab.WithContext(ctx))
		return pageResult(tags, resp, err)
	}
}

// ListBranchCommits pages through the commits reachable from branch, an
// arbitrary branch supplied by the orchestrator's branch loop.
func (c *Client) ListBranchCommits(projectID any, branch string) paginate.RESTPageFetcher {
	return func(ctx context.Context, page, perPage int) ([]model.Resource, int, int, error) {
		opt := &gitlab.ListCommitsOptions{
			ListOptions: listOptions(page, perPage),
			RefName:     gitlab.Ptr(branch),
		}
		commits, resp, err := c.REST.Commits.ListCommits(projectID, opt, gitlab.WithContext(ctx))
		return pageResult(commits, resp, err)
	}
}

// ListBranchTree pages through the repository tree at branch, recursively,
// backing the step-4 `tree` resource type.
func (c *Client) ListBranchTree(projectID any, branch string) paginate.RESTPageFetcher {
	return func(ctx context.Context, page, perPage int) ([]model.Resource, int, int, error) {
		opt := &gitlab.ListTreeOptions{
			ListOptions: listOptions(page, perPage),
			Ref:         gitlab.Ptr(branch),
			Recursive:   gitlab.Ptr(true),
		}
		nodes, resp, err := c.REST.Repositories.ListTree(projectID, opt, gitlab.WithContext(ctx))
		return pageResult(nodes, resp, err)
	}
}

// GetFileContent fetches one file's content at branch, base64-decoding it
// into a single model.Resource for the `file_content` stream
// (`files/<sanitized-file-path>_content.jsonl`). Unlike the other fetchers
// this is not paginated: one file produces exactly one record.
func (c *Client) GetFileContent(ctx context.Context, projectID any, filePath, branch string) (model.Resource, error) {
	opt := &gitlab.GetFileOptions{Ref: gitlab.Ptr(branch)}
	file, _, err := c.REST.RepositoryFiles.GetFile(projectID, filePath, opt, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetching file %q at %q: %w", filePath, branch, err)
	}

	content := file.Content
	if file.Encoding == "base64" {
		decoded, decErr := base64.StdEncoding.DecodeString(file.Content)
		if decErr == nil {
			content = string(decoded)
		}
	}

	resource, err := toResource(file)
	if err != nil {
		return nil, err
	}
	resource["content"] = content
	resource["path"] = filePath
	resource["ref"] = branch
	return resource, nil
}
