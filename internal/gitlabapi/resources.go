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

// This file implements general per-resource-type list fetchers keyed by
// project ID: labels, issues, boards, audit events, snippets, pipelines,
// releases, milestones, and merge requests.
package gitlabapi

import (
	"context"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/paginate"
)

// ListLabels pages through a project's labels.
func (c *Client) ListLabels(projectID any) paginate.RESTPageFetcher {
	return func(ctx context.Context, page, perPage int) ([]model.Resource, int, int, error) {
		opt := &gitlab.ListLabelsOptions{ListOptions: listOptions(page, perPage)}
		labels, resp, err := c.REST.Labels.ListLabels(projectID, opt, gitlab.WithContext(ctx))
		return pageResult(labels, resp, err)
	}
}

// ListIssues pages through a project's issues. No state or scope filter is
// sent, so the server's defaults for both apply.
func (c *Client) ListIssues(projectID any) paginate.RESTPageFetcher {
	return func(ctx context.Context, page, perPage int) ([]model.Resource, int, int, error) {
		opt := &gitlab.ListProjectIssuesOptions{ListOptions: listOptions(page, perPage)}
		issues, resp, err := c.REST.Issues.ListProjectIssues(projectID, opt, gitlab.WithContext(ctx))
		return pageResult(issues, resp, err)
	}
}

// ListBoards pages through a project's issue boards.
func (c *Client) ListBoards(projectID any) paginate.RESTPageFetcher {
	return func(ctx context.Context, page, perPage int) ([]model.Resource, int, int, error) {
		opt := &gitlab.ListIssueBoardsOptions{ListOptions: listOptions(page, perPage)}
		boards, resp, err := c.REST.Boards.ListIssueBoards(projectID, opt, gitlab.WithContext(ctx))
		return pageResult(boards, resp, err)
	}
}

// ListEpics pages through a group's epics. Epics are a group-level, not
// project-level, resource; the orchestrator calls this once per distinct
// parent group of the crawled projects rather than per project (a GitLab
// Premium feature absent on
// Free-tier groups simply returns an empty page, which the REST loop
// treats as normal termination).
func (c *Client) ListEpics(groupID any) paginate.RESTPageFetcher {
	return func(ctx context.Context, page, perPage int) ([]model.Resource, int, int, error) {
		opt := &gitlab.ListGroupEpicsOptions{ListOptions: listOptions(page, perPage)}
		epics, resp, err := c.REST.Epics.ListGroupEpics(groupID, opt, gitlab.WithContext(ctx))
		return pageResult(epics, resp, err)
	}
}

// ListAuditEvents pages through a project's audit events.
func (c *Client) ListAuditEvents(projectID any) paginate.RESTPageFetcher {
	return func(ctx context.Context, page, perPage int) ([]model.Resource, int, int, error) {
		opt := &gitlab.ListAuditEventsOptions{ListOptions: listOptions(page, perPage)}
		events, resp, err := c.REST.AuditEvents.ListProjectAuditEvents(projectID, opt, gitlab.WithContext(ctx))
		return pageResult(events, resp, err)
	}
}

// ListSnippets pages through a project's snippets.
func (c *Client) ListSnippets(projectID any) paginate.RESTPageFetcher {
	return func(ctx context.Context, page, perPage int) ([]model.Resource, int, int, error) {
		opt := &gitlab.ListProjectSnippetsOptions{ListOptions: listOptions(page, perPage)}
		snippets, resp, err := c.REST.ProjectSnippets.ListSnippets(projectID, opt, gitlab.WithContext(ctx))
		return pageResult(snippets, resp, err)
	}
}

// ListPipelines pages through a project's pipelines.
func (c *Client) ListPipelines(projectID any) paginate.RESTPageFetcher {
	return func(ctx context.Context, page, perPage int) ([]model.Resource, int, int, error) {
		opt := &gitlab.ListProjectPipelinesOptions{ListOptions: listOptions(page, perPage)}
		pipelines, resp, err := c.REST.Pipelines.ListProjectPipelines(projectID, opt, gitlab.WithContext(ctx))
		return pageResult(pipelines, resp, err)
	}
}

// ListReleases pages through a project's releases.
func (c *Client) ListReleases(projectID any) paginate.RESTPageFetcher {
	return func(ctx context.Context, page, perPage int) ([]model.Resource, int, int, error) {
		opt := &gitlab.ListReleasesOptions{ListOptions: listOptions(page, perPage)}
		releases, resp, err := c.REST.Releases.ListReleases(projectID, opt, gitlab.WithContext(ctx))
		return pageResult(releases, resp, err)
	}
}

// ListMilestones pages through a project's milestones.
func (c *Client) ListMilestones(projectID any) paginate.RESTPageFetcher {
	return func(ctx context.Context, page, perPage int) ([]model.Resource, int, int, error) {
		opt := &gitlab.ListMilestonesOptions{ListOptions: listOptions(page, perPage)}
		milestones, resp, err := c.REST.Milestones.ListMilestones(projectID, opt, gitlab.WithContext(ctx))
		return pageResult(milestones, resp, err)
	}
}

// ListMergeRequests pages through a project's merge requests.
func (c *Client) ListMergeRequests(projectID any) paginate.RESTPageFetcher {
	return func(ctx context.Context, page, perPage int) ([]model.Resource, int, int, error) {
		opt := &gitlab.ListProjectMergeRequestsOptions{ListOptions: listOptions(page, perPage)}
		mrs, resp, err := c.REST.MergeRequests.ListProjectMergeRequests(projectID, opt, gitlab.WithContext(ctx))
		return pageResult(mrs, resp, err)
	}
}
