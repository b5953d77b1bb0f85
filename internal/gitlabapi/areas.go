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
	"strconv"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/paginate"
)

// ListTopLevelGroups pages through every group visible to the account
// (step 1, `areas`, resource type `groups`).
func (c *Client) ListTopLevelGroups() paginate.RESTPageFetcher {
	return func(ctx context.Context, page, perPage int) ([]model.Resource, int, int, error) {
		opt := &gitlab.ListGroupsOptions{
			ListOptions:  listOptions(page, perPage),
			TopLevelOnly: gitlab.Ptr(true),
			AllAvailable: gitlab.Ptr(true),
		}
		groups, resp, err := c.REST.Groups.ListGroups(opt, gitlab.WithContext(ctx))
		return pageResult(groups, resp, err)
	}
}

// ListSubgroups pages through the direct subgroups of groupID, used by the
// orchestrator's recursive area walk.
func (c *Client) ListSubgroups(groupID any) paginate.RESTPageFetcher {
	return func(ctx context.Context, page, perPage int) ([]model.Resource, int, int, error) {
		opt := &gitlab.ListSubGroupsOptions{ListOptions: listOptions(page, perPage)}
		groups, resp, err := c.REST.Groups.ListSubGroups(groupID, opt, gitlab.WithContext(ctx))
		return pageResult(groups, resp, err)
	}
}

// ListGroupProjects pages through the projects directly owned by groupID
// (step 1, `areas`, resource type `projects`).
func (c *Client) ListGroupProjects(groupID any) paginate.RESTPageFetcher {
	return func(ctx context.Context, page, perPage int) ([]model.Resource, int, int, error) {
		opt := &gitlab.ListGroupProjectsOptions{
			ListOptions:      listOptions(page, perPage),
			IncludeSubGroups: gitlab.Ptr(false),
			Archived:         gitlab.Ptr(false),
		}
		projects, resp, err := c.REST.Groups.ListGroupProjects(groupID, opt, gitlab.WithContext(ctx))
		return pageResult(projects, resp, err)
	}
}

// DecodeGroupArea extracts the model.Area and numeric ID out of a group
// resource produced by ListTopLevelGroups/ListSubgroups, for the
// orchestrator's recursive area walk.
func DecodeGroupArea(r model.Resource) (area model.Area, id int, ok bool) {
	fp, fpOK := r["full_path"].(string)
	idFloat, idOK := r["id"].(float64)
	if !fpOK || !idOK {
		return model.Area{}, 0, false
	}
	id = int(idFloat)
	return model.Area{Kind: model.AreaKindGroup, FullPath: fp, ID: strconv.Itoa(id)}, id, true
}

// DecodeProjectArea extracts the model.Area and numeric ID out of a project
// resource produced by ListGroupProjects.
func DecodeProjectArea(r model.Resource) (area model.Area, id int, ok bool) {
	fp, fpOK := r["path_with_namespace"].(string)
	idFloat, idOK := r["id"].(float64)
	if !fpOK || !idOK {
		return model.Area{}, 0, false
	}
	id = int(idFloat)
	return model.Area{Kind: model.AreaKindProject, FullPath: fp, ID: strconv.Itoa(id)}, id, true
}
