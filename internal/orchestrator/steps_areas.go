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

package orchestrator

import (
	"context"
	"fmt"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/gitlabapi"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/paginate"
)

// runAreas walks the group tree depth-first from the account's top-level
// groups down through every subgroup, recording each group's subgroups and
// projects into its own directory and returning the flattened list of
// project areas steps 3 and 4 crawl. A fullPath visited-set guards against
// a group getting renamed or re-parented mid-walk and revisited as a cycle.
func (o *Orchestrator) runAreas(ctx context.Context) (projects []model.Area, groupCount int, err error) {
	visited := make(map[string]bool)
	root := model.Area{Kind: model.AreaKindGroup, FullPath: ""}

	topGroups, fetchErr := paginate.FetchAllREST(ctx, o.restOpts(), o.deps.GitLab.ListTopLevelGroups(), o.deps.Logger)
	if len(topGroups) > 0 {
		o.deliver(ctx, StepAreas, root, "groups", o.deps.Writer.Path(root, "groups"), topGroups)
	}
	if fetchErr != nil {
		return nil, 0, fmt.Errorf("listing top-level groups: %w", fetchErr)
	}

	for _, g := range topGroups {
		area, id, ok := gitlabapi.DecodeGroupArea(g)
		if !ok || visited[area.FullPath] {
			continue
		}
		visited[area.FullPath] = true
		groupCount++
		groupCount += o.walkGroup(ctx, area, id, visited, &projects)
	}

	return projects, groupCount, nil
}

// walkGroup recurses into one group's subgroups, writing its direct
// subgroups and projects, and returns the number of subgroups discovered
// beneath it.
func (o *Orchestrator) walkGroup(ctx context.Context, area model.Area, groupID int, visited map[string]bool, projects *[]model.Area) int {
	if ctx.Err() != nil {
		return 0
	}

	subgroups, err := paginate.FetchAllREST(ctx, o.restOpts(), o.deps.GitLab.ListSubgroups(groupID), o.deps.Logger)
	if len(subgroups) > 0 {
		o.deliver(ctx, StepAreas, area, "groups", o.deps.Writer.Path(area, "groups"), subgroups)
	}
	if err != nil {
		o.deps.Progress.AddError(StepAreas, fmt.Sprintf("listing subgroups of %q: %v", area.FullPath, err), true)
	}

	groupProjects, err := paginate.FetchAllREST(ctx, o.restOpts(), o.deps.GitLab.ListGroupProjects(groupID), o.deps.Logger)
	if len(groupProjects) > 0 {
		o.deliver(ctx, StepAreas, area, "projects", o.deps.Writer.Path(area, "projects"), groupProjects)
	}
	if err != nil {
		o.deps.Progress.AddError(StepAreas, fmt.Sprintf("listing projects of %q: %v", area.FullPath, err), true)
	}

	for _, p := range groupProjects {
		projectArea, _, ok := gitlabapi.DecodeProjectArea(p)
		if !ok || visited[projectArea.FullPath] {
			continue
		}
		visited[projectArea.FullPath] = true
		*projects = append(*projects, projectArea)
	}

	count := 0
	for _, g := range subgroups {
		childArea, childID, ok := gitlabapi.DecodeGroupArea(g)
		if !ok || visited[childArea.FullPath] {
			continue
		}
		visited[childArea.FullPath] = true
		count++
		count += o.walkGroup(ctx, childArea, childID, visited, projects)
	}
	return count
}

// runUsers pages through every user visible to the account and writes them
// to the root directory's users.jsonl.
func (o *Orchestrator) runUsers(ctx context.Context) (int, error) {
	root := model.Area{FullPath: ""}
	records, err := paginate.FetchAllREST(ctx, o.restOpts(), o.deps.GitLab.ListUsers(), o.deps.Logger)
	n := o.deliver(ctx, StepUsers, root, "users", o.deps.Writer.Path(root, "users"), records)
	if err != nil {
		return n, fmt.Errorf("listing users: %w", err)
	}
	return n, nil
}
