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

package orchestrator_test

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/paginate"
)

// fakeGitLab is a hand-rolled stand-in for *gitlabapi.Client, satisfying
// orchestrator.GitLabClient with canned single-page responses. It exists so
// the orchestrator suite never opens a real network connection.
type fakeGitLab struct {
	topGroups     []model.Resource
	subgroups     map[int][]model.Resource
	groupProjects map[int][]model.Resource
	users         []model.Resource

	perProject map[string]map[string][]model.Resource
	epics      map[string][]model.Resource

	branches map[string][]model.Resource
	tags     map[string][]model.Resource
	commits  map[string]map[string][]model.Resource
	tree     map[string]map[string][]model.Resource
	files    map[string]map[string]model.Resource

	dependencies    map[string][]model.Resource
	vulnerabilities map[string][]model.Resource

	jobs         map[string][]model.Resource
	jobArtifacts map[string]map[int]model.Resource
	jobLogs      map[string]map[int]model.Resource
}

func newFakeGitLab() *fakeGitLab {
	return &fakeGitLab{
		subgroups:       make(map[int][]model.Resource),
		groupProjects:   make(map[int][]model.Resource),
		perProject:      make(map[string]map[string][]model.Resource),
		epics:           make(map[string][]model.Resource),
		branches:        make(map[string][]model.Resource),
		tags:            make(map[string][]model.Resource),
		commits:         make(map[string]map[string][]model.Resource),
		tree:            make(map[string]map[string][]model.Resource),
		files:           make(map[string]map[string]model.Resource),
		dependencies:    make(map[string][]model.Resource),
		vulnerabilities: make(map[string][]model.Resource),
		jobs:            make(map[string][]model.Resource),
		jobArtifacts:    make(map[string]map[int]model.Resource),
		jobLogs:         make(map[string]map[int]model.Resource),
	}
}

func toIntID(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case string:
		n, _ := strconv.Atoi(t)
		return n
	default:
		return 0
	}
}

func toStrID(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprint(v)
	}
}

func singlePageREST(records []model.Resource) paginate.RESTPageFetcher {
	return func(_ context.Context, page, _ int) ([]model.Resource, int, int, error) {
		if page > 1 {
			return nil, page, 1, nil
		}
		return records, 1, 1, nil
	}
}

func singlePageGraphQL(records []model.Resource) paginate.GraphQLPageFetcher {
	return func(_ context.Context, _ int, after string) ([]model.Resource, model.PageInfo, error) {
		if after != "" {
			return nil, model.PageInfo{}, nil
		}
		return records, model.PageInfo{HasNextPage: false}, nil
	}
}

func (f *fakeGitLab) ListTopLevelGroups() paginate.RESTPageFetcher { return singlePageREST(f.topGroups) }

func (f *fakeGitLab) ListSubgroups(groupID any) paginate.RESTPageFetcher {
	return singlePageREST(f.subgroups[toIntID(groupID)])
}

func (f *fakeGitLab) ListGroupProjects(groupID any) paginate.RESTPageFetcher {
	return singlePageREST(f.groupProjects[toIntID(groupID)])
}

func (f *fakeGitLab) ListUsers() paginate.RESTPageFetcher { return singlePageREST(f.users) }

func (f *fakeGitLab) resource(projectID any, resourceType string) []model.Resource {
	return f.perProject[toStrID(projectID)][resourceType]
}

func (f *fakeGitLab) ListLabels(projectID any) paginate.RESTPageFetcher {
	return singlePageREST(f.resource(projectID, "labels"))
}

func (f *fakeGitLab) ListIssues(projectID any) paginate.RESTPageFetcher {
	return singlePageREST(f.resource(projectID, "issues"))
}

func (f *fakeGitLab) ListBoards(projectID any) paginate.RESTPageFetcher {
	return singlePageREST(f.resource(projectID, "boards"))
}

func (f *fakeGitLab) ListEpics(groupID any) paginate.RESTPageFetcher {
	return singlePageREST(f.epics[toStrID(groupID)])
}

func (f *fakeGitLab) ListAuditEvents(projectID any) paginate.RESTPageFetcher {
	return singlePageREST(f.resource(projectID, "audit_events"))
}

func (f *fakeGitLab) ListSnippets(projectID any) paginate.RESTPageFetcher {
	return singlePageREST(f.resource(projectID, "snippets"))
}

func (f *fakeGitLab) ListPipelines(projectID any) paginate.RESTPageFetcher {
	return singlePageREST(f.resource(projectID, "pipelines"))
}

func (f *fakeGitLab) ListReleases(projectID any) paginate.RESTPageFetcher {
	return singlePageREST(f.resource(projectID, "releases"))
}

func (f *fakeGitLab) ListMilestones(projectID any) paginate.RESTPageFetcher {
	return singlePageREST(f.resource(projectID, "milestones"))
}

func (f *fakeGitLab) ListMergeRequests(projectID any) paginate.RESTPageFetcher {
	return singlePageREST(f.resource(projectID, "merge_requests"))
}

func (f *fakeGitLab) ListBranches(projectID any) paginate.RESTPageFetcher {
	return singlePageREST(f.branches[toStrID(projectID)])
}

func (f *fakeGitLab) ListTags(projectID any) paginate.RESTPageFetcher {
	return singlePageREST(f.tags[toStrID(projectID)])
}

func (f *fakeGitLab) ListBranchCommits(projectID any, branch string) paginate.RESTPageFetcher {
	return singlePageREST(f.commits[toStrID(projectID)][branch])
}

func (f *fakeGitLab) ListBranchTree(projectID any, branch string) paginate.RESTPageFetcher {
	return singlePageREST(f.tree[toStrID(projectID)][branch])
}

func (f *fakeGitLab) GetFileContent(_ context.Context, projectID any, filePath, _ string) (model.Resource, error) {
	file, ok := f.files[toStrID(projectID)][filePath]
	if !ok {
		return nil, fmt.Errorf("file %q not found", filePath)
	}
	return file, nil
}

func (f *fakeGitLab) ListDependencies(fullPath string) paginate.GraphQLPageFetcher {
	return singlePageGraphQL(f.dependencies[fullPath])
}

func (f *fakeGitLab) ListVulnerabilities(fullPath string) paginate.GraphQLPageFetcher {
	return singlePageGraphQL(f.vulnerabilities[fullPath])
}

func (f *fakeGitLab) ListPackages(projectID any) paginate.RESTPageFetcher {
	return singlePageREST(f.resource(projectID, "packages"))
}

func (f *fakeGitLab) ListJobs(projectID any) paginate.RESTPageFetcher {
	return singlePageREST(f.jobs[toStrID(projectID)])
}

func (f *fakeGitLab) GetJobArtifactsMetadata(_ context.Context, projectID any, jobID int) (model.Resource, error) {
	r, ok := f.jobArtifacts[toStrID(projectID)][jobID]
	if !ok {
		return nil, fmt.Errorf("job %d has no artifacts", jobID)
	}
	return r, nil
}

func (f *fakeGitLab) GetJobLog(_ context.Context, projectID any, jobID int) (model.Resource, error) {
	r, ok := f.jobLogs[toStrID(projectID)][jobID]
	if !ok {
		return nil, fmt.Errorf("job %d has no log", jobID)
	}
	return r, nil
}

// erroringUsersClient wraps fakeGitLab and forces ListUsers to fail, used to
// exercise the orchestrator's per-step failure isolation.
type erroringUsersClient struct {
	*fakeGitLab
}

func (erroringUsersClient) ListUsers() paginate.RESTPageFetcher {
	return func(_ context.Context, _, _ int) ([]model.Resource, int, int, error) {
		return nil, 0, 0, fmt.Errorf("simulated users endpoint failure")
	}
}
