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

	"golang.org/x/sync/errgroup"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/paginate"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/writer"
)

// wellKnownFiles are the root-level files the `file_content` stream fetches
// from each project's default branch. A full file-tree content dump
// is out of scope.
var wellKnownFiles = []string{"README.md", "LICENSE", "SECURITY.md", "CODEOWNERS"}

// runRepository is step 4: per-project branches, tags, per-branch commits
// and trees, a handful of well-known file contents, dependencies and
// vulnerabilities (GraphQL-only), packages, and per-job artifact/log
// metadata. It shares the same bounded worker pool shape as runResources.
func (o *Orchestrator) runRepository(ctx context.Context, projects []model.Area) (StepSummary, error) {
	counts := newCountAccumulator()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.MaxConcurrency)

	for _, project := range projects {
		project := project
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			n := o.crawlProjectRepository(gctx, project)
			counts.add(n)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return StepSummary{ResourceCounts: counts.snapshot(), Error: err.Error()}, err
	}
	return StepSummary{ResourceCounts: counts.snapshot()}, nil
}

func (o *Orchestrator) crawlProjectRepository(ctx context.Context, project model.Area) map[string]int {
	n := make(map[string]int)
	gl := o.deps.GitLab
	path := func(resourceType string) string { return o.deps.Writer.Path(project, resourceType) }

	// Branches, tags, per-branch commits/trees, and file contents nest under
	// "repository/" per the on-disk layout.
	branchRecords, err := paginate.FetchAllREST(ctx, o.restOpts(), gl.ListBranches(project.ID), o.deps.Logger)
	if err != nil {
		o.deps.Progress.AddError(StepRepository, fmt.Sprintf("listing branches of %q: %v", project.FullPath, err), true)
	}
	branchesPath := o.deps.Writer.SubPath(project, []string{"repository"}, "branches")
	n["branches"] = o.deliver(ctx, StepRepository, project, "branches", branchesPath, branchRecords)

	tagsPath := o.deps.Writer.SubPath(project, []string{"repository"}, "tags")
	n["tags"] = o.crawlREST(ctx, StepRepository, project, "tags", tagsPath, gl.ListTags(project.ID))
	n["packages"] = o.crawlREST(ctx, StepRepository, project, "packages", path("packages"), gl.ListPackages(project.ID))
	n["dependencies"] = o.crawlGraphQL(ctx, StepRepository, project, "dependencies", path("dependencies"), gl.ListDependencies(project.FullPath))

	// Security findings nest under "security/" per the on-disk layout.
	securityPath := o.deps.Writer.SubPath(project, []string{"security"}, "vulnerabilities")
	n["vulnerabilities"] = o.crawlGraphQL(ctx, StepRepository, project, "vulnerabilities", securityPath, gl.ListVulnerabilities(project.FullPath))

	for _, b := range branchRecords {
		name, ok := b["name"].(string)
		if !ok || name == "" {
			continue
		}
		segments := []string{"repository", "branches", writer.Sanitize(name)}
		n["commits"] += o.crawlREST(ctx, StepRepository, project, "commits", o.deps.Writer.SubPath(project, segments, "commits"), gl.ListBranchCommits(project.ID, name))
		n["tree"] += o.crawlREST(ctx, StepRepository, project, "tree", o.deps.Writer.SubPath(project, segments, "tree"), gl.ListBranchTree(project.ID, name))
	}

	defaultBranch := defaultBranchName(branchRecords)
	if defaultBranch != "" {
		for _, file := range wellKnownFiles {
			resource, err := gl.GetFileContent(ctx, project.ID, file, defaultBranch)
			if err != nil {
				// Most projects lack one or more of these files; a 404 here is
				// the expected common case, not a crawl error.
				continue
			}
			fileResourceType := fmt.Sprintf("%s_content", writer.Sanitize(file))
			filePath := o.deps.Writer.SubPath(project, []string{"repository", "files"}, fileResourceType)
			n["file_content"] += o.deliver(ctx, StepRepository, project, "file_content", filePath, []model.Resource{resource})
		}
	}

	jobRecords, err := paginate.FetchAllREST(ctx, o.restOpts(), gl.ListJobs(project.ID), o.deps.Logger)
	if err != nil {
		o.deps.Progress.AddError(StepRepository, fmt.Sprintf("listing jobs of %q: %v", project.FullPath, err), true)
	}
	n["jobs"] = o.deliver(ctx, StepRepository, project, "jobs", path("jobs"), jobRecords)

	for _, j := range jobRecords {
		idFloat, ok := j["id"].(float64)
		if !ok {
			continue
		}
		jobID := int(idFloat)

		if artifacts, err := gl.GetJobArtifactsMetadata(ctx, project.ID, jobID); err == nil {
			artifactsPath := o.deps.Writer.SubPath(project, []string{"jobs"}, fmt.Sprintf("%d_artifacts", jobID))
			n["jobArtifacts"] += o.deliver(ctx, StepRepository, project, "jobArtifacts", artifactsPath, []model.Resource{artifacts})
		}
		if log, err := gl.GetJobLog(ctx, project.ID, jobID); err == nil {
			logsPath := o.deps.Writer.SubPath(project, []string{"jobs"}, fmt.Sprintf("%d_logs", jobID))
			n["jobLogs"] += o.deliver(ctx, StepRepository, project, "jobLogs", logsPath, []model.Resource{log})
		}
	}

	return n
}

// defaultBranchName picks the branch flagged default=true, falling back to
// the first branch returned when none is flagged (an empty branch list
// yields "", which callers treat as "skip file_content for this project").
func defaultBranchName(branches []model.Resource) string {
	for _, b := range branches {
		if def, _ := b["default"].(bool); def {
			if name, ok := b["name"].(string); ok {
				return name
			}
		}
	}
	if len(branches) > 0 {
		if name, ok := branches[0]["name"].(string); ok {
			return name
		}
	}
	return ""
}
