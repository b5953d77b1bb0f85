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
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
)

// runResources drains the project queue produced by step 1 through a
// bounded worker pool,
// fetching every project-scoped resource type named in step-3 row.
// A single project's failure is isolated to that project; the step as a
// whole only fails if the worker pool itself cannot be started.
func (o *Orchestrator) runResources(ctx context.Context, projects []model.Area) (StepSummary, error) {
	counts := newCountAccumulator()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.MaxConcurrency)

	for _, project := range projects {
		project := project
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			n := o.crawlProjectResources(gctx, project)
			counts.add(n)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return StepSummary{ResourceCounts: counts.snapshot(), Error: err.Error()}, err
	}

	// Epics are group-scoped; fetch once per distinct parent group rather
	// than per project, matching ListEpics' doc comment.
	o.crawlGroupEpics(ctx, projects, counts)

	return StepSummary{ResourceCounts: counts.snapshot()}, nil
}

func (o *Orchestrator) crawlProjectResources(ctx context.Context, project model.Area) map[string]int {
	n := make(map[string]int)
	gl := o.deps.GitLab
	path := func(resourceType string) string { return o.deps.Writer.Path(project, resourceType) }

	n["labels"] = o.crawlREST(ctx, StepResources, project, "labels", path("labels"), gl.ListLabels(project.ID))
	n["issues"] = o.crawlREST(ctx, StepResources, project, "issues", path("issues"), gl.ListIssues(project.ID))
	n["boards"] = o.crawlREST(ctx, StepResources, project, "boards", path("boards"), gl.ListBoards(project.ID))
	n["audit_events"] = o.crawlREST(ctx, StepResources, project, "audit_events", path("audit_events"), gl.ListAuditEvents(project.ID))
	n["snippets"] = o.crawlREST(ctx, StepResources, project, "snippets", path("snippets"), gl.ListSnippets(project.ID))
	n["pipelines"] = o.crawlREST(ctx, StepResources, project, "pipelines", path("pipelines"), gl.ListPipelines(project.ID))
	n["releases"] = o.crawlREST(ctx, StepResources, project, "releases", path("releases"), gl.ListReleases(project.ID))
	n["milestones"] = o.crawlREST(ctx, StepResources, project, "milestones", path("milestones"), gl.ListMilestones(project.ID))
	n["merge_requests"] = o.crawlREST(ctx, StepResources, project, "merge_requests", path("merge_requests"), gl.ListMergeRequests(project.ID))

	return n
}

// crawlGroupEpics fetches each distinct parent group's epics exactly once,
// derived from the projects' fullPath rather than a second directory walk.
func (o *Orchestrator) crawlGroupEpics(ctx context.Context, projects []model.Area, counts *countAccumulator) {
	seen := make(map[string]bool)
	for _, project := range projects {
		groupPath := parentPath(project.FullPath)
		if groupPath == "" || seen[groupPath] {
			continue
		}
		seen[groupPath] = true
		groupArea := model.Area{Kind: model.AreaKindGroup, FullPath: groupPath}
		n := o.crawlREST(ctx, StepResources, groupArea, "epics", o.deps.Writer.Path(groupArea, "epics"), o.deps.GitLab.ListEpics(groupPath))
		counts.add(map[string]int{"epics": n})
	}
}

func parentPath(fullPath string) string {
	idx := -1
	for i := len(fullPath) - 1; i >= 0; i-- {
		if fullPath[i] == '/' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ""
	}
	return fullPath[:idx]
}

// countAccumulator merges per-project resource counts under a mutex; the
// worker pool writes to it concurrently.
type countAccumulator struct {
	mu     sync.Mutex
	totals map[string]int
}

func newCountAccumulator() *countAccumulator {
	return &countAccumulator{totals: make(map[string]int)}
}

func (a *countAccumulator) add(n map[string]int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for k, v := range n {
		a.totals[k] += v
	}
}

func (a *countAccumulator) snapshot() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]int, len(a.totals))
	for k, v := range a.totals {
		out[k] = v
	}
	return out
}
