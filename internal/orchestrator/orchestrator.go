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

// Package orchestrator implements the crawler's four-step pipeline (C8):
// areas -> users -> resources -> repository, each step isolated from the
// others' failures, driving the GraphQL/REST strategy dispatch and
// aggregating a final result summary. It composes every other component
// (C1-C7, C9), generalized from "one repo, many checks" to
// "many areas, many resource-type streams".
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/accountstore"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/callback"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/paginate"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/progress"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/resume"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/writer"
	"github.com/pdiegmann/copima-cli-crawler-sub001/log"
)

// GitLabClient is the subset of *gitlabapi.Client the orchestrator drives.
// Defining it here, at the consumer, rather than depending on the concrete
// type lets tests substitute a fake without touching the real REST/GraphQL
// wire clients.
type GitLabClient interface {
	ListTopLevelGroups() paginate.RESTPageFetcher
	ListSubgroups(groupID any) paginate.RESTPageFetcher
	ListGroupProjects(groupID any) paginate.RESTPageFetcher
	ListUsers() paginate.RESTPageFetcher

	ListLabels(projectID any) paginate.RESTPageFetcher
	ListIssues(projectID any) paginate.RESTPageFetcher
	ListBoards(projectID any) paginate.RESTPageFetcher
	ListEpics(groupID any) paginate.RESTPageFetcher
	ListAuditEvents(projectID any) paginate.RESTPageFetcher
	ListSnippets(projectID any) paginate.RESTPageFetcher
	ListPipelines(projectID any) paginate.RESTPageFetcher
	ListReleases(projectID any) paginate.RESTPageFetcher
	ListMilestones(projectID any) paginate.RESTPageFetcher
	ListMergeRequests(projectID any) paginate.RESTPageFetcher

	ListBranches(projectID any) paginate.RESTPageFetcher
	ListTags(projectID any) paginate.RESTPageFetcher
	ListBranchCommits(projectID any, branch string) paginate.RESTPageFetcher
	ListBranchTree(projectID any, branch string) paginate.RESTPageFetcher
	GetFileContent(ctx context.Context, projectID any, filePath, branch string) (model.Resource, error)

	ListDependencies(fullPath string) paginate.GraphQLPageFetcher
	ListVulnerabilities(fullPath string) paginate.GraphQLPageFetcher

	ListPackages(projectID any) paginate.RESTPageFetcher

	ListJobs(projectID any) paginate.RESTPageFetcher
	GetJobArtifactsMetadata(ctx context.Context, projectID any, jobID int) (model.Resource, error)
	GetJobLog(ctx context.Context, projectID any, jobID int) (model.Resource, error)
}

// Step identifiers, in default execution order.
const (
	StepAreas      = "areas"
	StepUsers      = "users"
	StepResources  = "resources"
	StepRepository = "repository"
)

// DefaultSteps is the step order run when Config.Steps is empty.
var DefaultSteps = []string{StepAreas, StepUsers, StepResources, StepRepository}

var knownSteps = map[string]bool{
	StepAreas:      true,
	StepUsers:      true,
	StepResources:  true,
	StepRepository: true,
}

// Deps are the constructed components the Orchestrator composes. All
// fields are required except AccountStore, which is only consulted for
// logging/diagnostics (token management itself lives behind the HTTP
// transport already wired into GitLab).
type Deps struct {
	GitLab       GitLabClient
	Writer       *writer.Writer
	Callbacks    *callback.Pipeline
	Progress     *progress.Reporter
	Resume       *resume.Store
	AccountStore accountstore.Store
	Logger       *log.Logger
	Host         string
	AccountID    string
}

// Config controls step selection and per-step concurrency.
type Config struct {
	// Steps lists the step IDs to run, in order. Empty means DefaultSteps.
	// Unknown step IDs are skipped with a warning.
	Steps []string
	// MaxConcurrency bounds the worker pool draining the project queue in
	// steps 3 and 4.
	MaxConcurrency int
	// RESTPerPage/GraphQLFirst override the paginator's default page size.
	RESTPerPage  int
	GraphQLFirst int
}

func (c Config) withDefaults() Config {
	if len(c.Steps) == 0 {
		c.Steps = DefaultSteps
	}
	if c.MaxConcurrency < 1 {
		c.MaxConcurrency = 1
	}
	return c
}

// Orchestrator is C8.
type Orchestrator struct {
	deps Deps
	cfg  Config
}

// New builds an Orchestrator from its dependency graph and configuration.
func New(deps Deps, cfg Config) *Orchestrator {
	return &Orchestrator{deps: deps, cfg: cfg.withDefaults()}
}

// StepSummary is the per-step entry of the final result's details map.
type StepSummary struct {
	Skipped        bool           `json:"skipped,omitempty"`
	ResourceCounts map[string]int `json:"resourceCounts,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// Summary is the crawl-wide result payload.
type Summary struct {
	ResourcesCrawled int                    `json:"resourcesCrawled"`
	Errors           int                    `json:"errors"`
	Warnings         int                    `json:"warnings"`
	Details          map[string]StepSummary `json:"details"`
}

// Result is returned by Run.
type Result struct {
	Success             bool          `json:"success"`
	TotalProcessingTime time.Duration `json:"totalProcessingTime"`
	Summary             Summary       `json:"summary"`
}

// Run drives the four-step pipeline to completion. Every step runs in an
// error-isolated frame: a failure inside one step is recorded and
// the orchestrator proceeds to the next step regardless. Success is
// errors == 0 across all steps that ran.
func (o *Orchestrator) Run(ctx context.Context) Result {
	start := time.Now()
	summary := Summary{Details: make(map[string]StepSummary)}

	o.deps.Resume.Start()
	o.deps.Progress.Start()
	o.deps.Progress.SetTotalSteps(len(o.cfg.Steps))

	var projects []model.Area

	for _, stepID := range o.cfg.Steps {
		if ctx.Err() != nil {
			o.deps.Logger.Info(fmt.Sprintf("context cancelled, stopping before step %q", stepID))
			break
		}
		if !knownSteps[stepID] {
			o.deps.Logger.Info(fmt.Sprintf("unknown step %q, skipping", stepID))
			summary.Warnings++
			continue
		}
		if o.deps.Resume.IsStepComplete(stepID) {
			o.deps.Logger.Info(fmt.Sprintf("step %q already completed in a prior session, skipping", stepID))
			summary.Details[stepID] = StepSummary{Skipped: true}
			continue
		}

		o.deps.Progress.UpdateCurrentStep(stepID)
		o.deps.Resume.SetCurrentStep(stepID)

		detail, stepErr := o.runStepIsolated(ctx, stepID, &projects)
		summary.Details[stepID] = detail
		for _, n := range detail.ResourceCounts {
			summary.ResourcesCrawled += n
		}

		if stepErr != nil {
			summary.Errors++
			o.deps.Progress.AddError(stepID, stepErr.Error(), false)
			o.deps.Logger.Error(stepErr, fmt.Sprintf("step %q failed", stepID))
			continue
		}

		o.deps.Progress.CompleteStep(stepID)
		if err := o.deps.Resume.MarkStepComplete(ctx, stepID); err != nil {
			o.deps.Logger.Error(err, fmt.Sprintf("persisting completion of step %q", stepID))
		}
	}

	o.deps.Resume.Stop(ctx)
	o.deps.Progress.Stop()

	return Result{
		Success:             summary.Errors == 0,
		TotalProcessingTime: time.Since(start),
		Summary:             summary,
	}
}

// runStepIsolated dispatches to the step implementation under a recover()
// guard, so a panic inside one step degrades to a recorded step error
// instead of crashing the whole crawl.
func (o *Orchestrator) runStepIsolated(ctx context.Context, stepID string, projects *[]model.Area) (detail StepSummary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in step %q: %v", stepID, r)
			detail = StepSummary{Error: err.Error()}
		}
	}()

	switch stepID {
	case StepAreas:
		areas, groupCount, walkErr := o.runAreas(ctx)
		*projects = areas
		counts := map[string]int{"groups": groupCount, "projects": len(areas)}
		if walkErr != nil {
			return StepSummary{ResourceCounts: counts, Error: walkErr.Error()}, walkErr
		}
		return StepSummary{ResourceCounts: counts}, nil

	case StepUsers:
		n, usersErr := o.runUsers(ctx)
		counts := map[string]int{"users": n}
		if usersErr != nil {
			return StepSummary{ResourceCounts: counts, Error: usersErr.Error()}, usersErr
		}
		return StepSummary{ResourceCounts: counts}, nil

	case StepResources:
		return o.runResources(ctx, *projects)

	case StepRepository:
		return o.runRepository(ctx, *projects)

	default:
		return StepSummary{}, nil
	}
}
