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
	"bytes"
	"context"
	"fmt"
	"io"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/paginate"
)

// ListJobs pages through a project's CI jobs; the orchestrator uses the
// job IDs it yields to drive per-job artifact/log fetches:
// `jobs/<jobId>_artifacts.jsonl`, `jobs/<jobId>_logs.jsonl`.
func (c *Client) ListJobs(projectID any) paginate.RESTPageFetcher {
	return func(ctx context.Context, page, perPage int) ([]model.Resource, int, int, error) {
		opt := &gitlab.ListJobsOptions{ListOptions: listOptions(page, perPage)}
		jobs, resp, err := c.REST.Jobs.ListProjectJobs(projectID, opt, gitlab.WithContext(ctx))
		return pageResult(jobs, resp, err)
	}
}

// GetJobArtifactsMetadata returns a single record describing job's
// artifacts archive (name, size, availability) without downloading the
// (potentially large) archive body itself.
func (c *Client) GetJobArtifactsMetadata(ctx context.Context, projectID any, jobID int) (model.Resource, error) {
	job, _, err := c.REST.Jobs.GetJob(projectID, jobID, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetching job %d metadata: %w", jobID, err)
	}
	resource, err := toResource(job)
	if err != nil {
		return nil, err
	}
	resource["jobId"] = jobID
	if job.Artifacts != nil {
		resource["hasArtifacts"] = len(job.Artifacts) > 0
	}
	return resource, nil
}

// GetJobLog fetches a job's full trace log as one record
// (`jobs/<jobId>_logs.jsonl`). Job traces are streamed, not paginated, so
// this reads the entire body into memory; callers on very large traces
// should prefer a future streaming writer path (not needed at current
// scale).
func (c *Client) GetJobLog(ctx context.Context, projectID any, jobID int) (model.Resource, error) {
	reader, _, err := c.REST.Jobs.GetTraceFile(projectID, jobID, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetching job %d trace: %w", jobID, err)
	}
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, reader); err != nil {
		return nil, fmt.Errorf("reading job %d trace: %w", jobID, err)
	}
	return model.Resource{
		"jobId": jobID,
		"log":   buf.String(),
	}, nil
}
