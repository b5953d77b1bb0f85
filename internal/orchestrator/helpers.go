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

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/paginate"
)

func (o *Orchestrator) restOpts() paginate.RESTOptions {
	return paginate.RESTOptions{PerPage: o.cfg.RESTPerPage}
}

func (o *Orchestrator) graphqlOpts() paginate.GraphQLOptions {
	return paginate.GraphQLOptions{First: o.cfg.GraphQLFirst}
}

// deliver consults the resume store for per-record idempotence, runs the
// callback pipeline, appends the surviving records to path, and records
// every written record as processed. It never returns an error: write
// failures are logged and reported to the progress file instead, in
// keeping with per-resource-type fault isolation.
func (o *Orchestrator) deliver(ctx context.Context, stepID string, area model.Area, resourceType, path string, records []model.Resource) (processed int) {
	if len(records) == 0 {
		return 0
	}

	var pending []model.Resource
	skipped := 0
	for _, rec := range records {
		if id, ok := rec.ID(); ok && o.deps.Resume.IsProcessed(stepID, id) {
			skipped++
			continue
		}
		pending = append(pending, rec)
	}

	cbCtx := model.CallbackContext{Host: o.deps.Host, AccountID: o.deps.AccountID, ResourceType: resourceType}
	kept, filtered := o.deps.Callbacks.ProcessObjects(ctx, cbCtx, pending)

	if err := o.deps.Writer.AppendJSONL(path, kept); err != nil {
		o.deps.Logger.Error(err, fmt.Sprintf("writing %s records for %q", resourceType, area.FullPath))
		o.deps.Progress.AddError(stepID, fmt.Sprintf("writing %s for %q: %v", resourceType, area.FullPath, err), true)
		return 0
	}

	for _, rec := range kept {
		if id, ok := rec.ID(); ok {
			o.deps.Resume.RecordProcessed(stepID, resourceType, id)
		}
	}

	o.deps.Progress.UpdateResourceCount(resourceType, len(records), len(kept), filtered+skipped, 0)
	return len(kept)
}

// crawlREST drains a RESTPageFetcher to completion and delivers the result,
// isolating a pagination failure to this (area, resourceType) pair rather
// than aborting the whole step.
func (o *Orchestrator) crawlREST(ctx context.Context, stepID string, area model.Area, resourceType, path string, fetch paginate.RESTPageFetcher) int {
	records, err := paginate.FetchAllREST(ctx, o.restOpts(), fetch, o.deps.Logger)
	if err != nil {
		o.deps.Logger.Error(err, fmt.Sprintf("fetching %s for %q", resourceType, area.FullPath))
		o.deps.Progress.AddError(stepID, fmt.Sprintf("fetching %s for %q: %v", resourceType, area.FullPath, err), true)
	}
	return o.deliver(ctx, stepID, area, resourceType, path, records)
}

// crawlGraphQL is crawlREST's cursor-paginated counterpart.
func (o *Orchestrator) crawlGraphQL(ctx context.Context, stepID string, area model.Area, resourceType, path string, fetch paginate.GraphQLPageFetcher) int {
	records, err := paginate.FetchAllGraphQL(ctx, o.graphqlOpts(), fetch)
	if err != nil {
		o.deps.Logger.Error(err, fmt.Sprintf("fetching %s for %q", resourceType, area.FullPath))
		o.deps.Progress.AddError(stepID, fmt.Sprintf("fetching %s for %q: %v", resourceType, area.FullPath, err), true)
	}
	return o.deliver(ctx, stepID, area, resourceType, path, records)
}
