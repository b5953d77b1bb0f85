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

// Package paginate implements the crawler's unified pagination engine (C2):
// a page-numbered REST loop grounded in the gitlab client-go ListOptions
// idiom the source repo's gitlabrepo handlers already use, and a
// cursor-based GraphQL loop grounded in the retrieved GraphQLPager example.
package paginate

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"

	sce "github.com/pdiegmann/copima-cli-crawler-sub001/errors"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
	"github.com/pdiegmann/copima-cli-crawler-sub001/log"
)

// DefaultPerPage is the default REST/GraphQL page size.
const DefaultPerPage = 100

// DefaultMaxPages is the hard safety cap on REST pages.
const DefaultMaxPages = 100

// maxPageRetries bounds the exponential backoff retried on a transient
// per-page failure (network unreachable / timeout transport
// classification) before the page error is surfaced to the caller.
const maxPageRetries = 3

// isTransient reports whether err is one C1 classifies as retryable.
func isTransient(err error) bool {
	return errors.Is(err, sce.ErrNetworkUnreachable) || errors.Is(err, sce.ErrTimeout)
}

// fetchPageWithRetry retries a single page fetch on a transient transport
// error with exponential backoff, grounded in the same cenkalti/backoff
// idiom the retrieved corpus uses for outbound HTTP retries. A non-transient
// error (e.g. an HTTP 4xx) is returned immediately without retrying.
func fetchPageWithRetry(ctx context.Context, fetch RESTPageFetcher, page, perPage int, logger *log.Logger) ([]model.Resource, int, int, error) {
	var records []model.Resource
	var currentPage, totalPages int

	operation := func() error {
		var err error
		records, currentPage, totalPages, err = fetch(ctx, page, perPage)
		if err != nil && isTransient(err) {
			logger.Info("retrying transient page fetch error")
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxPageRetries)
	err := backoff.Retry(operation, backoff.WithContext(bo, ctx))
	if err != nil {
		return records, currentPage, totalPages, err
	}
	return records, currentPage, totalPages, nil
}

// RESTOptions configures a page-numbered pagination run.
type RESTOptions struct {
	PerPage  int
	MaxPages int
}

func (o RESTOptions) withDefaults() RESTOptions {
	if o.PerPage <= 0 {
		o.PerPage = DefaultPerPage
	}
	if o.MaxPages <= 0 {
		o.MaxPages = DefaultMaxPages
	}
	return o
}

// RESTPageFetcher fetches one page of records. It returns the records for
// that page plus the 1-based current page and total page count the server
// reported (mirroring gitlab.Response.CurrentPage/TotalPages); an
// implementation unable to report totals should return currentPage>=totalPages
// once the page is short of perPage.
type RESTPageFetcher func(ctx context.Context, page, perPage int) (records []model.Resource, currentPage, totalPages int, err error)

// FetchAllREST drives a page-numbered pagination loop to completion. On a
// per-page error it stops and returns the records accumulated so far
// alongside the error (non-fatal) rather than discarding them.
func FetchAllREST(ctx context.Context, opts RESTOptions, fetch RESTPageFetcher, logger *log.Logger) ([]model.Resource, error) {
	opts = opts.withDefaults()

	var all []model.Resource
	page := 1
	for {
		if page > opts.MaxPages {
			logger.Info("reached maxPages safety cap, stopping pagination")
			break
		}

		records, currentPage, totalPages, err := fetchPageWithRetry(ctx, fetch, page, opts.PerPage, logger)
		if err != nil {
			logger.Error(err, "error fetching page, stopping pagination with partial results")
			return all, err
		}

		all = append(all, records...)

		if len(records) == 0 || len(records) < opts.PerPage {
			break
		}
		if totalPages > 0 && currentPage >= totalPages {
			break
		}
		page++
	}

	return all, nil
}

// GraphQLOptions configures a cursor-based pagination run.
type GraphQLOptions struct {
	First int
}

func (o GraphQLOptions) withDefaults() GraphQLOptions {
	if o.First <= 0 {
		o.First = DefaultPerPage
	}
	return o
}

// GraphQLPageFetcher issues one GraphQL request with the given cursor
// ("" for the first page) and returns the page's records plus the next
// PageInfo as reported by the document's pageInfo { hasNextPage, endCursor }.
type GraphQLPageFetcher func(ctx context.Context, first int, after string) (records []model.Resource, page model.PageInfo, err error)

// FetchAllGraphQL drives a cursor-based pagination loop to completion,
// following pageInfo.hasNextPage/endCursor until the server reports no more
// pages. The loop stops at the first page error and returns the records
// accumulated so far together with that error; unlike the REST loop, a
// failed page is not retried.
func FetchAllGraphQL(ctx context.Context, opts GraphQLOptions, fetch GraphQLPageFetcher) ([]model.Resource, error) {
	opts = opts.withDefaults()

	var all []model.Resource
	cursor := ""
	for {
		records, page, err := fetch(ctx, opts.First, cursor)
		if err != nil {
			return all, err
		}
		all = append(all, records...)

		if !page.HasNextPage || page.EndCursor == "" {
			break
		}
		cursor = page.EndCursor
	}

	return all, nil
}
