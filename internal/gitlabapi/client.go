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

// Package gitlabapi is the crawler's concrete GitLab-facing fetcher set: a
// thin domain layer over gitlab.com/gitlab-org/api/client-go (REST) and
// github.com/shurcooL/graphql (GraphQL) that the orchestrator's strategy
// table dispatches into.
//
// Every exported List* function here is shaped as an internal/paginate
// page fetcher so the orchestrator drives pagination uniformly through C2
// regardless of which wire protocol a given resource type uses.
package gitlabapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shurcooL/graphql"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
)

// Config points the Client at a host and supplies the http.Client whose
// RoundTripper chain (internal/transport) already layers auth, timeout, and
// rate-limit handling. Both the REST and GraphQL clients share it so a
// token refresh triggered by one is immediately visible to the other.
type Config struct {
	Host       string
	HTTPClient *http.Client
}

// Client wraps the REST and GraphQL surfaces the orchestrator needs.
type Client struct {
	REST    *gitlab.Client
	GraphQL *graphql.Client
}

// New builds a Client rooted at cfg.Host. The GraphQL endpoint is derived
// from the REST host rather than hard-coded to gitlab.com, so the client
// works against any self-managed GitLab instance too.
func New(cfg Config) (*Client, error) {
	httpCli := cfg.HTTPClient
	if httpCli == nil {
		httpCli = http.DefaultClient
	}

	restCli, err := gitlab.NewClient("", gitlab.WithBaseURL(cfg.Host), gitlab.WithHTTPClient(httpCli))
	if err != nil {
		return nil, fmt.Errorf("constructing gitlab REST client: %w", err)
	}

	gqlCli := graphql.NewClient(cfg.Host+"/api/graphql", httpCli)

	return &Client{REST: restCli, GraphQL: gqlCli}, nil
}

// toResources marshals a slice of typed client-go response structs into
// the core's opaque model.Resource shape via a JSON round trip, since the
// writer and callback pipeline only ever deal in model.Resource.
func toResources[T any](items []T) ([]model.Resource, error) {
	out := make([]model.Resource, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("marshaling %T: %w", item, err)
		}
		var r model.Resource
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("unmarshaling %T into resource: %w", item, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func toResource(v any) (model.Resource, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling %T: %w", v, err)
	}
	var r model.Resource
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshaling %T into resource: %w", v, err)
	}
	return r, nil
}

// pageResult adapts a (items, *gitlab.Response, error) REST call result
// into the internal/paginate.RESTPageFetcher return shape: records plus
// the reported current/total page so the generic loop can decide when to
// stop without any resource-type-specific knowledge.
func pageResult[T any](items []T, resp *gitlab.Response, err error) ([]model.Resource, int, int, error) {
	if err != nil {
		current, total := 0, 0
		if resp != nil {
			current, total = resp.CurrentPage, resp.TotalPages
		}
		return nil, current, total, err
	}
	records, convErr := toResources(items)
	if convErr != nil {
		return nil, resp.CurrentPage, resp.TotalPages, convErr
	}
	return records, resp.CurrentPage, resp.TotalPages, nil
}

func listOptions(page, perPage int) gitlab.ListOptions {
	return gitlab.ListOptions{Page: page, PerPage: perPage}
}
