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

// Dependencies and vulnerability findings have no REST enumeration
// endpoint on current GitLab versions; both are exposed only through
// GraphQL. This file uses the graphql.Client + struct-tag query idiom for
// the dependencies/vulnerabilities connections the `repository` step
// needs, each with its own cursor-based pageInfo.
package gitlabapi

import (
	"context"

	"github.com/shurcooL/graphql"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/paginate"
)

//nolint:govet
type dependencyNode struct {
	Name                graphql.String
	Version             graphql.String
	PackageManager      graphql.String `graphql:"packageManager"`
	Location            struct {
		Path graphql.String
	}
	Vulnerabilities struct {
		Nodes []struct {
			Name graphql.String
		}
	}
}

//nolint:govet
type dependenciesQuery struct {
	Project struct {
		Dependencies struct {
			Nodes    []dependencyNode
			PageInfo graphqlPageInfo
		} `graphql:"dependencies(after: $after, first: $first)"`
	} `graphql:"project(fullPath: $fullPath)"`
}

//nolint:govet
type graphqlPageInfo struct {
	HasNextPage graphql.Boolean
	EndCursor   graphql.String
}

// ListDependencies pages through a project's dependency list (the
// `dependencies` output of step 4), using GraphQL cursor pagination.
func (c *Client) ListDependencies(fullPath string) paginate.GraphQLPageFetcher {
	return func(ctx context.Context, first int, after string) ([]model.Resource, model.PageInfo, error) {
		var q dependenciesQuery
		variables := map[string]any{
			"fullPath": graphql.ID(fullPath),
			"first":    graphql.Int(first),
			"after":    cursorOrNull(after),
		}
		if err := c.GraphQL.Query(ctx, &q, variables); err != nil {
			return nil, model.PageInfo{}, err
		}
		records, err := toResources(q.Project.Dependencies.Nodes)
		if err != nil {
			return nil, model.PageInfo{}, err
		}
		return records, model.PageInfo{
			HasNextPage: bool(q.Project.Dependencies.PageInfo.HasNextPage),
			EndCursor:   string(q.Project.Dependencies.PageInfo.EndCursor),
		}, nil
	}
}

//nolint:govet
type vulnerabilityNode struct {
	ID          graphql.String
	Title       graphql.String
	Severity    graphql.String
	State       graphql.String
	DetectedAt  graphql.String `graphql:"detectedAt"`
	Identifiers []struct {
		Name graphql.String
	}
}

//nolint:govet
type vulnerabilitiesQuery struct {
	Project struct {
		Vulnerabilities struct {
			Nodes    []vulnerabilityNode
			PageInfo graphqlPageInfo
		} `graphql:"vulnerabilities(after: $after, first: $first)"`
	} `graphql:"project(fullPath: $fullPath)"`
}

// ListVulnerabilities pages through a project's security findings (the
// `vulnerabilities` output of step 4, written under `security/`).
func (c *Client) ListVulnerabilities(fullPath string) paginate.GraphQLPageFetcher {
	return func(ctx context.Context, first int, after string) ([]model.Resource, model.PageInfo, error) {
		var q vulnerabilitiesQuery
		variables := map[string]any{
			"fullPath": graphql.ID(fullPath),
			"first":    graphql.Int(first),
			"after":    cursorOrNull(after),
		}
		if err := c.GraphQL.Query(ctx, &q, variables); err != nil {
			return nil, model.PageInfo{}, err
		}
		records, err := toResources(q.Project.Vulnerabilities.Nodes)
		if err != nil {
			return nil, model.PageInfo{}, err
		}
		return records, model.PageInfo{
			HasNextPage: bool(q.Project.Vulnerabilities.PageInfo.HasNextPage),
			EndCursor:   string(q.Project.Vulnerabilities.PageInfo.EndCursor),
		}, nil
	}
}

func cursorOrNull(after string) *graphql.String {
	if after == "" {
		return nil
	}
	v := graphql.String(after)
	return &v
}
