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

// Package model defines the data shapes shared across the crawl pipeline:
// the identity/credential records consumed by the account store, the
// forge's area/resource shapes, and the pagination cursor used by C2.
package model

import (
	"strconv"
	"time"
)

// User is the identity the crawler authenticates as.
type User struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	EmailVerified bool       `json:"emailVerified"`
	Image         string     `json:"image,omitempty"`
	Role          string     `json:"role,omitempty"`
	Banned        bool       `json:"banned,omitempty"`
	BanReason     string     `json:"banReason,omitempty"`
	BanExpires    *time.Time `json:"banExpires,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Account is a credential binding of a User to a remote host.
//
// (providerId, accountId) is unique; UserID must reference an existing User.
// Only the Token Manager mutates the token fields; an admin command may
// remove the record entirely.
type Account struct {
	ID                    string     `json:"id"`
	AccountID             string     `json:"accountId"`
	ProviderID            string     `json:"providerId"`
	UserID                string     `json:"userId"`
	AccessToken           string     `json:"accessToken,omitempty"`
	RefreshToken          string     `json:"refreshToken,omitempty"`
	AccessTokenExpiresAt  *time.Time `json:"accessTokenExpiresAt,omitempty"`
	RefreshTokenExpiresAt *time.Time `json:"refreshTokenExpiresAt,omitempty"`
	IDToken               string     `json:"idToken,omitempty"`
	Scope                 string     `json:"scope,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// AreaKind distinguishes the two shapes an Area can take.
type AreaKind string

const (
	// AreaKindGroup is a GitLab group or subgroup.
	AreaKindGroup AreaKind = "group"
	// AreaKindProject is a GitLab project.
	AreaKindProject AreaKind = "project"
)

// Area is a logical container in the remote forge: a group or a project.
// FullPath is a '/'-joined identifier unique within a host and is the sole
// basis of the on-disk directory hierarchy.
type Area struct {
	Kind     AreaKind `json:"kind"`
	FullPath string   `json:"fullPath"`
	ID       string   `json:"id"`
}

// Resource is any JSON-shaped record fetched for an Area. The core is blind
// to its contents except for an optional ID used by the Resume Store.
type Resource map[string]any

// ID extracts the resource's "id" field for idempotence tracking, if present.
func (r Resource) ID() (string, bool) {
	switch v := r["id"].(type) {
	case string:
		return v, v != ""
	case float64:
		return formatFloatID(v), true
	default:
		return "", false
	}
}

func formatFloatID(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CallbackContext accompanies every record handed to the user transform.
type CallbackContext struct {
	Host         string `json:"host"`
	AccountID    string `json:"accountId"`
	ResourceType string `json:"resourceType"`
}

// PageInfo describes either a cursor page (GraphQL) or a numbered page (REST).
// Exactly one pairing of fields is populated depending on the pagination kind
// in use for a given endpoint.
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor,omitempty"`
	Page        int    `json:"page,omitempty"`
	PerPage     int    `json:"perPage,omitempty"`
}
