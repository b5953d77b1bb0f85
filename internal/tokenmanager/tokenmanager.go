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

// Package tokenmanager implements the crawler's OAuth2-aware token manager
// (C3): account resolution, access-token retrieval with lazy refresh, and
// refresh-token invalidation, with per-account refresh calls deduplicated
// through golang.org/x/sync/singleflight the way the rest of the example
// pack already uses it for request coalescing.
package tokenmanager

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/accountstore"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
	"github.com/pdiegmann/copima-cli-crawler-sub001/log"

	sce "github.com/pdiegmann/copima-cli-crawler-sub001/errors"
)

// OAuth2Config is the per-provider refresh configuration.
type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// Manager implements C3 against an accountstore.Store.
type Manager struct {
	store   accountstore.Store
	oauth2  OAuth2Config
	logger  *log.Logger
	httpCli *http.Client

	group singleflight.Group
}

// New builds a Manager. httpCli may be nil, in which case http.DefaultClient is used.
func New(store accountstore.Store, oauth2Cfg OAuth2Config, logger *log.Logger, httpCli *http.Client) *Manager {
	if httpCli == nil {
		httpCli = http.DefaultClient
	}
	return &Manager{store: store, oauth2: oauth2Cfg, logger: logger, httpCli: httpCli}
}

// ResolveAccountID implements the account resolution order: explicit hint,
// the literal account "default", a single fully-tokened account, or the
// most-recently-updated account of a single shared user.
func (m *Manager) ResolveAccountID(ctx context.Context, hint string) (string, error) {
	if hint != "" {
		acct, err := m.store.FindAccountByAccountID(ctx, hint)
		if err != nil {
			return "", fmt.Errorf("resolving hinted account: %w", err)
		}
		if acct == nil {
			return "", nil
		}
		return acct.ID, nil
	}

	if acct, err := m.store.FindAccountByAccountID(ctx, "default"); err == nil && acct != nil {
		return acct.ID, nil
	}

	accounts, err := m.store.GetAllAccounts(ctx)
	if err != nil {
		return "", fmt.Errorf("listing accounts: %w", err)
	}

	var tokened []*model.Account
	for _, a := range accounts {
		if a.AccessToken != "" && a.RefreshToken != "" {
			tokened = append(tokened, a)
		}
	}
	if len(tokened) == 1 {
		return tokened[0].ID, nil
	}

	if len(accounts) > 0 {
		userID := accounts[0].UserID
		shared := true
		for _, a := range accounts {
			if a.UserID != userID {
				shared = false
				break
			}
		}
		if shared {
			best := accounts[0]
			for _, a := range accounts[1:] {
				if a.UpdatedAt.After(best.UpdatedAt) {
					best = a
				}
			}
			return best.ID, nil
		}
	}

	return "", nil
}

// GetAccessToken returns a currently-valid access token for accountID,
// refreshing it first if it is missing, has no recorded expiry, or has
// expired.
func (m *Manager) GetAccessToken(ctx context.Context, accountID string) (string, error) {
	acct, err := m.store.FindAccountByAccountID(ctx, accountID)
	if err != nil {
		return "", fmt.Errorf("loading account: %w", err)
	}
	if acct == nil {
		return "", sce.WithMessage(sce.ErrAuthMissing, fmt.Sprintf("no such account %q", accountID))
	}
	if acct.AccessToken != "" && acct.AccessTokenExpiresAt != nil && time.Now().Before(*acct.AccessTokenExpiresAt) {
		return acct.AccessToken, nil
	}
	return m.RefreshAccessToken(ctx, accountID)
}

// refreshResult is the value shared by concurrent singleflight callers.
type refreshResult struct {
	accessToken string
}

// RefreshAccessToken performs the OAuth2 refresh-token flow. At most one
// refresh per account is ever in flight; concurrent callers block on the
// one call and observe its result.
func (m *Manager) RefreshAccessToken(ctx context.Context, accountID string) (string, error) {
	v, err, _ := m.group.Do(accountID, func() (any, error) {
		return m.doRefresh(ctx, accountID)
	})
	if err != nil {
		return "", err
	}
	return v.(refreshResult).accessToken, nil
}

// doRefresh performs the refresh-token wire exchange through
// golang.org/x/oauth2 rather than hand-rolling the form-encoded POST:
// oauth2.Config already implements the RFC 6749 refresh-token grant.
func (m *Manager) doRefresh(ctx context.Context, accountID string) (refreshResult, error) {
	acct, err := m.store.FindAccountByAccountID(ctx, accountID)
	if err != nil {
		return refreshResult{}, fmt.Errorf("loading account: %w", err)
	}
	if acct == nil || acct.RefreshToken == "" {
		return refreshResult{}, sce.WithMessage(sce.ErrAuthMissing, "no refresh token on account")
	}
	if m.oauth2.ClientID == "" || m.oauth2.TokenURL == "" {
		return refreshResult{}, sce.WithMessage(sce.ErrConfigInvalid, "oauth2 provider not configured")
	}

	cfg := &oauth2.Config{
		ClientID:     m.oauth2.ClientID,
		ClientSecret: m.oauth2.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: m.oauth2.TokenURL},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpCli)
	src := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: acct.RefreshToken})

	tok, err := src.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			if invalidErr := m.invalidateRefreshTokenIfReported(ctx, acct, retrieveErr); invalidErr != nil {
				m.logger.Error(invalidErr, "invalidating refresh token")
			}
			return refreshResult{}, sce.MakeHTTPStatusError(retrieveErr.Response.StatusCode, string(retrieveErr.Body))
		}
		return refreshResult{}, sce.WithMessage(sce.ErrNetworkUnreachable, err.Error())
	}

	now := time.Now()
	acct.AccessToken = tok.AccessToken
	if !tok.Expiry.IsZero() {
		acct.AccessTokenExpiresAt = &tok.Expiry
	}
	if tok.RefreshToken != "" && tok.RefreshToken != acct.RefreshToken {
		acct.RefreshToken = tok.RefreshToken
	}
	if raw, ok := tok.Extra("refresh_expires_in").(float64); ok && raw > 0 {
		refreshExpires := now.Add(time.Duration(raw) * time.Second)
		acct.RefreshTokenExpiresAt = &refreshExpires
	}
	if scope, ok := tok.Extra("scope").(string); ok && scope != "" {
		acct.Scope = scope
	}
	acct.UpdatedAt = now

	if err := m.store.UpdateAccount(ctx, acct); err != nil {
		return refreshResult{}, fmt.Errorf("persisting refreshed tokens: %w", err)
	}

	return refreshResult{accessToken: acct.AccessToken}, nil
}

// invalidateRefreshTokenIfReported clears the refresh token when the
// provider's response body explicitly names it invalid (invalid_grant or
// invalid_token), as opposed to a transient failure worth retrying later.
func (m *Manager) invalidateRefreshTokenIfReported(ctx context.Context, acct *model.Account, retrieveErr *oauth2.RetrieveError) error {
	if retrieveErr.ErrorCode != "invalid_grant" && retrieveErr.ErrorCode != "invalid_token" {
		return nil
	}
	return m.InvalidateRefreshToken(ctx, acct.ID)
}

// InvalidateRefreshToken clears the stored refresh token for accountID.
func (m *Manager) InvalidateRefreshToken(ctx context.Context, accountID string) error {
	acct, err := m.store.FindAccountByAccountID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("loading account: %w", err)
	}
	if acct == nil {
		return nil
	}
	acct.RefreshToken = ""
	acct.RefreshTokenExpiresAt = nil
	acct.UpdatedAt = time.Now()
	return m.store.UpdateAccount(ctx, acct)
}

// ValidateRefreshToken reports whether accountID has both a refresh token
// and a parseable, future expiration.
func (m *Manager) ValidateRefreshToken(ctx context.Context, accountID string) (bool, error) {
	acct, err := m.store.FindAccountByAccountID(ctx, accountID)
	if err != nil {
		return false, fmt.Errorf("loading account: %w", err)
	}
	if acct == nil || acct.RefreshToken == "" || acct.RefreshTokenExpiresAt == nil {
		return false, nil
	}
	return time.Now().Before(*acct.RefreshTokenExpiresAt), nil
}
