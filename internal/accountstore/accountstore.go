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

// Package accountstore defines the account credential store interface (C9)
// consumed by the Token Manager and Orchestrator, plus two implementations:
// an in-memory store for tests and database.path-less runs, and a
// go.etcd.io/bbolt-backed store for persistent local use.
package accountstore

import (
	"context"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
)

// AccountWithUser pairs an Account with its owning User, as returned by
// GetAccountsWithUsers.
type AccountWithUser struct {
	Account *model.Account
	User    *model.User
}

// Store is the abstract account credential store the core consumes. The
// core calls a Store from at most one goroutine at a time per account
// identifier, so implementations need not add further locking beyond what
// is required for their own internal consistency.
type Store interface {
	FindAccountByAccountID(ctx context.Context, accountID string) (*model.Account, error)
	FindUserByID(ctx context.Context, userID string) (*model.User, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindAccountsByUserID(ctx context.Context, userID string) ([]*model.Account, error)
	GetAllAccounts(ctx context.Context) ([]*model.Account, error)
	GetAccountsWithUsers(ctx context.Context) ([]AccountWithUser, error)

	InsertUser(ctx context.Context, u *model.User) error
	UpsertUser(ctx context.Context, u *model.User, keyField string) error

	InsertAccount(ctx context.Context, a *model.Account) error
	UpdateAccount(ctx context.Context, a *model.Account) error
	DeleteAccount(ctx context.Context, id string) error

	DeleteUser(ctx context.Context, id string) error

	Flush(ctx context.Context) error
}
