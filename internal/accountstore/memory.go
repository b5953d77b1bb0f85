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

package accountstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
)

// MemoryStore is a process-local Store backed by plain maps, used in tests
// and whenever database.path is left unset.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]*model.User
	accounts map[string]*model.Account
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*model.User),
		accounts: make(map[string]*model.Account),
	}
}

func (s *MemoryStore) FindAccountByAccountID(_ context.Context, accountID string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.AccountID == accountID || a.ID == accountID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) FindUserByID(_ context.Context, userID string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) FindUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) FindAccountsByUserID(_ context.Context, userID string) ([]*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetAllAccounts(_ context.Context) ([]*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) GetAccountsWithUsers(_ context.Context) ([]AccountWithUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AccountWithUser, 0, len(s.accounts))
	for _, a := range s.accounts {
		acp := *a
		var ucp *model.User
		if u, ok := s.users[a.UserID]; ok {
			c := *u
			ucp = &c
		}
		out = append(out, AccountWithUser{Account: &acp, User: ucp})
	}
	return out, nil
}

func (s *MemoryStore) InsertUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.ID]; exists {
		return fmt.Errorf("user %q already exists", u.ID)
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *MemoryStore) UpsertUser(_ context.Context, u *model.User, keyField string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	switch keyField {
	case "email":
		for id, existing := range s.users {
			if existing.Email == u.Email {
				cp.ID = id
				s.users[id] = &cp
				return nil
			}
		}
	}
	s.users[u.ID] = &cp
	return nil
}

func (s *MemoryStore) InsertAccount(_ context.Context, a *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[a.ID]; exists {
		return fmt.Errorf("account %q already exists", a.ID)
	}
	cp := *a
	s.accounts[a.ID] = &cp
	return nil
}

func (s *MemoryStore) UpdateAccount(_ context.Context, a *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.accounts[a.ID] = &cp
	return nil
}

func (s *MemoryStore) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, id)
	return nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	for acctID, a := range s.accounts {
		if a.UserID == id {
			delete(s.accounts, acctID)
		}
	}
	return nil
}

func (s *MemoryStore) Flush(_ context.Context) error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
