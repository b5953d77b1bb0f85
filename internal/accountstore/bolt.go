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
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
)

var (
	usersBucket        = []byte("users")
	accountsBucket     = []byte("accounts")
	accountIndexBucket = []byte("accounts_by_account_id")
)

// BoltStore is a Store backed by a go.etcd.io/bbolt database file at
// database.path. Every mutating call is its own bolt.Update
// transaction, so Flush beyond bbolt's own commit-time fsync is a no-op.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (creating if necessary) a bbolt database at path and
// ensures its buckets exist.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bbolt database %q: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{usersBucket, accountsBucket, accountIndexBucket} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("creating bucket %q: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

// Close releases the underlying database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func accountIndexKey(providerID, accountID string) []byte {
	return []byte(providerID + "\x00" + accountID)
}

func (s *BoltStore) FindAccountByAccountID(_ context.Context, accountID string) (*model.Account, error) {
	var found *model.Account
	err := s.db.View(func(tx *bolt.Tx) error {
		ab := tx.Bucket(accountsBucket)
		// Direct id match first (callers sometimes pass the internal Account.ID).
		if raw := ab.Get([]byte(accountID)); raw != nil {
			return json.Unmarshal(raw, &found)
		}
		// Fall back to a scan matching the provider-scoped AccountID field.
		return ab.ForEach(func(_, raw []byte) error {
			var a model.Account
			if err := json.Unmarshal(raw, &a); err != nil {
				return err
			}
			if a.AccountID == accountID {
				found = &a
			}
			return nil
		})
	})
	return found, err
}

func (s *BoltStore) FindUserByID(_ context.Context, userID string) (*model.User, error) {
	var u *model.User
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(usersBucket).Get([]byte(userID))
		if raw == nil {
			return nil
		}
		u = &model.User{}
		return json.Unmarshal(raw, u)
	})
	return u, err
}

func (s *BoltStore) FindUserByEmail(_ context.Context, email string) (*model.User, error) {
	var u *model.User
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(usersBucket).ForEach(func(_, raw []byte) error {
			var candidate model.User
			if err := json.Unmarshal(raw, &candidate); err != nil {
				return err
			}
			if candidate.Email == email {
				u = &candidate
			}
			return nil
		})
	})
	return u, err
}

func (s *BoltStore) FindAccountsByUserID(_ context.Context, userID string) ([]*model.Account, error) {
	var out []*model.Account
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(accountsBucket).ForEach(func(_, raw []byte) error {
			var a model.Account
			if err := json.Unmarshal(raw, &a); err != nil {
				return err
			}
			if a.UserID == userID {
				out = append(out, &a)
			}
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) GetAllAccounts(_ context.Context) ([]*model.Account, error) {
	var out []*model.Account
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(accountsBucket).ForEach(func(_, raw []byte) error {
			var a model.Account
			if err := json.Unmarshal(raw, &a); err != nil {
				return err
			}
			out = append(out, &a)
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) GetAccountsWithUsers(ctx context.Context) ([]AccountWithUser, error) {
	accounts, err := s.GetAllAccounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]AccountWithUser, 0, len(accounts))
	for _, a := range accounts {
		u, err := s.FindUserByID(ctx, a.UserID)
		if err != nil {
			return nil, err
		}
		out = append(out, AccountWithUser{Account: a, User: u})
	}
	return out, nil
}

func (s *BoltStore) InsertUser(_ context.Context, u *model.User) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(usersBucket)
		if b.Get([]byte(u.ID)) != nil {
			return fmt.Errorf("user %q already exists", u.ID)
		}
		raw, err := json.Marshal(u)
		if err != nil {
			return err
		}
		return b.Put([]byte(u.ID), raw)
	})
}

func (s *BoltStore) UpsertUser(_ context.Context, u *model.User, keyField string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(usersBucket)
		id := u.ID
		if keyField == "email" {
			err := b.ForEach(func(k, raw []byte) error {
				var existing model.User
				if err := json.Unmarshal(raw, &existing); err != nil {
					return err
				}
				if existing.Email == u.Email {
					id = string(k)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		cp := *u
		cp.ID = id
		raw, err := json.Marshal(&cp)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), raw)
	})
}

func (s *BoltStore) InsertAccount(_ context.Context, a *model.Account) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		ab := tx.Bucket(accountsBucket)
		if ab.Get([]byte(a.ID)) != nil {
			return fmt.Errorf("account %q already exists", a.ID)
		}
		raw, err := json.Marshal(a)
		if err != nil {
			return err
		}
		if err := ab.Put([]byte(a.ID), raw); err != nil {
			return err
		}
		ib := tx.Bucket(accountIndexBucket)
		return ib.Put(accountIndexKey(a.ProviderID, a.AccountID), []byte(a.ID))
	})
}

func (s *BoltStore) UpdateAccount(_ context.Context, a *model.Account) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		raw, err := json.Marshal(a)
		if err != nil {
			return err
		}
		ab := tx.Bucket(accountsBucket)
		if err := ab.Put([]byte(a.ID), raw); err != nil {
			return err
		}
		ib := tx.Bucket(accountIndexBucket)
		return ib.Put(accountIndexKey(a.ProviderID, a.AccountID), []byte(a.ID))
	})
}

func (s *BoltStore) DeleteAccount(_ context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		ab := tx.Bucket(accountsBucket)
		raw := ab.Get([]byte(id))
		if raw == nil {
			return nil
		}
		var a model.Account
		if err := json.Unmarshal(raw, &a); err != nil {
			return err
		}
		if err := ab.Delete([]byte(id)); err != nil {
			return err
		}
		return tx.Bucket(accountIndexBucket).Delete(accountIndexKey(a.ProviderID, a.AccountID))
	})
}

func (s *BoltStore) DeleteUser(_ context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(usersBucket).Delete([]byte(id)); err != nil {
			return err
		}
		ab := tx.Bucket(accountsBucket)
		ib := tx.Bucket(accountIndexBucket)
		var toDelete [][]byte
		err := ab.ForEach(func(k, raw []byte) error {
			var a model.Account
			if err := json.Unmarshal(raw, &a); err != nil {
				return err
			}
			if a.UserID == id {
				toDelete = append(toDelete, append([]byte(nil), k...))
				if delErr := ib.Delete(accountIndexKey(a.ProviderID, a.AccountID)); delErr != nil {
					return delErr
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range toDelete {
			if err := ab.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Flush is a no-op: every mutating call above is already its own committed
// bolt.Update transaction, durable as soon as it returns.
func (s *BoltStore) Flush(_ context.Context) error {
	return nil
}

var _ Store = (*BoltStore)(nil)
