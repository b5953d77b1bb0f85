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
	"errors"
	"testing"

	gitlab "gitlab.com/gitlab-org/api/client-go"
)

type fixtureItem struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestToResources(t *testing.T) {
	t.Parallel()

	items := []fixtureItem{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
	records, err := toResources(items)
	if err != nil {
		t.Fatalf("toResources: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0]["name"] != "a" || records[1]["name"] != "b" {
		t.Errorf("records = %+v, want names a, b in order", records)
	}
}

func TestToResourcesEmpty(t *testing.T) {
	t.Parallel()

	records, err := toResources([]fixtureItem{})
	if err != nil {
		t.Fatalf("toResources: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len(records) = %d, want 0", len(records))
	}
}

func TestPageResult(t *testing.T) {
	t.Parallel()

	t.Run("propagates current/total page on success", func(t *testing.T) {
		t.Parallel()

		items := []fixtureItem{{ID: 1}}
		resp := &gitlab.Response{CurrentPage: 2, TotalPages: 5}
		records, current, total, err := pageResult(items, resp, nil)
		if err != nil {
			t.Fatalf("pageResult: %v", err)
		}
		if len(records) != 1 {
			t.Errorf("len(records) = %d, want 1", len(records))
		}
		if current != 2 || total != 5 {
			t.Errorf("current, total = %d, %d, want 2, 5", current, total)
		}
	})

	t.Run("propagates page info and error on failure", func(t *testing.T) {
		t.Parallel()

		resp := &gitlab.Response{CurrentPage: 3, TotalPages: 9}
		wantErr := errors.New("boom")
		records, current, total, err := pageResult[fixtureItem](nil, resp, wantErr)
		if !errors.Is(err, wantErr) {
			t.Fatalf("err = %v, want %v", err, wantErr)
		}
		if records != nil {
			t.Errorf("records = %+v, want nil", records)
		}
		if current != 3 || total != 9 {
			t.Errorf("current, total = %d, %d, want 3, 9", current, total)
		}
	})

	t.Run("tolerates a nil response alongside an error", func(t *testing.T) {
		t.Parallel()

		_, current, total, err := pageResult[fixtureItem](nil, nil, errors.New("network down"))
		if err == nil {
			t.Fatal("expected an error")
		}
		if current != 0 || total != 0 {
			t.Errorf("current, total = %d, %d, want 0, 0", current, total)
		}
	})
}

func TestListOptions(t *testing.T) {
	t.Parallel()

	opt := listOptions(4, 50)
	if opt.Page != 4 || opt.PerPage != 50 {
		t.Errorf("listOptions(4, 50) = %+v, want Page 4, PerPage 50", opt)
	}
}
