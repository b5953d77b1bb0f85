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
	"testing"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
)

func TestDecodeGroupArea(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		resource model.Resource
		wantOK   bool
		wantID   int
		wantFull string
	}{
		{
			name:     "well-formed group",
			resource: model.Resource{"full_path": "parent/child", "id": float64(42)},
			wantOK:   true,
			wantID:   42,
			wantFull: "parent/child",
		},
		{
			name:     "missing full_path",
			resource: model.Resource{"id": float64(42)},
			wantOK:   false,
		},
		{
			name:     "missing id",
			resource: model.Resource{"full_path": "parent/child"},
			wantOK:   false,
		},
		{
			name:     "id not a number",
			resource: model.Resource{"full_path": "parent/child", "id": "42"},
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			area, id, ok := DecodeGroupArea(tt.resource)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !tt.wantOK {
				return
			}
			if id != tt.wantID {
				t.Errorf("id = %d, want %d", id, tt.wantID)
			}
			if area.FullPath != tt.wantFull {
				t.Errorf("FullPath = %q, want %q", area.FullPath, tt.wantFull)
			}
			if area.Kind != model.AreaKindGroup {
				t.Errorf("Kind = %q, want %q", area.Kind, model.AreaKindGroup)
			}
		})
	}
}

func TestDecodeProjectArea(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		resource model.Resource
		wantOK   bool
		wantFull string
	}{
		{
			name:     "well-formed project",
			resource: model.Resource{"path_with_namespace": "group/project", "id": float64(7)},
			wantOK:   true,
			wantFull: "group/project",
		},
		{
			name:     "missing path_with_namespace",
			resource: model.Resource{"id": float64(7)},
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			area, _, ok := DecodeProjectArea(tt.resource)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !tt.wantOK {
				return
			}
			if area.FullPath != tt.wantFull {
				t.Errorf("FullPath = %q, want %q", area.FullPath, tt.wantFull)
			}
			if area.Kind != model.AreaKindProject {
				t.Errorf("Kind = %q, want %q", area.Kind, model.AreaKindProject)
			}
		})
	}
}
