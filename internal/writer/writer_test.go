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

package writer

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
)

func TestSanitize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "mygroup", "mygroup"},
		{"spaces and colon", " Sub:Group ", "_sub_group_"},
		{"trailing dot", "My Group.", "my_group"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWriter_PathDeterminism(t *testing.T) {
	t.Parallel()
	w := New(Config{RootDir: "/root", Hierarchical: true})
	area := model.Area{Kind: model.AreaKindGroup, FullPath: "My Group/ Sub:Group "}

	p1 := w.Path(area, "groups")
	p2 := w.Path(area, "groups")
	if p1 != p2 {
		t.Fatalf("Path is not deterministic: %q != %q", p1, p2)
	}
	want := filepath.Join("/root", "my_group", "_sub_group_", "groups.jsonl")
	if p1 != want {
		t.Errorf("got %q, want %q", p1, want)
	}
}

func TestWriter_AppendIsJSONLAndExtendsAcrossCalls(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	w := New(Config{RootDir: dir, Hierarchical: false})
	area := model.Area{Kind: model.AreaKindProject, FullPath: "a/b"}
	path := w.Path(area, "projects")

	if err := w.AppendJSONL(path, []model.Resource{{"id": "1"}}); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := w.AppendJSONL(path, []model.Resource{{"id": "2"}}); err != nil {
		t.Fatalf("second append: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (append, not truncate): %v", len(lines), lines)
	}
}

func TestFileName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		naming FileNaming
		want   string
	}{
		{FileNamingLowercase, "mergerequests.jsonl"},
		{FileNamingKebabCase, "merge-requests.jsonl"},
		{FileNamingSnakeCase, "merge_requests.jsonl"},
	}
	for _, tt := range tests {
		if got := FileName("merge_requests", tt.naming); got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.naming, got, tt.want)
		}
	}
}
