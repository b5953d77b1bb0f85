// Copyright 2020 Security Scorecard Authors
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

package options

import (
	"testing"
	"time"
)

func validOptions() *Options {
	return &Options{
		GitLab: GitLabOptions{
			Host:           "https://gitlab.example.com",
			Timeout:        30 * time.Second,
			MaxConcurrency: 4,
			RateLimit:      600,
		},
		Output: OutputOptions{
			RootDir:    "./output",
			FileNaming: "lowercase",
		},
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr bool
	}{
		{
			name:    "valid options pass",
			mutate:  func(o *Options) {},
			wantErr: false,
		},
		{
			name:    "missing host fails",
			mutate:  func(o *Options) { o.GitLab.Host = "" },
			wantErr: true,
		},
		{
			name:    "zero timeout fails",
			mutate:  func(o *Options) { o.GitLab.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "zero max concurrency fails",
			mutate:  func(o *Options) { o.GitLab.MaxConcurrency = 0 },
			wantErr: true,
		},
		{
			name:    "zero rate limit fails",
			mutate:  func(o *Options) { o.GitLab.RateLimit = 0 },
			wantErr: true,
		},
		{
			name:    "missing root dir fails",
			mutate:  func(o *Options) { o.Output.RootDir = "" },
			wantErr: true,
		},
		{
			name:    "unrecognized file naming fails",
			mutate:  func(o *Options) { o.Output.FileNaming = "camelCase" },
			wantErr: true,
		},
		{
			name:    "kebab-case file naming is valid",
			mutate:  func(o *Options) { o.Output.FileNaming = "kebab-case" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			o := validOptions()
			tt.mutate(o)
			if err := o.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Options.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
