// Copyright OpenSSF Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package options

import (
	"github.com/spf13/cobra"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/orchestrator"
)

// Command is an interface for handling options for command-line utilities.
type Command interface {
	// AddFlags adds this options' flags to the cobra command.
	AddFlags(cmd *cobra.Command)
}

// AddFlags binds every Options field to a cobra flag, defaulted to whatever
// New already populated from the environment. A flag passed on the command
// line overrides its environment-derived default.
func (o *Options) AddFlags(cmd *cobra.Command) {
	f := cmd.Flags()

	f.StringVar(&o.GitLab.Host, "gitlab-host", o.GitLab.Host, "GitLab base URL (required)")
	f.StringVar(&o.GitLab.AccessToken, "gitlab-access-token", o.GitLab.AccessToken, "GitLab access token")
	f.StringVar(&o.GitLab.RefreshToken, "gitlab-refresh-token", o.GitLab.RefreshToken, "GitLab refresh token")
	f.DurationVar(&o.GitLab.Timeout, "gitlab-timeout", o.GitLab.Timeout, "per-request timeout")
	f.IntVar(&o.GitLab.MaxConcurrency, "gitlab-max-concurrency", o.GitLab.MaxConcurrency, "project-parallel worker count")
	f.IntVar(&o.GitLab.RateLimit, "gitlab-rate-limit", o.GitLab.RateLimit, "requests-per-window ceiling")

	f.StringVar(&o.Output.RootDir, "output-root-dir", o.Output.RootDir, "JSONL output root directory")
	f.BoolVar(&o.Output.Hierarchical, "output-hierarchical", o.Output.Hierarchical, "lay output out per group/project path")
	f.StringVar(&o.Output.FileNaming, "output-file-naming", o.Output.FileNaming, "lowercase|kebab-case|snake_case")
	f.BoolVar(&o.Output.PrettyPrint, "output-pretty-print", o.Output.PrettyPrint, "pretty-print index.json (JSONL stays compact)")

	f.StringVar(&o.Database.Path, "database-path", o.Database.Path, "account store file path ('' for in-memory)")

	f.BoolVar(&o.Progress.Enabled, "progress-enabled", o.Progress.Enabled, "write a progress report")
	f.StringVar(&o.Progress.File, "progress-file", o.Progress.File, "progress report path")
	f.DurationVar(&o.Progress.Interval, "progress-interval", o.Progress.Interval, "progress report flush interval")
	f.BoolVar(&o.Progress.Detailed, "progress-detailed", o.Progress.Detailed, "include per-resource-type detail in the progress report")

	f.BoolVar(&o.Resume.Enabled, "resume-enabled", o.Resume.Enabled, "checkpoint completed steps for resumable runs")
	f.StringVar(&o.Resume.StateFile, "resume-state-file", o.Resume.StateFile, "resume state file path")
	f.DurationVar(&o.Resume.AutoSaveInterval, "resume-auto-save-interval", o.Resume.AutoSaveInterval, "resume state autosave interval")

	f.BoolVar(&o.Callbacks.Enabled, "callbacks-enabled", o.Callbacks.Enabled, "enable the transform pipeline")
	f.StringVar(&o.Callbacks.ModulePath, "callbacks-module-path", o.Callbacks.ModulePath, "dynamic transform module path (recorded, not loaded)")
	f.StringVar(&o.Callbacks.InlineCallback, "callbacks-inline", o.Callbacks.InlineCallback, "inline transform source (recorded, not evaluated)")

	f.StringVar(&o.OAuth2.ClientID, "oauth2-client-id", o.OAuth2.ClientID, "OAuth2 client id for token refresh")
	f.StringVar(&o.OAuth2.ClientSecret, "oauth2-client-secret", o.OAuth2.ClientSecret, "OAuth2 client secret for token refresh")
	f.StringVar(&o.OAuth2.TokenURL, "oauth2-token-url", o.OAuth2.TokenURL, "OAuth2 token endpoint for token refresh")

	f.StringVar(&o.LogLevel, "verbosity", o.LogLevel, "set the log level")
	f.StringVar(&o.AccountID, "account", o.AccountID, "account id hint for resolving stored credentials")
	steps := o.Steps
	if len(steps) == 0 {
		steps = orchestrator.DefaultSteps
	}
	f.StringSliceVar(&o.Steps, "steps", steps, "steps to run, in order")
}
