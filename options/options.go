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

// Package options implements the crawler's configuration: every
// value is env-parsed via caarlos0/env/v6 first, then a cobra command may
// bind flags over the same fields so a flag explicitly passed on the
// command line wins over its environment default.
package options

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/writer"
	"github.com/pdiegmann/copima-cli-crawler-sub001/log"
)

// GitLabOptions configures the target host and its authentication.
type GitLabOptions struct {
	Host           string        `env:"GITLAB_HOST"`
	AccessToken    string        `env:"GITLAB_ACCESS_TOKEN"`
	RefreshToken   string        `env:"GITLAB_REFRESH_TOKEN"`
	Timeout        time.Duration `env:"GITLAB_TIMEOUT" envDefault:"30s"`
	MaxConcurrency int           `env:"GITLAB_MAX_CONCURRENCY" envDefault:"4"`
	RateLimit      int           `env:"GITLAB_RATE_LIMIT" envDefault:"600"`
}

// OutputOptions configures the hierarchical JSONL writer.
type OutputOptions struct {
	RootDir      string `env:"OUTPUT_ROOT_DIR" envDefault:"./output"`
	Hierarchical bool   `env:"OUTPUT_HIERARCHICAL" envDefault:"true"`
	FileNaming   string `env:"OUTPUT_FILE_NAMING" envDefault:"lowercase"`
	PrettyPrint  bool   `env:"OUTPUT_PRETTY_PRINT"`
}

// DatabaseOptions points at the account store file.
// An empty Path runs with an in-memory account store only.
type DatabaseOptions struct {
	Path string `env:"DATABASE_PATH" envDefault:"./copima.db"`
}

// ProgressOptions configures the progress reporter.
type ProgressOptions struct {
	Enabled  bool          `env:"PROGRESS_ENABLED" envDefault:"true"`
	File     string        `env:"PROGRESS_FILE" envDefault:"./progress.yaml"`
	Interval time.Duration `env:"PROGRESS_INTERVAL" envDefault:"2s"`
	Detailed bool          `env:"PROGRESS_DETAILED"`
}

// ResumeOptions configures the resume store.
type ResumeOptions struct {
	Enabled          bool          `env:"RESUME_ENABLED" envDefault:"true"`
	StateFile        string        `env:"RESUME_STATE_FILE" envDefault:"./resume.yaml"`
	AutoSaveInterval time.Duration `env:"RESUME_AUTO_SAVE_INTERVAL" envDefault:"5s"`
}

// CallbackOptions configures the transform pipeline. Only
// ModulePath is recognized as a configured-but-unresolved option;
// InlineCallback is recorded for the same reason but never evaluated.
type CallbackOptions struct {
	Enabled        bool   `env:"CALLBACKS_ENABLED"`
	ModulePath     string `env:"CALLBACKS_MODULE_PATH"`
	InlineCallback string `env:"CALLBACKS_INLINE_CALLBACK"`
}

// OAuth2Options is the single default provider's refresh configuration.
type OAuth2Options struct {
	ClientID     string `env:"OAUTH2_CLIENT_ID"`
	ClientSecret string `env:"OAUTH2_CLIENT_SECRET"`
	TokenURL     string `env:"OAUTH2_TOKEN_URL"`
}

// Options is the crawler's complete configuration.
type Options struct {
	GitLab    GitLabOptions
	Output    OutputOptions
	Database  DatabaseOptions
	Progress  ProgressOptions
	Resume    ResumeOptions
	Callbacks CallbackOptions
	OAuth2    OAuth2Options

	LogLevel  string   `env:"LOG_LEVEL" envDefault:"info"`
	AccountID string   `env:"ACCOUNT_ID"`
	Steps     []string `env:"STEPS" envSeparator:","`
}

// New parses Options from the environment, applying every envDefault above.
// Parse failures are non-fatal: whatever defaulted, it prints a warning and
// returns the partially-populated Options, deferring to Validate to catch
// anything that matters.
func New() *Options {
	opts := &Options{}
	if err := env.Parse(opts); err != nil {
		fmt.Printf("could not parse env vars, using default options: %v\n", err)
	}
	return opts
}

var (
	errGitLabHostRequired      = fmt.Errorf("gitlab.host must be set")
	errGitLabTimeoutInvalid    = fmt.Errorf("gitlab.timeout must be > 0")
	errGitLabConcurrencyInvalid = fmt.Errorf("gitlab.maxConcurrency must be >= 1")
	errGitLabRateLimitInvalid  = fmt.Errorf("gitlab.rateLimit must be > 0")
	errOutputRootDirRequired   = fmt.Errorf("output.rootDir must be set")
	errOutputFileNamingInvalid = fmt.Errorf("output.fileNaming must be one of lowercase, kebab-case, snake_case")
	errValidate                = fmt.Errorf("some options could not be validated")
)

// Validate validates the crawler's configuration, accumulating every
// violation rather than stopping at the first (CONFIG_INVALID is
// surfaced before any work begins, so the caller should see the whole
// picture at once).
func (o *Options) Validate() error {
	var errs []error

	if strings.TrimSpace(o.GitLab.Host) == "" {
		errs = append(errs, errGitLabHostRequired)
	}
	if o.GitLab.Timeout <= 0 {
		errs = append(errs, errGitLabTimeoutInvalid)
	}
	if o.GitLab.MaxConcurrency < 1 {
		errs = append(errs, errGitLabConcurrencyInvalid)
	}
	if o.GitLab.RateLimit <= 0 {
		errs = append(errs, errGitLabRateLimitInvalid)
	}
	if strings.TrimSpace(o.Output.RootDir) == "" {
		errs = append(errs, errOutputRootDirRequired)
	}
	if !validFileNaming(o.Output.FileNaming) {
		errs = append(errs, errOutputFileNamingInvalid)
	}

	if len(errs) != 0 {
		return fmt.Errorf("%w: %+v", errValidate, errs)
	}
	return nil
}

func validFileNaming(v string) bool {
	switch writer.FileNaming(v) {
	case writer.FileNamingLowercase, writer.FileNamingKebabCase, writer.FileNamingSnakeCase:
		return true
	default:
		return false
	}
}

// DefaultLogLevel exposes the parsed default level as a string for flag
// help text.
var DefaultLogLevel = log.DefaultLevel.String()
