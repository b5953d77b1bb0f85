// Copyright 2020 OpenSSF Scorecard Authors
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

// Package cmd wires the crawler's dependency graph (transport, token
// manager, GitLab client, writer, callbacks, progress, resume,
// orchestrator) behind a single cobra command.
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/accountstore"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/callback"
	sce "github.com/pdiegmann/copima-cli-crawler-sub001/errors"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/gitlabapi"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/orchestrator"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/progress"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/resume"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/tokenmanager"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/transport"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/writer"
	sclog "github.com/pdiegmann/copima-cli-crawler-sub001/log"
	"github.com/pdiegmann/copima-cli-crawler-sub001/options"
)

const (
	crawlerLong  = "Crawls a GitLab host into a hierarchical JSONL archive."
	crawlerUse   = "copima-cli-crawler"
	crawlerShort = "GitLab source-forge crawler"
)

// New creates the crawler's root cobra command.
func New(o *options.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   crawlerUse,
		Short: crawlerShort,
		Long:  crawlerLong,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(); err != nil {
				return fmt.Errorf("%w: %v", sce.ErrConfigInvalid, err)
			}
			// options are good at this point. silence usage so it doesn't print for runtime errors
			cmd.SilenceUsage = true
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(cmd.Context(), o)
		},
	}

	o.AddFlags(cmd)
	cmd.AddCommand(versionCmd())
	return cmd
}

// runCrawl builds the dependency graph and runs the orchestrator to
// completion. It returns a non-nil error only for the fatal conditions of
// (config invalid, unresolvable auth, unexpected exception); per-step
// failures are recorded in the printed summary but do not fail the command.
func runCrawl(ctx context.Context, o *options.Options) error {
	logger := sclog.NewLogger(sclog.ParseLevel(o.LogLevel))

	store, err := openAccountStore(o.Database.Path)
	if err != nil {
		return fmt.Errorf("opening account store: %w", err)
	}

	accountID, err := ensureAccount(ctx, store, o)
	if err != nil {
		return fmt.Errorf("%w: %v", sce.ErrAuthMissing, err)
	}

	tm := tokenmanager.New(store, tokenmanager.OAuth2Config{
		ClientID:     o.OAuth2.ClientID,
		ClientSecret: o.OAuth2.ClientSecret,
		TokenURL:     o.OAuth2.TokenURL,
	}, logger, nil)

	if _, err := tm.GetAccessToken(ctx, accountID); err != nil {
		return fmt.Errorf("%w: %v", sce.ErrAuthMissing, err)
	}

	rt := transport.New(transport.Config{
		Timeout:   o.GitLab.Timeout,
		AccountID: accountID,
	}, tm, tm, logger, transport.NewRateLimited(http.DefaultTransport, logger))
	httpCli := &http.Client{Transport: rt}

	gl, err := gitlabapi.New(gitlabapi.Config{Host: o.GitLab.Host, HTTPClient: httpCli})
	if err != nil {
		return fmt.Errorf("constructing gitlab client: %w", err)
	}

	w := writer.New(writer.Config{
		RootDir:      o.Output.RootDir,
		Hierarchical: o.Output.Hierarchical,
		FileNaming:   writer.FileNaming(o.Output.FileNaming),
		PrettyPrint:  o.Output.PrettyPrint,
	})

	var cbOpts []callback.Option
	if o.Callbacks.Enabled && o.Callbacks.ModulePath != "" {
		cbOpts = append(cbOpts, callback.WithModulePath(o.Callbacks.ModulePath))
	}
	cb := callback.New(logger, cbOpts...)

	pr := progress.New(progress.Config{
		Enabled:        o.Progress.Enabled,
		FilePath:       o.Progress.File,
		UpdateInterval: o.Progress.Interval,
		Detailed:       o.Progress.Detailed,
	}, logger)

	rs, err := resume.Open(resume.Config{
		Enabled:          o.Resume.Enabled,
		StateFile:        o.Resume.StateFile,
		AutoSaveInterval: o.Resume.AutoSaveInterval,
	}, logger)
	if err != nil {
		return fmt.Errorf("opening resume store: %w", err)
	}

	deps := orchestrator.Deps{
		GitLab:       gl,
		Writer:       w,
		Callbacks:    cb,
		Progress:     pr,
		Resume:       rs,
		AccountStore: store,
		Logger:       logger,
		Host:         o.GitLab.Host,
		AccountID:    accountID,
	}
	steps := o.Steps
	if len(steps) == 0 {
		steps = orchestrator.DefaultSteps
	}
	orch := orchestrator.New(deps, orchestrator.Config{
		Steps:          steps,
		MaxConcurrency: o.GitLab.MaxConcurrency,
	})

	result := orch.Run(ctx)
	printSummary(result)
	return nil
}

// openAccountStore opens a BoltStore at path, or falls back to an in-memory
// store when path is empty.
func openAccountStore(path string) (accountstore.Store, error) {
	if path == "" {
		return accountstore.NewMemoryStore(), nil
	}
	return accountstore.OpenBoltStore(path)
}

// ensureAccount resolves the account the crawl authenticates as, seeding a
// "default" account from the CLI's --gitlab-access-token/--gitlab-refresh-token
// flags when the store doesn't already have one. This keeps a single CLI
// invocation self-sufficient without requiring the full OAuth2 login flow.
func ensureAccount(ctx context.Context, store accountstore.Store, o *options.Options) (string, error) {
	tm := tokenmanager.New(store, tokenmanager.OAuth2Config{}, sclog.NewLogger(sclog.ErrorLevel), nil)
	accountID, err := tm.ResolveAccountID(ctx, o.AccountID)
	if err != nil {
		return "", err
	}
	if accountID != "" {
		return accountID, nil
	}
	if o.GitLab.AccessToken == "" && o.GitLab.RefreshToken == "" {
		return "", fmt.Errorf("no stored account and no --gitlab-access-token/--gitlab-refresh-token given")
	}

	now := time.Now()
	acct := &model.Account{
		ID:           "default",
		AccountID:    "default",
		ProviderID:   "gitlab",
		UserID:       uuid.NewString(),
		AccessToken:  o.GitLab.AccessToken,
		RefreshToken: o.GitLab.RefreshToken,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.InsertAccount(ctx, acct); err != nil {
		return "", fmt.Errorf("seeding default account: %w", err)
	}
	return acct.ID, nil
}

// printSummary reports the crawl's outcome the way the teacher's processRepo
// reports per-check results: one line per step, to stderr, leaving stdout
// free for any future machine-readable output mode.
func printSummary(result orchestrator.Result) {
	fmt.Fprintf(os.Stderr, "\nCRAWL SUMMARY\n-------------\n")
	fmt.Fprintf(os.Stderr, "resources crawled: %d\n", result.Summary.ResourcesCrawled)
	fmt.Fprintf(os.Stderr, "errors: %d, warnings: %d\n", result.Summary.Errors, result.Summary.Warnings)
	fmt.Fprintf(os.Stderr, "duration: %s\n", result.TotalProcessingTime)
	for _, step := range orchestrator.DefaultSteps {
		detail, ok := result.Summary.Details[step]
		if !ok {
			continue
		}
		switch {
		case detail.Skipped:
			fmt.Fprintf(os.Stderr, "  %s: skipped (resumed)\n", step)
		case detail.Error != "":
			fmt.Fprintf(os.Stderr, "  %s: error: %s\n", step, detail.Error)
		default:
			fmt.Fprintf(os.Stderr, "  %s: %v\n", step, detail.ResourceCounts)
		}
	}
}
