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

package orchestrator_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/accountstore"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/callback"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/orchestrator"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/progress"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/resume"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/writer"
	"github.com/pdiegmann/copima-cli-crawler-sub001/log"
)

func seededFakeGitLab() *fakeGitLab {
	fake := newFakeGitLab()

	fake.topGroups = []model.Resource{{"id": float64(1), "full_path": "acme"}}
	fake.groupProjects[1] = []model.Resource{{"id": float64(10), "path_with_namespace": "acme/widgets"}}
	fake.users = []model.Resource{{"id": float64(5), "username": "alice"}}

	fake.perProject["10"] = map[string][]model.Resource{
		"labels": {{"id": float64(100), "name": "bug"}},
		"issues": {{"id": float64(200), "title": "something broke"}},
	}
	fake.epics["acme"] = []model.Resource{{"id": float64(300), "title": "Q1 roadmap"}}

	fake.branches["10"] = []model.Resource{{"name": "main", "default": true}}
	fake.commits["10"] = map[string][]model.Resource{"main": {{"id": "abc123"}}}
	fake.tree["10"] = map[string][]model.Resource{"main": {{"path": "README.md", "type": "blob"}}}
	fake.files["10"] = map[string]model.Resource{"README.md": {"path": "README.md", "content": "hello"}}

	fake.dependencies["acme/widgets"] = []model.Resource{{"name": "lodash"}}

	fake.jobs["10"] = []model.Resource{{"id": float64(500)}}
	fake.jobArtifacts["10"] = map[int]model.Resource{500: {"jobId": 500, "hasArtifacts": true}}
	fake.jobLogs["10"] = map[int]model.Resource{500: {"jobId": 500, "log": "ok"}}

	return fake
}

func newTestDeps(rootDir string, fake *fakeGitLab) orchestrator.Deps {
	logger := log.NewLogger(log.ErrorLevel)
	w := writer.New(writer.Config{RootDir: rootDir, Hierarchical: true})
	cb := callback.New(logger)
	pr := progress.New(progress.Config{Enabled: true, FilePath: filepath.Join(rootDir, "progress.yaml")}, logger)

	rs, err := resume.Open(resume.Config{Enabled: true, StateFile: filepath.Join(rootDir, "resume.yaml")}, logger)
	Expect(err).NotTo(HaveOccurred())

	return orchestrator.Deps{
		GitLab:       fake,
		Writer:       w,
		Callbacks:    cb,
		Progress:     pr,
		Resume:       rs,
		AccountStore: accountstore.NewMemoryStore(),
		Logger:       logger,
		Host:         "https://gitlab.example.com",
		AccountID:    "acct-1",
	}
}

var _ = Describe("Orchestrator", func() {
	var rootDir string

	BeforeEach(func() {
		var err error
		rootDir, err = os.MkdirTemp("", "orchestrator-test-")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(rootDir)).To(Succeed())
	})

	It("crawls every step and writes the hierarchical output tree", func() {
		fake := seededFakeGitLab()
		deps := newTestDeps(rootDir, fake)
		orch := orchestrator.New(deps, orchestrator.Config{MaxConcurrency: 2})

		result := orch.Run(context.Background())

		Expect(result.Success).To(BeTrue())
		Expect(result.Summary.Errors).To(BeZero())
		Expect(result.Summary.Details).To(HaveKey(orchestrator.StepAreas))
		Expect(result.Summary.Details).To(HaveKey(orchestrator.StepUsers))
		Expect(result.Summary.Details).To(HaveKey(orchestrator.StepResources))
		Expect(result.Summary.Details).To(HaveKey(orchestrator.StepRepository))

		w := deps.Writer
		project := model.Area{Kind: model.AreaKindProject, FullPath: "acme/widgets", ID: "10"}
		root := model.Area{FullPath: ""}

		Expect(w.Path(root, "groups")).To(BeAnExistingFile())
		Expect(w.Path(root, "users")).To(BeAnExistingFile())
		Expect(w.Path(model.Area{Kind: model.AreaKindGroup, FullPath: "acme"}, "projects")).To(BeAnExistingFile())
		Expect(w.Path(project, "labels")).To(BeAnExistingFile())
		Expect(w.Path(project, "issues")).To(BeAnExistingFile())
		Expect(w.SubPath(project, []string{"repository"}, "branches")).To(BeAnExistingFile())
		Expect(w.Path(project, "dependencies")).To(BeAnExistingFile())
		Expect(w.SubPath(project, []string{"repository", "branches", "main"}, "commits")).To(BeAnExistingFile())
		Expect(w.SubPath(project, []string{"repository", "branches", "main"}, "tree")).To(BeAnExistingFile())
		Expect(w.Path(project, "jobs")).To(BeAnExistingFile())
	})

	It("skips steps already completed in a prior session", func() {
		fake := seededFakeGitLab()
		firstDeps := newTestDeps(rootDir, fake)
		firstOrch := orchestrator.New(firstDeps, orchestrator.Config{MaxConcurrency: 2})
		firstResult := firstOrch.Run(context.Background())
		Expect(firstResult.Success).To(BeTrue())

		secondDeps := newTestDeps(rootDir, fake)
		secondOrch := orchestrator.New(secondDeps, orchestrator.Config{MaxConcurrency: 2})
		secondResult := secondOrch.Run(context.Background())

		Expect(secondResult.Success).To(BeTrue())
		for _, stepID := range orchestrator.DefaultSteps {
			Expect(secondResult.Summary.Details[stepID].Skipped).To(BeTrue())
		}
	})

	It("isolates a step failure instead of aborting the whole crawl", func() {
		fake := seededFakeGitLab()
		fake.topGroups = nil // ListTopLevelGroups still succeeds; force a users failure instead
		deps := newTestDeps(rootDir, fake)

		// Replace GitLab with a variant whose ListUsers always errors, to
		// exercise the per-step isolation path without touching the areas step.
		deps.GitLab = erroringUsersClient{fakeGitLab: fake}

		orch := orchestrator.New(deps, orchestrator.Config{MaxConcurrency: 1})
		result := orch.Run(context.Background())

		Expect(result.Summary.Details[orchestrator.StepUsers].Error).NotTo(BeEmpty())
		Expect(result.Summary.Errors).To(BeNumerically(">=", 1))
		// areas, resources, and repository still ran despite the users failure.
		Expect(result.Summary.Details).To(HaveKey(orchestrator.StepResources))
		Expect(result.Summary.Details).To(HaveKey(orchestrator.StepRepository))
	})
})
