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

// Package resume implements the crawler's resume store (C7): a YAML
// checkpoint of per-step completion and per-record idempotence, loaded at
// startup so a restarted crawl can skip finished steps and already-seen
// records, coalesced to disk on the same atomic-rename discipline the
// progress reporter uses for the same "always parses" property.
package resume

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
	"github.com/pdiegmann/copima-cli-crawler-sub001/log"
)

// DefaultAutoSaveInterval bounds the lag between in-memory updates and disk.
const DefaultAutoSaveInterval = 5 * time.Second

// Config controls where the resume state is persisted and how often it is
// autosaved.
type Config struct {
	Enabled          bool
	StateFile        string
	AutoSaveInterval time.Duration
}

// Store is C7: it owns the in-memory ResumeState, autosaves it on a ticker,
// and persists it immediately on step completion and at orchestrator exit.
type Store struct {
	cfg    Config
	logger *log.Logger

	mu    sync.Mutex
	state *model.ResumeState
	dirty bool

	ticker *time.Ticker
	stopCh chan struct{}
	doneCh chan struct{}
}

// Open loads the resume state at cfg.StateFile, or creates a fresh session
// if the file is missing or disabled.
func Open(cfg Config, logger *log.Logger) (*Store, error) {
	if cfg.AutoSaveInterval <= 0 {
		cfg.AutoSaveInterval = DefaultAutoSaveInterval
	}

	s := &Store{cfg: cfg, logger: logger}

	var state *model.ResumeState
	if cfg.Enabled {
		loaded, err := load(cfg.StateFile)
		if err != nil {
			return nil, err
		}
		state = loaded
	}
	if state == nil {
		state = freshState()
	}
	dedupProcessedIDs(state)
	s.state = state
	return s, nil
}

func freshState() *model.ResumeState {
	now := time.Now()
	return &model.ResumeState{
		SessionID:      uuid.NewString(),
		StartTime:      now,
		LastUpdateTime: now,
		StepStates:     make(map[string]*model.StepState),
		GlobalMetadata: make(map[string]string),
	}
}

func load(path string) (*model.ResumeState, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading resume state %q: %w", path, err)
	}
	var state model.ResumeState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing resume state %q: %w", path, err)
	}
	return &state, nil
}

// dedupProcessedIDs rebuilds each StepState's membership index after a YAML
// load, since sets have no stable YAML representation and are serialized as
// plain sequences that may carry duplicates across restarts.
func dedupProcessedIDs(state *model.ResumeState) {
	for _, ss := range state.StepStates {
		ids := ss.ProcessedIDs
		ss.ProcessedIDs = nil
		for _, id := range ids {
			ss.Record(id)
		}
		// Record() skips ids already present, so duplicates are dropped;
		// LastProcessedID is set to the final element of the original
		// sequence.
		if len(ids) > 0 {
			ss.LastProcessedID = ids[len(ids)-1]
		}
	}
}

// Start begins the autosave ticker. A no-op when resume is disabled.
func (s *Store) Start() {
	if !s.cfg.Enabled {
		return
	}
	s.ticker = time.NewTicker(s.cfg.AutoSaveInterval)
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go func() {
		defer close(s.doneCh)
		for {
			select {
			case <-s.ticker.C:
				if err := s.saveIfDirty(); err != nil {
					s.logger.Error(err, "autosave of resume state failed")
				}
			case <-s.stopCh:
				return
			}
		}
	}()
}

// Stop halts the autosave ticker and flushes a final save: the state is
// also persisted at orchestrator exit, not just on the autosave interval.
func (s *Store) Stop(ctx context.Context) {
	if !s.cfg.Enabled {
		return
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	if s.stopCh != nil {
		close(s.stopCh)
		<-s.doneCh
	}
	if err := s.Save(ctx); err != nil {
		s.logger.Error(err, "final save of resume state failed")
	}
}

// IsStepComplete reports whether stepID was finished in a prior session.
func (s *Store) IsStepComplete(stepID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsStepComplete(stepID)
}

// MarkStepComplete appends stepID to CompletedSteps and immediately
// persists the state rather than waiting for the next autosave tick.
func (s *Store) MarkStepComplete(ctx context.Context, stepID string) error {
	s.mu.Lock()
	s.state.MarkStepComplete(stepID)
	s.state.LastUpdateTime = time.Now()
	s.mu.Unlock()
	return s.Save(ctx)
}

// SetCurrentStep records the step now executing.
func (s *Store) SetCurrentStep(stepID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CurrentStep = stepID
	s.state.LastUpdateTime = time.Now()
	s.dirty = true
}

// IsProcessed reports whether recordID was already recorded processed for
// stepID, consulted by the orchestrator before delivering a record to the
// writer.
func (s *Store) IsProcessed(stepID, recordID string) bool {
	if recordID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ss, ok := s.state.StepStates[stepID]
	if !ok {
		return false
	}
	return ss.Has(recordID)
}

// RecordProcessed appends recordID to stepStates[stepId].processedIds and
// updates lastProcessedId. A no-op for an empty recordID, since not
// every resource carries an "id" field.
func (s *Store) RecordProcessed(stepID, resourceType, recordID string) {
	if recordID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ss := s.state.StateFor(stepID, resourceType)
	ss.Record(recordID)
	s.state.LastUpdateTime = time.Now()
	s.dirty = true
}

// Save persists the current state to cfg.StateFile via atomic temp-file
// rename, so a concurrent reader never observes a half-written file. A
// no-op when resume is disabled or no state file is configured.
func (s *Store) Save(ctx context.Context) error {
	if !s.cfg.Enabled || s.cfg.StateFile == "" {
		return nil
	}

	s.mu.Lock()
	snapshot := *s.state
	s.dirty = false
	s.mu.Unlock()

	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshaling resume state: %w", err)
	}
	if err := atomic.WriteFile(s.cfg.StateFile, strings.NewReader(string(data))); err != nil {
		return fmt.Errorf("writing resume state %q: %w", s.cfg.StateFile, err)
	}
	return nil
}

func (s *Store) saveIfDirty() error {
	s.mu.Lock()
	dirty := s.dirty
	s.mu.Unlock()
	if !dirty {
		return nil
	}
	return s.Save(context.Background())
}

// SessionID returns the session identifier of the active (or resumed) run.
func (s *Store) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SessionID
}

// State returns a copy of the current in-memory ResumeState, primarily for
// tests and the final result summary.
func (s *Store) State() model.ResumeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.state
}
