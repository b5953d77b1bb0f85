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

package model

import "time"

// StepState tracks idempotence bookkeeping for a single pipeline step.
//
// ProcessedIDs is serialized as a YAML sequence rather than a set because
// YAML has no native set type; duplicates are deduplicated on load.
type StepState struct {
	ResourceType    string            `yaml:"resourceType"`
	ProcessedIDs    []string          `yaml:"processedIds"`
	LastProcessedID string            `yaml:"lastProcessedId,omitempty"`
	Metadata        map[string]string `yaml:"metadata,omitempty"`

	seen map[string]struct{} `yaml:"-"`
}

// Has reports whether id has already been recorded as processed.
func (s *StepState) Has(id string) bool {
	s.ensureIndex()
	_, ok := s.seen[id]
	return ok
}

// Record appends id to ProcessedIDs if not already present, and updates
// LastProcessedID.
func (s *StepState) Record(id string) {
	s.ensureIndex()
	s.LastProcessedID = id
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.ProcessedIDs = append(s.ProcessedIDs, id)
}

func (s *StepState) ensureIndex() {
	if s.seen != nil {
		return
	}
	s.seen = make(map[string]struct{}, len(s.ProcessedIDs))
	for _, id := range s.ProcessedIDs {
		s.seen[id] = struct{}{}
	}
}

// ResumeState is the durable record of what a crawl session has already
// completed, loaded at startup to make a restarted crawl idempotent.
//
// Invariant: CompletedSteps is append-only within a session; a step present
// in CompletedSteps never also appears in StepStates as in-progress.
type ResumeState struct {
	SessionID       string                `yaml:"sessionId"`
	StartTime       time.Time             `yaml:"startTime"`
	LastUpdateTime  time.Time             `yaml:"lastUpdateTime"`
	CompletedSteps  []string              `yaml:"completedSteps"`
	CurrentStep     string                `yaml:"currentStep,omitempty"`
	StepStates      map[string]*StepState `yaml:"stepStates"`
	GlobalMetadata  map[string]string     `yaml:"globalMetadata,omitempty"`
}

// IsStepComplete reports whether stepID is listed in CompletedSteps.
func (r *ResumeState) IsStepComplete(stepID string) bool {
	for _, s := range r.CompletedSteps {
		if s == stepID {
			return true
		}
	}
	return false
}

// MarkStepComplete appends stepID to CompletedSteps if not already present.
func (r *ResumeState) MarkStepComplete(stepID string) {
	if r.IsStepComplete(stepID) {
		return
	}
	r.CompletedSteps = append(r.CompletedSteps, stepID)
	if r.CurrentStep == stepID {
		r.CurrentStep = ""
	}
}

// StateFor returns (creating if necessary) the StepState for stepID.
func (r *ResumeState) StateFor(stepID, resourceType string) *StepState {
	if r.StepStates == nil {
		r.StepStates = make(map[string]*StepState)
	}
	s, ok := r.StepStates[stepID]
	if !ok {
		s = &StepState{ResourceType: resourceType}
		r.StepStates[stepID] = s
	}
	return s
}

// ResourceCounters tallies one resource type's throughput for the progress report.
type ResourceCounters struct {
	Total     int `yaml:"total"`
	Processed int `yaml:"processed"`
	Filtered  int `yaml:"filtered"`
	Errors    int `yaml:"errors"`
}

// ProgressError is one entry in the bounded 50-entry error ring.
type ProgressError struct {
	Timestamp   time.Time `yaml:"timestamp"`
	Step        string    `yaml:"step"`
	Message     string    `yaml:"message"`
	Recoverable bool      `yaml:"recoverable"`
}

// ProgressReport is the periodically-serialized snapshot of crawl counters.
type ProgressReport struct {
	Metadata    map[string]string            `yaml:"metadata"`
	Stats       map[string]any               `yaml:"stats"`
	Performance map[string]any               `yaml:"performance"`
	Resources   map[string]*ResourceCounters `yaml:"resources"`
	Errors      []ProgressError              `yaml:"errors"`
}
