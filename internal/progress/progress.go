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

// Package progress implements the crawler's periodic progress reporter
// (C6): a single YAML file under advisory file lock, written on a ticker
// and flushed on stop, with a bounded ring of the most recent errors.
package progress

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	sce "github.com/pdiegmann/copima-cli-crawler-sub001/errors"
	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
	"github.com/pdiegmann/copima-cli-crawler-sub001/log"
)

const maxErrorRing = 50

// DefaultUpdateInterval is the default periodic write cadence.
const DefaultUpdateInterval = 1 * time.Second

// DefaultLockTimeout bounds advisory-lock acquisition.
const DefaultLockTimeout = 5 * time.Second

// Config controls the reporter's behavior.
type Config struct {
	Enabled        bool
	FilePath       string
	UpdateInterval time.Duration
	LockTimeout    time.Duration
	Detailed       bool
}

// Reporter is C6. All operations are no-ops when Config.Enabled is false,
// including ForceWrite, which must not create the file in that mode.
type Reporter struct {
	cfg    Config
	logger *log.Logger

	mu     sync.Mutex
	report model.ProgressReport

	ticker *time.Ticker
	stopCh chan struct{}
	doneCh chan struct{}
}

// New builds a Reporter. If cfg.UpdateInterval or cfg.LockTimeout are zero
// they default to DefaultUpdateInterval / DefaultLockTimeout.
func New(cfg Config, logger *log.Logger) *Reporter {
	if cfg.UpdateInterval <= 0 {
		cfg.UpdateInterval = DefaultUpdateInterval
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}
	return &Reporter{
		cfg:    cfg,
		logger: logger,
		report: model.ProgressReport{
			Metadata:  map[string]string{},
			Stats:     map[string]any{},
			Performance: map[string]any{},
			Resources: map[string]*model.ResourceCounters{},
		},
	}
}

// Start begins the periodic write ticker. A no-op when disabled.
func (r *Reporter) Start() {
	if !r.cfg.Enabled {
		return
	}
	r.ticker = time.NewTicker(r.cfg.UpdateInterval)
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})

	go func() {
		defer close(r.doneCh)
		for {
			select {
			case <-r.ticker.C:
				if err := r.write(); err != nil {
					r.logger.Error(err, "periodic progress write failed")
				}
			case <-r.stopCh:
				return
			}
		}
	}()
}

// Stop halts the ticker and flushes a final write. A no-op when disabled.
func (r *Reporter) Stop() {
	if !r.cfg.Enabled {
		return
	}
	if r.ticker != nil {
		r.ticker.Stop()
	}
	if r.stopCh != nil {
		close(r.stopCh)
		<-r.doneCh
	}
	if err := r.write(); err != nil {
		r.logger.Error(err, "final progress write failed")
	}
}

// UpdateCurrentStep records the step now executing.
func (r *Reporter) UpdateCurrentStep(step string) {
	if !r.cfg.Enabled {
		return
	}
	r.mu.Lock()
	r.report.Metadata["currentStep"] = step
	r.mu.Unlock()
}

// CompleteStep marks a step as finished in the report's metadata.
func (r *Reporter) CompleteStep(step string) {
	if !r.cfg.Enabled {
		return
	}
	r.mu.Lock()
	r.report.Metadata["lastCompletedStep"] = step
	r.mu.Unlock()
}

// UpdateResourceCount adjusts the counters for resourceType.
func (r *Reporter) UpdateResourceCount(resourceType string, total, processed, filtered, errs int) {
	if !r.cfg.Enabled {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.report.Resources[resourceType]
	if !ok {
		c = &model.ResourceCounters{}
		r.report.Resources[resourceType] = c
	}
	c.Total += total
	c.Processed += processed
	c.Filtered += filtered
	c.Errors += errs
}

// UpdatePerformanceMetrics merges the given key/value pairs into the
// report's performance section.
func (r *Reporter) UpdatePerformanceMetrics(metrics map[string]any) {
	if !r.cfg.Enabled {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range metrics {
		r.report.Performance[k] = v
	}
}

// AddError appends an error to the bounded 50-entry ring.
func (r *Reporter) AddError(step, message string, recoverable bool) {
	if !r.cfg.Enabled {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Errors = append(r.report.Errors, model.ProgressError{
		Timestamp:   time.Now(),
		Step:        step,
		Message:     message,
		Recoverable: recoverable,
	})
	if len(r.report.Errors) > maxErrorRing {
		r.report.Errors = r.report.Errors[len(r.report.Errors)-maxErrorRing:]
	}
}

// SetTotalSteps records the total step count for ETA calculation.
func (r *Reporter) SetTotalSteps(n int) {
	if !r.cfg.Enabled {
		return
	}
	r.mu.Lock()
	r.report.Stats["totalSteps"] = n
	r.mu.Unlock()
}

// UpdateEstimatedTimeRemaining records a caller-computed ETA.
func (r *Reporter) UpdateEstimatedTimeRemaining(d time.Duration) {
	if !r.cfg.Enabled {
		return
	}
	r.mu.Lock()
	r.report.Performance["estimatedTimeRemaining"] = d.String()
	r.mu.Unlock()
}

// GetCurrentReport returns a copy of the in-memory report.
func (r *Reporter) GetCurrentReport() model.ProgressReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report
}

// ForceWrite immediately serializes the report to disk, bypassing the
// ticker. A no-op that does not create the file when disabled.
func (r *Reporter) ForceWrite() error {
	if !r.cfg.Enabled {
		return nil
	}
	return r.write()
}

// write serializes the report under an advisory file lock with
// cfg.LockTimeout, via atomic temp-file rename so a reader never observes a
// partially-written file.
func (r *Reporter) write() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.LockTimeout)
	defer cancel()

	lock := flock.New(r.cfg.FilePath + ".lock")
	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil || !locked {
		return sce.WithMessage(sce.ErrLockTimeout, fmt.Sprintf("acquiring lock for %q", r.cfg.FilePath))
	}
	defer lock.Unlock()

	r.mu.Lock()
	snapshot := r.report
	r.mu.Unlock()

	data, err := yaml.Marshal(sortedReport(snapshot))
	if err != nil {
		return fmt.Errorf("marshaling progress report: %w", err)
	}

	if err := atomic.WriteFile(r.cfg.FilePath, strings.NewReader(string(data))); err != nil {
		return sce.WithMessage(sce.ErrWriteError, fmt.Sprintf("writing %q: %v", r.cfg.FilePath, err))
	}
	return nil
}

// sortedReport is a passthrough hook kept separate from write so the YAML
// key-sort requirement is documented at the call site: gopkg.in/yaml.v3
// already emits map keys in sorted order, so no extra step is required here.
func sortedReport(r model.ProgressReport) model.ProgressReport {
	return r
}
