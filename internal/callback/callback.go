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

// Package callback implements the crawler's transform/filter pipeline (C4).
//
// Go has no runtime "throws": a registered Transform instead returns a Go
// error, and a panicking Transform is recovered at the call site so it
// degrades to the same fail-open behavior a thrown exception would have in
// the source design — captured, logged, original record preserved.
package callback

import (
	"context"
	"fmt"

	"github.com/pdiegmann/copima-cli-crawler-sub001/internal/model"
	"github.com/pdiegmann/copima-cli-crawler-sub001/log"
)

// Filtered is the sentinel a Transform returns to intentionally drop a
// record. It must be preserved bit-exactly and never confused with a
// transform that simply leaves the record unchanged.
var Filtered = &struct{}{}

// Transform mutates or filters one record. Returning (Filtered, nil) drops
// the record. Returning (nil, nil) means "no change" (the original obj is
// kept). A model.Resource or map[string]any result replaces obj; a non-nil
// result of any other type is treated as "no change".
type Transform func(ctx model.CallbackContext, obj model.Resource) (result any, err error)

// Pipeline applies an optional Transform to every record passing through a
// resource-type stream, sequentially and in order.
type Pipeline struct {
	transform  Transform
	logger     *log.Logger
	modulePath string
}

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

// WithTransform registers an in-process Transform function.
func WithTransform(t Transform) Option {
	return func(p *Pipeline) { p.transform = t }
}

// WithModulePath records a configured-but-unresolved dynamic module path.
// This does not load out-of-process modules; if set with no in-process
// Transform registered, the pipeline self-disables and logs an info message,
// exactly like the case where neither is supplied at all.
func WithModulePath(path string) Option {
	return func(p *Pipeline) { p.modulePath = path }
}

// New builds a Pipeline. If no Transform is registered, the pipeline
// self-disables: processObject becomes an identity function and no error is
// raised.
func New(logger *log.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{logger: logger}
	for _, o := range opts {
		o(p)
	}
	if p.transform == nil {
		if p.modulePath != "" {
			logger.Info(fmt.Sprintf("callback module %q configured but dynamic module loading is not supported in-process; disabling callbacks", p.modulePath))
		} else {
			logger.Info("no callback transform configured; callback pipeline disabled")
		}
	}
	return p
}

// Enabled reports whether a transform is registered.
func (p *Pipeline) Enabled() bool {
	return p.transform != nil
}

// ProcessObject applies the transform to a single record. If disabled, obj
// is returned unchanged. If the transform panics or returns an error, the
// error is logged and the original obj is returned (fail-open). The
// boolean return is false only when the record was intentionally filtered
// via Filtered.
func (p *Pipeline) ProcessObject(ctx context.Context, cbCtx model.CallbackContext, obj model.Resource) (out model.Resource, keep bool) {
	if !p.Enabled() {
		return obj, true
	}

	result, err := p.invoke(cbCtx, obj)
	if err != nil {
		p.logger.Error(err, "callback transform failed, preserving original record")
		return obj, true
	}
	if result == Filtered {
		return nil, false
	}
	if result == nil {
		return obj, true
	}
	switch v := result.(type) {
	case model.Resource:
		return v, true
	case map[string]any:
		return model.Resource(v), true
	default:
		// Any other non-nil, non-Resource return is treated as "no change"
		// rather than a type error, matching the source's dynamically-typed
		// "falsy-but-not-false means no change" rule.
		return obj, true
	}
}

// invoke calls the registered transform under a recover() guard so a
// panicking transform fails open instead of crashing the crawl.
func (p *Pipeline) invoke(cbCtx model.CallbackContext, obj model.Resource) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback panicked: %v", r)
		}
	}()
	return p.transform(cbCtx, obj)
}

// ProcessObjects applies ProcessObject to every record in objs, in order,
// omitting filtered records from the result. It returns the surviving
// records and the count filtered out, for logging by the caller.
func (p *Pipeline) ProcessObjects(ctx context.Context, cbCtx model.CallbackContext, objs []model.Resource) (out []model.Resource, filtered int) {
	out = make([]model.Resource, 0, len(objs))
	for _, obj := range objs {
		processed, keep := p.ProcessObject(ctx, cbCtx, obj)
		if !keep {
			filtered++
			continue
		}
		out = append(out, processed)
	}
	return out, filtered
}
