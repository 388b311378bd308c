/*-
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package scan

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mfreeman451/detectorradar/pkg/fanout"
	"github.com/mfreeman451/detectorradar/pkg/models"
)

// DefaultDeadline bounds a discovery run when no deadline is given.
const DefaultDeadline = 2 * time.Second

// DiscoverOptions configures a discovery run. When Targets is empty the
// candidate hosts are enumerated from Source.
type DiscoverOptions struct {
	Source         InterfaceSource
	Targets        []models.Target
	Port           int
	Deadline       time.Duration
	Identifier     Identifier
	ProberOptions  []ProberOption
	MaxConcurrency int
	Limiter        *rate.Limiter
}

// DiscoverResults holds the outcomes of a discovery run.
type DiscoverResults = fanout.Results[models.Target, *models.Identity]

func (o *DiscoverOptions) targets() []models.Target {
	if len(o.Targets) > 0 {
		return models.DedupTargets(o.Targets)
	}

	source := o.Source
	if source == nil {
		source = SystemInterfaces{}
	}

	return models.DedupTargets(models.TargetsFromHosts(AddressSpace(source), o.Port))
}

// Discover probes every candidate target concurrently and returns once all
// probes finished or the deadline elapsed.
func Discover(ctx context.Context, opts DiscoverOptions) *DiscoverResults {
	if opts.Port == 0 {
		opts.Port = DefaultHTTPPort
	}

	if opts.Deadline <= 0 {
		opts.Deadline = DefaultDeadline
	}

	if opts.Identifier == nil {
		opts.Identifier = NewHTTPIdentifier("", nil)
	}

	targets := opts.targets()
	prober := NewProber(opts.Identifier, opts.ProberOptions...)

	zap.S().Debugw("starting discovery", "targets", len(targets), "port", opts.Port, "deadline", opts.Deadline)

	start := time.Now()

	results := fanout.Run(ctx, targets, prober.Probe, fanout.Options{
		Deadline:       opts.Deadline,
		MaxConcurrency: opts.MaxConcurrency,
		Limiter:        opts.Limiter,
	}).Wait()

	zap.S().Debugw("discovery finished",
		"found", len(results.Successes()),
		"failed", len(results.Failures()),
		"dropped", results.Dropped(),
		"elapsed", time.Since(start))

	return results
}
