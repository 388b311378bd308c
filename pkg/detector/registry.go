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

package detector

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mfreeman451/detectorradar/pkg/fanout"
	"github.com/mfreeman451/detectorradar/pkg/models"
	"github.com/mfreeman451/detectorradar/pkg/scan"
)

// scanGrace is added to the scan timeout before giving up on a scanner.
const scanGrace = 100 * time.Millisecond

// BuildFunc opens a handle for the detector at url. An empty url selects
// the family default.
type BuildFunc func(ctx context.Context, url string) (Handle, error)

// ScanFunc discovers detectors of one family on the local network.
type ScanFunc func(ctx context.Context, opts ScanOptions) (*scan.DiscoverResults, error)

// ScanOptions is passed to every ScanFunc. A zero Port selects the
// family default.
type ScanOptions struct {
	Port           int
	Timeout        time.Duration
	MaxConcurrency int
	Limiter        *rate.Limiter
	Source         scan.InterfaceSource
	Targets        []models.Target
}

// Factory describes a detector family.
type Factory struct {
	Description string
	Build       BuildFunc
	Scan        ScanFunc
}

// ScanReport is the result of scanning for one detector family.
type ScanReport struct {
	DetectorType string
	Results      *scan.DiscoverResults
	Err          error
}

// Identities returns the detectors found, nil when the scan failed.
func (r ScanReport) Identities() []*models.Identity {
	if r.Results == nil {
		return nil
	}

	ok := r.Results.Successes()
	out := make([]*models.Identity, 0, len(ok))

	for _, o := range ok {
		out = append(out, o.Value)
	}

	return out
}

// Registry stores detector factories by type name.
type Registry interface {
	Register(name string, factory Factory) error
	Get(name string) (Factory, error)
	Names() []string
	Build(ctx context.Context, name, url string) (Handle, error)
	Scan(ctx context.Context, name string, opts ScanOptions) (*scan.DiscoverResults, error)
	ScanAll(ctx context.Context, opts ScanOptions) []ScanReport
}

// detectorRegistry is a simple in-memory implementation of Registry.
type detectorRegistry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() Registry {
	return &detectorRegistry{
		factories: make(map[string]Factory),
	}
}

func (r *detectorRegistry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("%w: %s", errDuplicate, name)
	}

	r.factories[name] = factory

	return nil
}

func (r *detectorRegistry) Get(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.factories[name]
	if !ok {
		return Factory{}, fmt.Errorf("%w: %s", ErrUnknownDetector, name)
	}

	return f, nil
}

func (r *detectorRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (r *detectorRegistry) Build(ctx context.Context, name, url string) (Handle, error) {
	f, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	return f.Build(ctx, url)
}

func (r *detectorRegistry) Scan(ctx context.Context, name string, opts ScanOptions) (*scan.DiscoverResults, error) {
	f, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	if f.Scan == nil {
		return nil, fmt.Errorf("%w: %s", ErrScanUnsupported, name)
	}

	return f.Scan(ctx, opts)
}

// ScanAll runs every family scanner concurrently. A family that fails or
// does not finish within the timeout is reported with an error; the others
// are unaffected. Reports are sorted by detector type.
func (r *detectorRegistry) ScanAll(ctx context.Context, opts ScanOptions) []ScanReport {
	if opts.Timeout <= 0 {
		opts.Timeout = scan.DefaultDeadline
	}

	names := r.Names()

	results := fanout.Run(ctx, names, func(ctx context.Context, name string) (*scan.DiscoverResults, error) {
		return r.Scan(ctx, name, opts)
	}, fanout.Options{Deadline: opts.Timeout + scanGrace}).Wait()

	byName := make(map[string]ScanReport, len(names))
	for _, o := range results.Outcomes {
		byName[o.Source] = ScanReport{DetectorType: o.Source, Results: o.Value, Err: o.Err}
	}

	reports := make([]ScanReport, 0, len(names))

	for _, name := range names {
		report, ok := byName[name]
		if !ok {
			report = ScanReport{DetectorType: name, Err: fmt.Errorf("%w: %s", ErrScanTimeout, name)}
		}

		reports = append(reports, report)
	}

	return reports
}
