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

package acquisition

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mfreeman451/detectorradar/pkg/models"
)

const (
	DefaultPollInterval = 50 * time.Millisecond

	finalPollTimeout = time.Second
)

// ProgressSink receives monitor updates.
type ProgressSink interface {
	Update(p models.Progress)
	Error(c Classification)
	Fault()
}

// MonitorOption customizes a Monitor.
type MonitorOption func(*Monitor)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		m.interval = d
	}
}

// WithSaving makes the monitor report the saved counter.
func WithSaving(enabled bool) MonitorOption {
	return func(m *Monitor) {
		m.progress.SavingEnabled = enabled
	}
}

// Monitor polls a status source until the acquisition stops running or
// reports an error. It only observes; it never stops the acquisition.
type Monitor struct {
	sink     ProgressSink
	interval time.Duration

	progress      models.Progress
	last          models.StatusSnapshot
	lastError     models.ErrorCode
	faultReported bool
}

// NewMonitor creates a monitor for an acquisition of total frames. A zero
// total leaves the counters unbounded.
func NewMonitor(total int64, sink ProgressSink, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		sink:     sink,
		interval: DefaultPollInterval,
		last:     models.IdleSnapshot(),
		progress: models.Progress{Total: total},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Progress returns the latest counters.
func (m *Monitor) Progress() models.Progress {
	return m.progress
}

// Run polls src until the acquisition is over and returns the last
// snapshot. When ctx is canceled it makes a last best-effort update and
// returns ctx.Err().
func (m *Monitor) Run(ctx context.Context, src StatusSource) (models.StatusSnapshot, error) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		snap, err := src.Status(ctx)
		if err != nil {
			if ctx.Err() != nil {
				m.finalPoll(ctx, src)
				return m.last, ctx.Err()
			}

			return m.last, err
		}

		if !m.update(snap) {
			break
		}

		select {
		case <-ctx.Done():
			m.finalPoll(ctx, src)
			return m.last, ctx.Err()
		case <-ticker.C:
		}
	}

	m.finalPoll(ctx, src)

	return m.last, nil
}

func (m *Monitor) finalPoll(ctx context.Context, src StatusSource) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalPollTimeout)
	defer cancel()

	snap, err := src.Status(ctx)
	if err != nil {
		zap.S().Debugw("final status poll failed", "error", err)
		return
	}

	m.update(snap)
}

// update records snap and reports whether polling should go on.
func (m *Monitor) update(snap models.StatusSnapshot) bool {
	m.last = snap

	p := &m.progress
	p.Acquired = m.advance("acquired", p.Acquired, snap.LastImageAcquired)
	p.BaseReady = m.advance("base_ready", p.BaseReady, snap.LastBaseImageReady)
	p.Ready = m.advance("ready", p.Ready, snap.LastImageReady)

	if p.SavingEnabled {
		p.Saved = m.advance("saved", p.Saved, snap.LastImageSaved)
	}

	m.sink.Update(*p)

	switch {
	case snap.Error != models.NoError:
		if m.lastError == models.NoError {
			m.sink.Error(Classify(snap.Error))
		}
	case snap.Acquisition == models.AcqFault:
		if !m.faultReported {
			m.faultReported = true
			m.sink.Fault()
		}
	}

	m.lastError = snap.Error

	return snap.Running() && snap.Error == models.NoError
}

// advance turns a last-index counter into a completed count, clamped to
// the total and never going backwards.
func (m *Monitor) advance(name string, prev, lastIndex int64) int64 {
	n := lastIndex + 1
	if n < 0 {
		n = 0
	}

	if m.progress.Total > 0 && n > m.progress.Total {
		n = m.progress.Total
	}

	if n < prev {
		zap.S().Warnw("frame counter went backwards", "counter", name, "previous", prev, "read", n)
		return prev
	}

	return n
}
