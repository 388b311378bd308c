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

// Package acquisition drives a detector through configure, prepare, start,
// monitor, stop and cleanup.
package acquisition

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mfreeman451/detectorradar/pkg/detector"
	"github.com/mfreeman451/detectorradar/pkg/models"
)

const (
	DefaultStopTimeout = 5 * time.Second

	stopPollInitial = 10 * time.Millisecond
	stopPollMax     = 250 * time.Millisecond
)

// StatusSource supplies status snapshots.
type StatusSource interface {
	Status(ctx context.Context) (models.StatusSnapshot, error)
}

// Session owns a detector handle for a sequence of runs. Lifecycle methods
// are meant for a single owner; State, Status and Config may be called
// from other goroutines.
type Session struct {
	id          string
	handle      detector.Handle
	stopTimeout time.Duration

	mu        sync.Mutex
	state     models.SessionState
	requested *models.AcquisitionConfig
	applied   *models.AcquisitionConfig
	last      models.StatusSnapshot
	cleaned   bool

	closeOnce sync.Once
	closeErr  error
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithStopTimeout bounds how long Stop waits for the detector to go idle.
func WithStopTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		s.stopTimeout = d
	}
}

func NewSession(handle detector.Handle, opts ...SessionOption) *Session {
	s := &Session{
		id:          uuid.NewString(),
		handle:      handle,
		stopTimeout: DefaultStopTimeout,
		state:       models.StateIdle,
		last:        models.IdleSnapshot(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Config returns the configuration applied by the last successful
// Configure.
func (s *Session) Config() (models.AcquisitionConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.applied == nil {
		return models.AcquisitionConfig{}, false
	}

	return *s.applied, true
}

// Info returns the detector description.
func (s *Session) Info(ctx context.Context) (detector.Info, error) {
	return s.handle.Info(ctx)
}

// Configure validates cfg against the detector capabilities and pushes it
// onto the handle. A failure leaves the session faulted.
func (s *Session) Configure(ctx context.Context, cfg models.AcquisitionConfig) error {
	s.mu.Lock()

	switch s.state {
	case models.StateIdle, models.StateCompleted, models.StateFaulted:
	default:
		state := s.state
		s.mu.Unlock()

		return fmt.Errorf("%w: configure from %s", ErrInvalidTransition, state)
	}

	requested := cfg
	if f, err := models.ParseSavingFormat(string(cfg.SavingFormat)); err == nil {
		requested.SavingFormat = f
	}

	s.requested = &requested
	s.applied = nil
	s.cleaned = false
	s.last = models.IdleSnapshot()
	s.state = models.StateConfiguring
	s.mu.Unlock()

	resolved, err := s.resolve(cfg)
	if err == nil {
		err = s.push(ctx, &resolved)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state = models.StateFaulted
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	s.applied = &resolved
	s.state = models.StateIdle

	zap.S().Debugw("session configured", "session", s.id, "nb_frames", resolved.NbFrames,
		"trigger", resolved.Trigger, "saving", resolved.SavingEnabled())

	return nil
}

// resolve validates cfg and returns it with canonical enum values and the
// suffix resolved.
func (s *Session) resolve(cfg models.AcquisitionConfig) (models.AcquisitionConfig, error) {
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	caps := s.handle.Capabilities()

	trigger, err := models.ParseTriggerMode(string(cfg.Trigger))
	if err != nil {
		return cfg, err
	}

	if !caps.SupportsTrigger(trigger) {
		return cfg, fmt.Errorf("%w: trigger mode %s not supported", models.ErrInvalidConfig, trigger)
	}

	cfg.Trigger = trigger

	if !cfg.SavingEnabled() {
		return cfg, nil
	}

	if cfg.SavingFormat, err = models.ParseSavingFormat(string(cfg.SavingFormat)); err != nil {
		return cfg, err
	}

	if !caps.SupportsFormat(cfg.SavingFormat) {
		return cfg, fmt.Errorf("%w: saving format %s not supported", models.ErrInvalidConfig, cfg.SavingFormat)
	}

	if cfg.SavingPolicy, err = models.ParseSavingPolicy(string(cfg.SavingPolicy)); err != nil {
		return cfg, err
	}

	if !caps.SupportsPolicy(cfg.SavingPolicy) {
		return cfg, fmt.Errorf("%w: saving policy %s not supported", models.ErrInvalidConfig, cfg.SavingPolicy)
	}

	if cfg.SavingMode, err = models.ParseSavingMode(string(cfg.SavingMode)); err != nil {
		return cfg, err
	}

	cfg.SavingSuffix = cfg.ResolvedSuffix()

	return cfg, nil
}

func (s *Session) push(ctx context.Context, cfg *models.AcquisitionConfig) error {
	if err := s.handle.ConfigureAcquisition(ctx, cfg); err != nil {
		return err
	}

	if cfg.SavingEnabled() {
		if err := s.handle.ConfigureSaving(ctx, cfg); err != nil {
			return err
		}
	}

	return s.handle.ConfigureBuffer(ctx, cfg)
}

// Prepare readies the configured detector.
func (s *Session) Prepare(ctx context.Context) error {
	s.mu.Lock()
	if s.state != models.StateIdle || s.applied == nil {
		state := s.state
		s.mu.Unlock()

		return fmt.Errorf("%w: prepare from %s", ErrInvalidTransition, state)
	}
	s.mu.Unlock()

	err := s.handle.Prepare(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state = models.StateFaulted
		return fmt.Errorf("%w: %w", ErrPrepare, err)
	}

	s.state = models.StatePrepared

	return nil
}

// Start begins the acquisition.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != models.StatePrepared {
		state := s.state
		s.mu.Unlock()

		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, state)
	}
	s.mu.Unlock()

	err := s.handle.Start(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state = models.StateFaulted
		return fmt.Errorf("%w: %w", ErrStart, err)
	}

	s.state = models.StateRunning

	return nil
}

// Stop ends a prepared or running acquisition and waits for the detector
// to report it is no longer running. It does nothing in any other state.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state != models.StatePrepared && s.state != models.StateRunning {
		s.mu.Unlock()
		return nil
	}

	s.state = models.StateStopping
	s.mu.Unlock()

	err := s.handle.Stop(ctx)
	if err == nil {
		err = s.waitStopped(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state = models.StateFaulted
		return err
	}

	if s.last.Error != models.NoError || s.last.Acquisition == models.AcqFault {
		s.state = models.StateFaulted
	} else {
		s.state = models.StateCompleted
	}

	zap.S().Debugw("session stopped", "session", s.id, "state", s.state)

	return nil
}

func (s *Session) waitStopped(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = stopPollInitial
	b.MaxInterval = stopPollMax
	b.MaxElapsedTime = s.stopTimeout

	operation := func() error {
		snap, err := s.Status(ctx)
		if err != nil {
			return err
		}

		if snap.Running() {
			return errStillRunning
		}

		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("%w: %w", ErrStopTimeout, err)
	}

	return nil
}

// Status reads the detector status and remembers it as the last snapshot.
func (s *Session) Status(ctx context.Context) (models.StatusSnapshot, error) {
	snap, err := s.handle.Status(ctx)
	if err != nil {
		return models.StatusSnapshot{}, fmt.Errorf("%w: %w", ErrStatusUnavailable, err)
	}

	s.mu.Lock()
	s.last = snap
	s.mu.Unlock()

	return snap, nil
}

// LastStatus returns the most recent snapshot without querying the
// detector.
func (s *Session) LastStatus() models.StatusSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.last
}

// Cleanup removes the frame files of the current run when the run asked
// for it. It acts at most once per run; later calls report Skipped.
func (s *Session) Cleanup() CleanupReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cleaned {
		return CleanupReport{Skipped: true}
	}

	s.cleaned = true

	cfg := s.requested
	if s.applied != nil {
		cfg = s.applied
	}

	if cfg == nil || !cfg.Cleanup || !cfg.SavingEnabled() {
		return CleanupReport{Skipped: true}
	}

	// an empty suffix would match every file carrying the prefix
	suffix := cfg.ResolvedSuffix()
	if suffix == "" {
		return CleanupReport{Errors: []error{fmt.Errorf("%w: no file suffix for saving format %q",
			ErrCleanupPattern, cfg.SavingFormat)}}
	}

	return RemoveFrames(cfg.SavingDirectory, cfg.SavingPrefix, suffix)
}

// Close releases the detector handle. Only the first call reaches it.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.handle.Close()
	})

	return s.closeErr
}
