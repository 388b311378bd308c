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

// Package simulator provides an in-process detector whose frame counters
// advance with the clock. It writes placeholder files when saving is
// configured and can be told to fault part way through an acquisition.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mfreeman451/detectorradar/pkg/detector"
	"github.com/mfreeman451/detectorradar/pkg/models"
)

const (
	Name = "simulator"

	// Service is the gRPC health service name simulator agents report.
	Service = "detectorradar.Simulator"

	minFrameTime = time.Microsecond
)

var (
	errClosed        = errors.New("simulator handle is closed")
	errNotConfigured = errors.New("simulator is not configured")
	errNotPrepared   = errors.New("simulator is not prepared")
	errUnsupported   = errors.New("unsupported by simulator")
	errNotADirectory = errors.New("saving directory is not a directory")
)

type state int

const (
	stateIdle state = iota
	stateConfigured
	statePrepared
	stateRunning
	stateDone
)

type fault struct {
	afterFrames int64
	code        models.ErrorCode
}

// Handle is a simulated detector.
type Handle struct {
	mu    sync.Mutex
	now   func() time.Time
	info  detector.Info
	fault *fault

	cfg    models.AcquisitionConfig
	saving bool
	state  state

	startedAt time.Time
	stoppedAt time.Time

	nextFile    int
	savedFrames int64
	fileErr     models.ErrorCode
	closed      bool
}

// Option customizes a Handle.
type Option func(*Handle)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(h *Handle) {
		h.now = now
	}
}

// WithInfo replaces the reported detector info.
func WithInfo(info detector.Info) Option {
	return func(h *Handle) {
		h.info = info
	}
}

// WithFault makes acquisitions stop after the given number of frames with
// code. NoError reports a fault without an error code.
func WithFault(afterFrames int64, code models.ErrorCode) Option {
	return func(h *Handle) {
		h.fault = &fault{afterFrames: afterFrames, code: code}
	}
}

func New(opts ...Option) *Handle {
	h := &Handle{
		now: time.Now,
		info: detector.Info{
			Model:     "Simulator",
			Type:      "Simulator",
			Serial:    "sim-0001",
			Width:     1024,
			Height:    1024,
			PixelType: "Bpp32",
		},
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (*Handle) Capabilities() detector.Capabilities {
	return detector.Capabilities{
		TriggerModes: []models.TriggerMode{models.TriggerInternal, models.TriggerInternalMulti},
		SavingFormats: []models.SavingFormat{
			"RAW", "EDF", "EDFGZ", "EDFConcat", "CBF", "TIFF", "HDF5",
		},
		SavingPolicies: []models.SavingPolicy{
			models.PolicyAbort, models.PolicyOverwrite, models.PolicyAppend, models.PolicyMultiSet,
		},
	}
}

func (h *Handle) Info(context.Context) (detector.Info, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return detector.Info{}, errClosed
	}

	return h.info, nil
}

func (h *Handle) ConfigureAcquisition(_ context.Context, cfg *models.AcquisitionConfig) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return errClosed
	}

	if !h.Capabilities().SupportsTrigger(cfg.Trigger) {
		return fmt.Errorf("%w: trigger mode %s", errUnsupported, cfg.Trigger)
	}

	h.cfg = *cfg
	h.saving = false
	h.state = stateConfigured

	return nil
}

func (h *Handle) ConfigureSaving(_ context.Context, cfg *models.AcquisitionConfig) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return errClosed
	}

	if h.state == stateIdle {
		return errNotConfigured
	}

	caps := h.Capabilities()
	if !caps.SupportsFormat(cfg.SavingFormat) {
		return fmt.Errorf("%w: saving format %s", errUnsupported, cfg.SavingFormat)
	}

	if !caps.SupportsPolicy(cfg.SavingPolicy) {
		return fmt.Errorf("%w: saving policy %s", errUnsupported, cfg.SavingPolicy)
	}

	fi, err := os.Stat(cfg.SavingDirectory)
	if err != nil {
		return err
	}

	if !fi.IsDir() {
		return fmt.Errorf("%w: %s", errNotADirectory, cfg.SavingDirectory)
	}

	h.cfg.SavingDirectory = cfg.SavingDirectory
	h.cfg.SavingFormat = cfg.SavingFormat
	h.cfg.SavingPrefix = cfg.SavingPrefix
	h.cfg.SavingSuffix = cfg.SavingSuffix
	h.cfg.SavingPolicy = cfg.SavingPolicy
	h.cfg.SavingMode = cfg.SavingMode
	h.cfg.FramesPerFile = cfg.FramesPerFile
	h.saving = true

	return nil
}

func (h *Handle) ConfigureBuffer(_ context.Context, cfg *models.AcquisitionConfig) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return errClosed
	}

	h.cfg.MaxBufferSize = cfg.MaxBufferSize
	h.cfg.NbSavingTasks = cfg.NbSavingTasks
	h.cfg.NbProcessingTasks = cfg.NbProcessingTasks

	return nil
}

func (h *Handle) Prepare(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case h.closed:
		return errClosed
	case h.state == stateIdle || h.state == stateRunning:
		return fmt.Errorf("%w: cannot prepare", errNotConfigured)
	}

	h.startedAt = time.Time{}
	h.stoppedAt = time.Time{}
	h.nextFile = 0
	h.savedFrames = 0
	h.fileErr = models.NoError
	h.state = statePrepared

	return nil
}

func (h *Handle) Start(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return errClosed
	}

	if h.state != statePrepared {
		return errNotPrepared
	}

	h.startedAt = h.now()
	h.state = stateRunning

	zap.S().Debugw("simulated acquisition started",
		"nb_frames", h.cfg.NbFrames, "frame_time", h.cfg.FrameTime(), "saving", h.saving)

	return nil
}

// Stop freezes the counters. It is a no-op unless an acquisition runs.
func (h *Handle) Stop(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != stateRunning {
		return nil
	}

	h.freeze(h.now())

	return nil
}

func (h *Handle) Status(context.Context) (models.StatusSnapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return models.StatusSnapshot{}, errClosed
	}

	if h.state != stateRunning && h.state != stateDone {
		return models.IdleSnapshot(), nil
	}

	now := h.now()
	if h.state == stateDone {
		now = h.stoppedAt
	}

	acquired, finished := h.acquired(now)

	faulted := false
	if h.fault != nil && acquired > h.fault.afterFrames {
		acquired = h.fault.afterFrames
		faulted = true
	}

	if h.saving && h.fileErr == models.NoError {
		h.save(acquired, finished || faulted || h.state == stateDone)
	}

	snap := models.StatusSnapshot{
		LastImageAcquired:  acquired - 1,
		LastBaseImageReady: acquired - 1,
		LastImageReady:     acquired - 1,
		LastImageSaved:     -1,
		Acquisition:        models.AcqReady,
	}

	if h.saving {
		snap.LastImageSaved = h.savedFrames - 1
	}

	switch {
	case h.fileErr != models.NoError:
		snap.Acquisition = models.AcqFault
		snap.Error = h.fileErr
	case faulted:
		snap.Acquisition = models.AcqFault
		snap.Error = h.fault.code
	case h.state == stateRunning && !finished:
		snap.Acquisition = models.AcqRunning
	}

	if snap.Acquisition == models.AcqFault && h.state == stateRunning {
		h.freeze(now)
	}

	return snap, nil
}

func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return errClosed
	}

	h.closed = true

	return nil
}

func (h *Handle) freeze(at time.Time) {
	h.stoppedAt = at
	h.state = stateDone
}

// acquired returns the number of frames acquired at t and whether the
// requested count was reached. A zero frame count runs until stopped.
func (h *Handle) acquired(t time.Time) (int64, bool) {
	ft := h.cfg.FrameTime()
	if ft < minFrameTime {
		ft = minFrameTime
	}

	n := int64(t.Sub(h.startedAt) / ft)
	if n < 0 {
		n = 0
	}

	if h.cfg.NbFrames > 0 && n >= h.cfg.NbFrames {
		return h.cfg.NbFrames, true
	}

	return n, false
}
