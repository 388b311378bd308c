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
	StepConfiguring = "Configuring"
	StepPreparing   = "Preparing"
	StepAcquiring   = "Acquiring"
	StepCleaningUp  = "Cleaning up"
)

// StepResult is how a reported step ended.
type StepResult int

const (
	StepDone StepResult = iota
	StepFailed
	StepSkipped
	StepStopped
)

func (r StepResult) String() string {
	switch r {
	case StepDone:
		return "DONE"
	case StepFailed:
		return "FAIL"
	case StepSkipped:
		return "SKIP"
	case StepStopped:
		return "STOP"
	default:
		return "????"
	}
}

// Reporter is told about each step of a run.
type Reporter interface {
	StepStarted(name string)
	StepFinished(name string, result StepResult, elapsed time.Duration, err error)
	Title(title string)
}

// Summary describes a finished run.
type Summary struct {
	SessionID   string                `json:"session_id"`
	State       models.SessionState   `json:"state"`
	Progress    models.Progress       `json:"progress"`
	Final       models.StatusSnapshot `json:"final"`
	Interrupted bool                  `json:"interrupted"`
	Fault       *Classification       `json:"fault,omitempty"`
	Cleanup     CleanupReport         `json:"cleanup"`
	Elapsed     time.Duration         `json:"elapsed"`
}

// Runner drives one acquisition on a session with step reporting.
type Runner struct {
	session  *Session
	reporter Reporter
	sink     ProgressSink
	interval time.Duration
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithPollInterval sets the monitor polling interval.
func WithPollInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.interval = d
	}
}

func NewRunner(session *Session, reporter Reporter, sink ProgressSink, opts ...RunnerOption) *Runner {
	r := &Runner{
		session:  session,
		reporter: reporter,
		sink:     sink,
		interval: DefaultPollInterval,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run configures, prepares, acquires and stops, then always cleans up.
// Canceling ctx stops the acquisition and yields an interrupted summary
// with a nil error. Runtime faults are reported in Summary.Fault.
func (r *Runner) Run(ctx context.Context, cfg models.AcquisitionConfig) (summary Summary, err error) {
	start := time.Now()
	summary.SessionID = r.session.ID()
	summary.Final = models.IdleSnapshot()

	defer func() {
		summary.Cleanup = r.cleanup()
		summary.State = r.session.State()
		summary.Elapsed = time.Since(start)
	}()

	if err := r.step(ctx, StepConfiguring, func(ctx context.Context) error {
		return r.session.Configure(ctx, cfg)
	}); err != nil {
		return r.abort(ctx, summary, err)
	}

	if err := r.step(ctx, StepPreparing, r.session.Prepare); err != nil {
		return r.abort(ctx, summary, err)
	}

	if ctx.Err() != nil {
		return r.abort(ctx, summary, ctx.Err())
	}

	applied, _ := r.session.Config()
	r.title(ctx, &applied)

	return r.acquire(ctx, &applied, summary)
}

// abort turns err into an interrupted summary when ctx was canceled.
func (r *Runner) abort(ctx context.Context, summary Summary, err error) (Summary, error) {
	if ctx.Err() == nil {
		return summary, err
	}

	if stopErr := r.stop(ctx); stopErr != nil {
		zap.S().Warnw("stop after interrupt failed", "session", r.session.ID(), "error", stopErr)
	}

	summary.Interrupted = true

	return summary, nil
}

func (r *Runner) step(ctx context.Context, name string, fn func(context.Context) error) error {
	r.reporter.StepStarted(name)
	t0 := time.Now()

	err := fn(ctx)

	result := StepDone

	switch {
	case err != nil && ctx.Err() != nil:
		result = StepStopped
	case err != nil:
		result = StepFailed
	}

	r.reporter.StepFinished(name, result, time.Since(t0), err)

	return err
}

func (r *Runner) acquire(ctx context.Context, cfg *models.AcquisitionConfig, summary Summary) (Summary, error) {
	r.reporter.StepStarted(StepAcquiring)
	t0 := time.Now()

	finish := func(result StepResult, err error) {
		r.reporter.StepFinished(StepAcquiring, result, time.Since(t0), err)
	}

	if err := r.session.Start(ctx); err != nil {
		if ctx.Err() != nil {
			finish(StepStopped, nil)
			return r.abort(ctx, summary, err)
		}

		finish(StepFailed, err)

		return summary, err
	}

	monitor := NewMonitor(cfg.NbFrames, r.sink, WithInterval(r.interval), WithSaving(cfg.SavingEnabled()))
	final, monitorErr := monitor.Run(ctx, r.session)
	stopErr := r.stop(ctx)

	summary.Final = final
	summary.Progress = monitor.Progress()

	if ctx.Err() != nil {
		if stopErr != nil {
			zap.S().Warnw("stop after interrupt failed", "session", r.session.ID(), "error", stopErr)
		}

		summary.Interrupted = true
		finish(StepStopped, nil)

		return summary, nil
	}

	var fault *Classification

	switch {
	case final.Error != models.NoError:
		c := Classify(final.Error)
		fault = &c
	case final.Acquisition == models.AcqFault:
		c := FaultWithoutCode()
		fault = &c
	}

	switch {
	case monitorErr != nil:
		finish(StepFailed, monitorErr)
		return summary, monitorErr
	case stopErr != nil:
		finish(StepFailed, stopErr)
		return summary, stopErr
	case fault != nil:
		summary.Fault = fault
		finish(StepFailed, fault.Err())
	default:
		finish(StepDone, nil)
	}

	return summary, nil
}

func (r *Runner) stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.session.stopTimeout+time.Second)
	defer cancel()

	return r.session.Stop(ctx)
}

func (r *Runner) title(ctx context.Context, cfg *models.AcquisitionConfig) {
	info, err := r.session.Info(ctx)
	if err != nil {
		zap.S().Warnw("cannot read detector info", "error", err)
	}

	r.reporter.Title(Title(info, cfg))
}

func (r *Runner) cleanup() CleanupReport {
	r.reporter.StepStarted(StepCleaningUp)
	t0 := time.Now()

	report := r.session.Cleanup()

	result := StepDone

	switch {
	case report.Skipped:
		result = StepSkipped
	case report.Err() != nil:
		result = StepFailed
	}

	r.reporter.StepFinished(StepCleaningUp, result, time.Since(t0), report.Err())

	return report
}
