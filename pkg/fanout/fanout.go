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

// Package fanout runs one task per source concurrently under a shared
// deadline and gathers their outcomes in completion order.
package fanout

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrNoResponse marks a task whose source never answered. Such a task is
// dropped like one abandoned at the deadline.
var ErrNoResponse = errors.New("no response")

// Func is the unit of work run once per source.
type Func[S, V any] func(ctx context.Context, source S) (V, error)

// Outcome is the immutable result of one task, attributed to its source.
type Outcome[S, V any] struct {
	Source  S
	Value   V
	Err     error
	Elapsed time.Duration
}

// OK reports whether the task succeeded.
func (o Outcome[S, V]) OK() bool {
	return o.Err == nil
}

// Options controls pacing and the overall deadline of a batch.
type Options struct {
	// Deadline bounds the batch. Tasks still running when it elapses are
	// abandoned and produce no outcome. Zero means no deadline.
	Deadline time.Duration
	// MaxConcurrency caps the number of tasks in flight. Zero means one
	// goroutine per source with no cap.
	MaxConcurrency int
	// Limiter paces task starts when set.
	Limiter *rate.Limiter
}

// Batch is a running fan-out. C is closed once every task finished or the
// deadline elapsed, whichever comes first.
type Batch[S, V any] struct {
	C         <-chan Outcome[S, V]
	Submitted int

	cancel context.CancelFunc
}

// Cancel abandons the batch. Outcomes already delivered stay readable.
func (b *Batch[S, V]) Cancel() {
	b.cancel()
}

// Run starts one task per source.
func Run[S, V any](ctx context.Context, sources []S, fn Func[S, V], opts Options) *Batch[S, V] {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)

	if opts.Deadline > 0 {
		runCtx, cancel = context.WithTimeout(ctx, opts.Deadline)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}

	// Both channels hold every possible outcome so no task ever blocks.
	completed := make(chan Outcome[S, V], len(sources))
	out := make(chan Outcome[S, V], len(sources))
	allDone := make(chan struct{})

	var sem chan struct{}
	if opts.MaxConcurrency > 0 {
		sem = make(chan struct{}, opts.MaxConcurrency)
	}

	var wg sync.WaitGroup

	for _, src := range sources {
		wg.Add(1)

		go runTask(runCtx, &wg, sem, opts.Limiter, src, fn, completed)
	}

	go func() {
		wg.Wait()
		close(allDone)
	}()

	go forward(runCtx, cancel, completed, allDone, out)

	return &Batch[S, V]{C: out, Submitted: len(sources), cancel: cancel}
}

func runTask[S, V any](
	ctx context.Context,
	wg *sync.WaitGroup,
	sem chan struct{},
	limiter *rate.Limiter,
	src S,
	fn Func[S, V],
	completed chan<- Outcome[S, V]) {
	defer wg.Done()

	if sem != nil {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
		case <-ctx.Done():
			return
		}
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
	}

	start := time.Now()
	v, err := fn(ctx, src)

	// Finished past the deadline or silent: dropped, not failed.
	if ctx.Err() != nil || errors.Is(err, ErrNoResponse) {
		return
	}

	completed <- Outcome[S, V]{Source: src, Value: v, Err: err, Elapsed: time.Since(start)}
}

func forward[S, V any](
	ctx context.Context,
	cancel context.CancelFunc,
	completed <-chan Outcome[S, V],
	allDone <-chan struct{},
	out chan<- Outcome[S, V]) {
	defer close(out)
	defer cancel()

	for {
		select {
		case o := <-completed:
			out <- o
		case <-allDone:
			drain(completed, out)
			return
		case <-ctx.Done():
			drain(completed, out)
			return
		}
	}
}

func drain[S, V any](completed <-chan Outcome[S, V], out chan<- Outcome[S, V]) {
	for {
		select {
		case o := <-completed:
			out <- o
		default:
			return
		}
	}
}
