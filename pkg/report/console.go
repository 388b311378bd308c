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

// Package report renders acquisition steps, progress and discovery tables
// on a terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/mfreeman451/detectorradar/pkg/acquisition"
	"github.com/mfreeman451/detectorradar/pkg/models"
)

const stepWidth = 40

var (
	green   = color.New(color.FgGreen)
	red     = color.New(color.FgRed)
	yellow  = color.New(color.FgYellow)
	magenta = color.New(color.FgMagenta, color.Bold)
	bold    = color.New(color.Bold)
)

// Console writes step lines and progress to a terminal. It implements
// acquisition.Reporter and acquisition.ProgressSink.
type Console struct {
	mu         sync.Mutex
	out        io.Writer
	label      string
	open       bool
	inProgress bool
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// StepStarted prints the dotted step label and leaves the line open.
func (c *Console) StepStarted(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.endProgress()

	c.label = name + " "
	if n := stepWidth - len(c.label); n > 0 {
		c.label += strings.Repeat(".", n)
	}

	fmt.Fprint(c.out, c.label+" ")
	c.open = true
}

func (c *Console) StepFinished(_ string, result acquisition.StepResult, elapsed time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		c.endProgress()
		fmt.Fprint(c.out, c.label+" ")
	}

	c.open = false

	switch result {
	case acquisition.StepDone:
		fmt.Fprintf(c.out, "[%s] (took %s)\n", green.Sprint("DONE"), elapsed.Round(time.Microsecond))
	case acquisition.StepFailed:
		fmt.Fprintf(c.out, "[%s] (%v)\n", red.Sprint("FAIL"), err)
	case acquisition.StepSkipped:
		fmt.Fprintf(c.out, "[%s]\n", yellow.Sprint("SKIP"))
	case acquisition.StepStopped:
		fmt.Fprintf(c.out, "[%s]\n", magenta.Sprint("STOP"))
	}
}

func (c *Console) Title(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeLine()
	fmt.Fprintf(c.out, "%s\n", bold.Sprint(title))
}

// Update rewrites the progress line in place.
func (c *Console) Update(p models.Progress) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeLine()
	fmt.Fprint(c.out, "\r"+ProgressLine(p))
	c.inProgress = true
}

func (c *Console) Error(cl acquisition.Classification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeLine()
	c.endProgress()
	fmt.Fprintf(c.out, "%s %s\n", red.Sprint("Acquisition error:"), bold.Sprint(cl.Label))
}

func (c *Console) Fault() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeLine()
	c.endProgress()
	fmt.Fprintln(c.out, yellow.Sprint("Acquisition fault"))
}

// closeLine ends an open step label so output can follow on new lines.
func (c *Console) closeLine() {
	if c.open {
		fmt.Fprintln(c.out)
		c.open = false
	}
}

func (c *Console) endProgress() {
	if c.inProgress {
		fmt.Fprintln(c.out)
		c.inProgress = false
	}
}

// ProgressLine formats the per-stage counters.
func ProgressLine(p models.Progress) string {
	total := "?"
	if p.Total > 0 {
		total = fmt.Sprint(p.Total)
	}

	parts := []string{
		fmt.Sprintf("Acquired %d/%s", p.Acquired, total),
		fmt.Sprintf("Base Ready %d/%s", p.BaseReady, total),
		fmt.Sprintf("Ready %d/%s", p.Ready, total),
	}

	if p.SavingEnabled {
		parts = append(parts, fmt.Sprintf("Saved %d/%s", p.Saved, total))
	}

	return strings.Join(parts, " | ")
}

// Tee fans progress out to several sinks.
func Tee(sinks ...acquisition.ProgressSink) acquisition.ProgressSink {
	return tee(sinks)
}

type tee []acquisition.ProgressSink

func (t tee) Update(p models.Progress) {
	for _, s := range t {
		s.Update(p)
	}
}

func (t tee) Error(c acquisition.Classification) {
	for _, s := range t {
		s.Error(c)
	}
}

func (t tee) Fault() {
	for _, s := range t {
		s.Fault()
	}
}
