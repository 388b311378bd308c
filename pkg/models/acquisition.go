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

package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrInvalidConfig     = errors.New("invalid acquisition configuration")
	ErrUnknownTrigger    = errors.New("unknown trigger mode")
	ErrUnknownFormat     = errors.New("unknown saving format")
	ErrUnknownPolicy     = errors.New("unknown saving policy")
	ErrUnknownSavingMode = errors.New("unknown saving mode")
)

// SuffixAuto selects the extension of the configured saving format.
const SuffixAuto = "auto"

type TriggerMode string

const (
	TriggerInternal          TriggerMode = "internal"
	TriggerInternalMulti     TriggerMode = "internal-multi"
	TriggerExternalSingle    TriggerMode = "external-single"
	TriggerExternalMulti     TriggerMode = "external-multi"
	TriggerExternalGate      TriggerMode = "external-gate"
	TriggerExternalStartStop TriggerMode = "external-start-stop"
	TriggerExternalReadout   TriggerMode = "external-readout"
)

// triggerAliases maps the short names used on the command line.
var triggerAliases = map[string]TriggerMode{
	"int":            TriggerInternal,
	"int-mult":       TriggerInternalMulti,
	"ext-single":     TriggerExternalSingle,
	"ext-mult":       TriggerExternalMulti,
	"ext-gate":       TriggerExternalGate,
	"ext-start-stop": TriggerExternalStartStop,
	"ext-readout":    TriggerExternalReadout,
}

// TriggerModes lists every known trigger mode.
func TriggerModes() []TriggerMode {
	return []TriggerMode{
		TriggerInternal, TriggerInternalMulti, TriggerExternalSingle, TriggerExternalMulti,
		TriggerExternalGate, TriggerExternalStartStop, TriggerExternalReadout,
	}
}

// ParseTriggerMode accepts canonical names and their short aliases.
func ParseTriggerMode(s string) (TriggerMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	if m, ok := triggerAliases[s]; ok {
		return m, nil
	}

	for _, m := range TriggerModes() {
		if string(m) == s {
			return m, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownTrigger, s)
}

// SavingFormat is the label of a frame file format, e.g. "EDF".
type SavingFormat string

// savingFormats maps every format label to its default file extension.
var savingFormats = map[SavingFormat]string{
	"HARDWARE":      "",
	"RAW":           ".raw",
	"EDF":           ".edf",
	"CBF":           ".cbf",
	"NXS":           ".nxs",
	"FITS":          ".fits",
	"EDFGZ":         ".edfgz",
	"TIFF":          ".tiff",
	"HDF5":          ".h5",
	"EDFConcat":     ".edf",
	"EDFLZ4":        ".edflz4",
	"CBFMiniHeader": ".cbf",
	"HDF5GZ":        ".h5",
	"HDF5BS":        ".h5",
}

// SavingFormats returns every known format label, sorted.
func SavingFormats() []SavingFormat {
	out := make([]SavingFormat, 0, len(savingFormats))
	for f := range savingFormats {
		out = append(out, f)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// ParseSavingFormat matches a label case-insensitively.
func ParseSavingFormat(s string) (SavingFormat, error) {
	for f := range savingFormats {
		if strings.EqualFold(string(f), strings.TrimSpace(s)) {
			return f, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Extension returns the default file extension for the format.
func (f SavingFormat) Extension() string {
	return savingFormats[f]
}

type SavingPolicy string

const (
	PolicyAbort     SavingPolicy = "abort"
	PolicyOverwrite SavingPolicy = "overwrite"
	PolicyAppend    SavingPolicy = "append"
	PolicyMultiSet  SavingPolicy = "multiset"
)

func ParseSavingPolicy(s string) (SavingPolicy, error) {
	switch p := SavingPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyAbort, PolicyOverwrite, PolicyAppend, PolicyMultiSet:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

type SavingMode string

const (
	SavingManual     SavingMode = "manual"
	SavingAutoFrame  SavingMode = "auto-frame"
	SavingAutoHeader SavingMode = "auto-header"
)

func ParseSavingMode(s string) (SavingMode, error) {
	switch m := SavingMode(strings.ToLower(strings.TrimSpace(s))); m {
	case SavingManual, SavingAutoFrame, SavingAutoHeader:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSavingMode, s)
	}
}

// AcquisitionConfig is the configuration snapshot applied to a detector
// before an acquisition. Times are in seconds.
type AcquisitionConfig struct {
	NbFrames          int64        `json:"nb_frames" yaml:"nb_frames" default:"10"`
	ExposureTime      float64      `json:"exposure_time" yaml:"exposure_time" default:"0.1"`
	LatencyTime       float64      `json:"latency_time" yaml:"latency_time"`
	Trigger           TriggerMode  `json:"trigger" yaml:"trigger" default:"internal"`
	SavingDirectory   string       `json:"saving_directory" yaml:"saving_directory"`
	SavingFormat      SavingFormat `json:"saving_format" yaml:"saving_format" default:"EDF"`
	SavingPrefix      string       `json:"saving_prefix" yaml:"saving_prefix" default:"image_"`
	SavingSuffix      string       `json:"saving_suffix" yaml:"saving_suffix" default:"auto"`
	SavingPolicy      SavingPolicy `json:"saving_policy" yaml:"saving_policy" default:"abort"`
	SavingMode        SavingMode   `json:"saving_mode" yaml:"saving_mode" default:"auto-frame"`
	FramesPerFile     int          `json:"frames_per_file" yaml:"frames_per_file" default:"1"`
	MaxBufferSize     float64      `json:"max_buffer_size" yaml:"max_buffer_size" default:"50"`
	NbSavingTasks     int          `json:"nb_saving_tasks" yaml:"nb_saving_tasks" default:"1"`
	NbProcessingTasks int          `json:"nb_processing_tasks" yaml:"nb_processing_tasks" default:"2"`
	Cleanup           bool         `json:"cleanup" yaml:"cleanup"`
}

// DefaultAcquisitionConfig mirrors the command line defaults.
func DefaultAcquisitionConfig() AcquisitionConfig {
	return AcquisitionConfig{
		NbFrames:          10,
		ExposureTime:      0.1,
		Trigger:           TriggerInternal,
		SavingFormat:      "EDF",
		SavingPrefix:      "image_",
		SavingSuffix:      SuffixAuto,
		SavingPolicy:      PolicyAbort,
		SavingMode:        SavingAutoFrame,
		FramesPerFile:     1,
		MaxBufferSize:     50,
		NbSavingTasks:     1,
		NbProcessingTasks: 2,
	}
}

// SavingEnabled reports whether frames are written to disk.
func (c *AcquisitionConfig) SavingEnabled() bool {
	return c.SavingDirectory != ""
}

// ResolvedSuffix returns the file suffix, substituting the format
// extension for SuffixAuto.
func (c *AcquisitionConfig) ResolvedSuffix() string {
	if c.SavingSuffix == "" || c.SavingSuffix == SuffixAuto {
		return c.SavingFormat.Extension()
	}

	return c.SavingSuffix
}

// FrameTime is exposure plus latency.
func (c *AcquisitionConfig) FrameTime() time.Duration {
	return time.Duration((c.ExposureTime + c.LatencyTime) * float64(time.Second))
}

// Validate checks the values that do not depend on detector capabilities.
func (c *AcquisitionConfig) Validate() error {
	if c.NbFrames < 0 {
		return fmt.Errorf("%w: nb-frames must be >= 0, got %d", ErrInvalidConfig, c.NbFrames)
	}

	if c.ExposureTime < 0 {
		return fmt.Errorf("%w: exposure-time must be >= 0, got %g", ErrInvalidConfig, c.ExposureTime)
	}

	if c.LatencyTime < 0 {
		return fmt.Errorf("%w: latency-time must be >= 0, got %g", ErrInvalidConfig, c.LatencyTime)
	}

	if _, err := ParseTriggerMode(string(c.Trigger)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.MaxBufferSize <= 0 || c.MaxBufferSize > 100 {
		return fmt.Errorf("%w: max-buffer-size must be in (0, 100], got %g", ErrInvalidConfig, c.MaxBufferSize)
	}

	if c.NbSavingTasks < 1 || c.NbProcessingTasks < 1 {
		return fmt.Errorf("%w: task counts must be >= 1", ErrInvalidConfig)
	}

	if !c.SavingEnabled() {
		return nil
	}

	if c.FramesPerFile < 1 {
		return fmt.Errorf("%w: frames-per-file must be >= 1, got %d", ErrInvalidConfig, c.FramesPerFile)
	}

	if _, err := ParseSavingFormat(string(c.SavingFormat)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if _, err := ParseSavingPolicy(string(c.SavingPolicy)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if _, err := ParseSavingMode(string(c.SavingMode)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}
