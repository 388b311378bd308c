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

import "fmt"

// AcquisitionStatus is the running indicator of a status snapshot.
type AcquisitionStatus int

const (
	AcqReady AcquisitionStatus = iota
	AcqRunning
	AcqFault
)

func (s AcquisitionStatus) String() string {
	switch s {
	case AcqReady:
		return "ready"
	case AcqRunning:
		return "running"
	case AcqFault:
		return "fault"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ErrorCode is the raw error code reported by the control library.
type ErrorCode int

const (
	NoError ErrorCode = iota
	SaveUnknownError
	SaveOpenError
	SaveCloseError
	SaveAccessError
	SaveOverwriteError
	SaveDiskFull
	SaveOverrun
	ProcessingOverrun
	CameraError
)

// StatusSnapshot is an immutable point-in-time read of an acquisition.
// Counters hold the last frame index reached, -1 when none.
type StatusSnapshot struct {
	LastImageAcquired  int64             `json:"last_image_acquired"`
	LastBaseImageReady int64             `json:"last_base_image_ready"`
	LastImageReady     int64             `json:"last_image_ready"`
	LastImageSaved     int64             `json:"last_image_saved"`
	Acquisition        AcquisitionStatus `json:"acquisition"`
	Error              ErrorCode         `json:"error"`
}

// IdleSnapshot is the status of a detector that acquired nothing yet.
func IdleSnapshot() StatusSnapshot {
	return StatusSnapshot{
		LastImageAcquired:  -1,
		LastBaseImageReady: -1,
		LastImageReady:     -1,
		LastImageSaved:     -1,
		Acquisition:        AcqReady,
	}
}

func (s StatusSnapshot) Running() bool {
	return s.Acquisition == AcqRunning
}

// Progress holds per-stage completed frame counts derived from snapshots.
type Progress struct {
	Total         int64 `json:"total"`
	Acquired      int64 `json:"acquired"`
	BaseReady     int64 `json:"base_ready"`
	Ready         int64 `json:"ready"`
	Saved         int64 `json:"saved"`
	SavingEnabled bool  `json:"saving_enabled"`
}

// SessionState is the state of an acquisition session.
type SessionState string

const (
	StateIdle        SessionState = "idle"
	StateConfiguring SessionState = "configuring"
	StatePrepared    SessionState = "prepared"
	StateRunning     SessionState = "running"
	StateStopping    SessionState = "stopping"
	StateCompleted   SessionState = "completed"
	StateFaulted     SessionState = "faulted"
)

// Terminal reports whether the state ends a run.
func (s SessionState) Terminal() bool {
	return s == StateCompleted || s == StateFaulted
}
