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

package api

import (
	"time"

	"github.com/mfreeman451/detectorradar/pkg/acquisition"
	"github.com/mfreeman451/detectorradar/pkg/models"
)

// SessionStatus is the body of GET /api/session.
type SessionStatus struct {
	ID       string                      `json:"id"`
	State    models.SessionState         `json:"state"`
	Progress models.Progress             `json:"progress"`
	Status   models.StatusSnapshot       `json:"status"`
	Error    *acquisition.Classification `json:"error,omitempty"`
	Fault    bool                        `json:"fault"`
	Updated  time.Time                   `json:"updated"`
}

// EventType names a stream event.
type EventType string

const (
	EventProgress EventType = "progress"
	EventError    EventType = "error"
	EventFault    EventType = "fault"
)

// Event is one message on /api/session/stream.
type Event struct {
	Type     EventType                   `json:"type"`
	Progress models.Progress             `json:"progress"`
	Error    *acquisition.Classification `json:"error,omitempty"`
	Time     time.Time                   `json:"time"`
}

// SessionView is the read side of an acquisition session.
type SessionView interface {
	ID() string
	State() models.SessionState
	LastStatus() models.StatusSnapshot
}
