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

// Package detector defines the capability interface every detector family
// implements and the registry the command line is built from.
package detector

//go:generate mockgen -destination=mock_detector.go -package=detector github.com/mfreeman451/detectorradar/pkg/detector Handle

import (
	"context"
	"slices"

	"github.com/mfreeman451/detectorradar/pkg/models"
)

// Info describes a connected detector.
type Info struct {
	Model     string `json:"model"`
	Type      string `json:"type"`
	Serial    string `json:"serial,omitempty"`
	Address   string `json:"address,omitempty"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	PixelType string `json:"pixel_type"`
	Version   string `json:"version,omitempty"`
}

// Capabilities lists what a detector accepts.
type Capabilities struct {
	TriggerModes   []models.TriggerMode  `json:"trigger_modes"`
	SavingFormats  []models.SavingFormat `json:"saving_formats"`
	SavingPolicies []models.SavingPolicy `json:"saving_policies"`
}

func (c Capabilities) SupportsTrigger(m models.TriggerMode) bool {
	return slices.Contains(c.TriggerModes, m)
}

func (c Capabilities) SupportsFormat(f models.SavingFormat) bool {
	return slices.Contains(c.SavingFormats, f)
}

func (c Capabilities) SupportsPolicy(p models.SavingPolicy) bool {
	return slices.Contains(c.SavingPolicies, p)
}

// Handle is an open connection to a detector. Calls are made by a single
// owner and are not required to be safe for concurrent use, except Status.
type Handle interface {
	Info(ctx context.Context) (Info, error)
	Capabilities() Capabilities
	ConfigureAcquisition(ctx context.Context, cfg *models.AcquisitionConfig) error
	ConfigureSaving(ctx context.Context, cfg *models.AcquisitionConfig) error
	ConfigureBuffer(ctx context.Context, cfg *models.AcquisitionConfig) error
	Prepare(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Status(ctx context.Context) (models.StatusSnapshot, error)
	Close() error
}
