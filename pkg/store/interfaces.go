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

// Package store persists discovered detectors.
package store

import (
	"context"
	"time"

	"github.com/mfreeman451/detectorradar/pkg/models"
)

// Store records detector identities, keyed by type, address and port.
type Store interface {
	SaveDetector(ctx context.Context, id *models.Identity) error
	ListDetectors(ctx context.Context, filter *models.DetectorFilter) ([]models.Identity, error)
	PruneDetectors(ctx context.Context, age time.Duration) (int64, error)
	Close() error
}

// SaveAll stores every identity, stopping at the first error.
func SaveAll(ctx context.Context, s Store, ids []*models.Identity) error {
	for _, id := range ids {
		if err := s.SaveDetector(ctx, id); err != nil {
			return err
		}
	}

	return nil
}
