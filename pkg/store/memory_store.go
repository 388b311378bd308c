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

package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/mfreeman451/detectorradar/pkg/models"
)

type memoryRecord struct {
	identity  models.Identity
	firstSeen time.Time
}

// InMemoryStore keeps identities in memory. It backs the API when no
// database is configured.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*memoryRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*memoryRecord)}
}

func memoryKey(id *models.Identity) string {
	return id.DetectorType + "|" + models.Target{Host: id.Address, Port: id.Port}.Key()
}

func (s *InMemoryStore) SaveDetector(_ context.Context, id *models.Identity) error {
	if id == nil || id.DetectorType == "" || id.Address == "" {
		return errInvalidItem
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *id
	cp.Aliases = slices.Clone(id.Aliases)
	cp.Addresses = slices.Clone(id.Addresses)

	if cp.SeenAt.IsZero() {
		cp.SeenAt = time.Now()
	}

	key := memoryKey(id)
	if rec, ok := s.records[key]; ok {
		rec.identity = cp
		return nil
	}

	s.records[key] = &memoryRecord{identity: cp, firstSeen: cp.SeenAt}

	return nil
}

func (s *InMemoryStore) ListDetectors(_ context.Context, filter *models.DetectorFilter) ([]models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if filter == nil {
		filter = &models.DetectorFilter{}
	}

	var out []models.Identity

	for _, rec := range s.records {
		if matchesFilter(&rec.identity, filter) {
			out = append(out, rec.identity)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DetectorType != b.DetectorType {
			return a.DetectorType < b.DetectorType
		}

		if a.Address != b.Address {
			return a.Address < b.Address
		}

		return a.Port < b.Port
	})

	return out, nil
}

func matchesFilter(id *models.Identity, filter *models.DetectorFilter) bool {
	if filter.DetectorType != "" && id.DetectorType != filter.DetectorType {
		return false
	}

	if filter.Host != "" && id.Host != filter.Host && id.Address != filter.Host {
		return false
	}

	if !filter.Since.IsZero() && id.SeenAt.Before(filter.Since) {
		return false
	}

	return true
}

func (s *InMemoryStore) PruneDetectors(_ context.Context, age time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-age)

	var n int64

	for key, rec := range s.records {
		if rec.identity.SeenAt.Before(cutoff) {
			delete(s.records, key)
			n++
		}
	}

	return n, nil
}

func (*InMemoryStore) Close() error {
	return nil
}
