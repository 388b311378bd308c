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

// Package detectors wires every built-in detector family into a registry.
package detectors

import (
	"github.com/mfreeman451/detectorradar/pkg/detector"
	"github.com/mfreeman451/detectorradar/pkg/detector/eiger"
	"github.com/mfreeman451/detectorradar/pkg/detector/simulator"
)

// Default returns a registry holding the built-in families. Basler is absent:
// its pylon SDK has no Go binding.
func Default() detector.Registry {
	r := detector.NewRegistry()

	// names are distinct, registration cannot fail
	_ = r.Register(eiger.Name, eiger.NewFactory(nil))
	_ = r.Register(simulator.Name, simulator.NewFactory())

	return r
}
