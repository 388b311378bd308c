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

package detector

import "errors"

var (
	ErrUnknownDetector = errors.New("unknown detector type")
	ErrNoBinding       = errors.New("no vendor binding available")
	ErrScanUnsupported = errors.New("detector type does not support scanning")
	ErrScanTimeout     = errors.New("scan did not finish in time")
	errDuplicate       = errors.New("detector type already registered")
)
