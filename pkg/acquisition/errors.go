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

package acquisition

import "errors"

var (
	ErrConfiguration     = errors.New("configuration failed")
	ErrPrepare           = errors.New("prepare failed")
	ErrStart             = errors.New("start failed")
	ErrRuntimeFault      = errors.New("acquisition fault")
	ErrUnknownErrorCode  = errors.New("unknown error code")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrStatusUnavailable = errors.New("status unavailable")
	ErrStopTimeout       = errors.New("detector did not stop in time")
	ErrCleanupPattern    = errors.New("cannot build cleanup pattern")
	errStillRunning      = errors.New("acquisition still running")
)
