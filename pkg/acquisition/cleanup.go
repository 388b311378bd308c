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

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// CleanupReport describes what a cleanup did.
type CleanupReport struct {
	Skipped bool     `json:"skipped"`
	Pattern string   `json:"pattern,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Errors  []error  `json:"-"`
}

// Err returns the first removal error.
func (r CleanupReport) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}

	return r.Errors[0]
}

// RemoveFrames deletes the regular files of dir whose names start with
// prefix and end with suffix. Subdirectories are not visited.
func RemoveFrames(dir, prefix, suffix string) CleanupReport {
	report := CleanupReport{Pattern: filepath.Join(dir, prefix+"*"+suffix)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		report.Errors = append(report.Errors, err)
		return report
	}

	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || len(name) < len(prefix)+len(suffix) ||
			!strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}

		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			zap.S().Warnw("cannot remove frame file", "path", path, "error", err)
			report.Errors = append(report.Errors, err)

			continue
		}

		report.Removed = append(report.Removed, path)
	}

	zap.S().Debugw("cleanup finished", "pattern", report.Pattern, "removed", len(report.Removed))

	return report
}
