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
	"fmt"
	"time"

	"github.com/mfreeman451/detectorradar/pkg/detector"
	"github.com/mfreeman451/detectorradar/pkg/models"
)

// Title summarizes an acquisition, for example
// "Acquiring on Simulator (Simulator) | 10 x 100ms (10Hz) = 1s | 1024x1024 Bpp32".
func Title(info detector.Info, cfg *models.AcquisitionConfig) string {
	exposure := seconds(cfg.ExposureTime)

	frame := exposure.String()
	if cfg.LatencyTime > 0 {
		frame = fmt.Sprintf("(%s + %s)", exposure, seconds(cfg.LatencyTime))
	}

	rate := "-"
	if ft := cfg.FrameTime(); ft > 0 {
		rate = frequency(1 / ft.Seconds())
	}

	total := time.Duration(cfg.NbFrames) * cfg.FrameTime()

	title := fmt.Sprintf("Acquiring on %s (%s) | %d x %s (%s) = %s",
		info.Model, info.Type, cfg.NbFrames, frame, rate, total)

	if info.Width > 0 && info.Height > 0 {
		title += fmt.Sprintf(" | %dx%d %s", info.Width, info.Height, info.PixelType)
	}

	return title
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func frequency(hz float64) string {
	switch {
	case hz >= 1e6:
		return fmt.Sprintf("%.4gMHz", hz/1e6)
	case hz >= 1e3:
		return fmt.Sprintf("%.4gkHz", hz/1e3)
	default:
		return fmt.Sprintf("%.4gHz", hz)
	}
}
