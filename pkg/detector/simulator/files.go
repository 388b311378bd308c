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

package simulator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mfreeman451/detectorradar/pkg/models"
)

const fileIndexFormat = "%04d"

// FileName returns the name of the index-th file of an acquisition.
func FileName(cfg *models.AcquisitionConfig, index int) string {
	return cfg.SavingPrefix + fmt.Sprintf(fileIndexFormat, index) + cfg.ResolvedSuffix()
}

// save writes every file whose frames are all acquired. When final is set
// the remaining frames go to a last, partial file.
func (h *Handle) save(acquired int64, final bool) {
	perFile := int64(h.cfg.FramesPerFile)
	if perFile < 1 {
		perFile = 1
	}

	for h.savedFrames < acquired {
		frames := acquired - h.savedFrames
		if frames > perFile {
			frames = perFile
		}

		if frames < perFile && !final {
			return
		}

		if code := h.writeFile(h.nextFile, h.savedFrames, frames); code != models.NoError {
			h.fileErr = code
			return
		}

		h.nextFile++
		h.savedFrames += frames
	}
}

func (h *Handle) writeFile(index int, first, frames int64) models.ErrorCode {
	path := filepath.Join(h.cfg.SavingDirectory, FileName(&h.cfg, index))

	flags := os.O_WRONLY | os.O_CREATE

	switch h.cfg.SavingPolicy {
	case models.PolicyOverwrite:
		flags |= os.O_TRUNC
	case models.PolicyAppend, models.PolicyMultiSet:
		flags |= os.O_APPEND
	default:
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		zap.S().Warnw("cannot open frame file", "path", path, "error", err)

		switch {
		case errors.Is(err, fs.ErrExist):
			return models.SaveOverwriteError
		case errors.Is(err, fs.ErrPermission):
			return models.SaveAccessError
		default:
			return models.SaveOpenError
		}
	}

	_, err = fmt.Fprintf(f, "detectorradar simulator %s frames %d-%d %dx%d %s\n",
		h.cfg.SavingFormat, first, first+frames-1, h.info.Width, h.info.Height, h.info.PixelType)
	if err != nil {
		_ = f.Close()
		return models.SaveUnknownError
	}

	if err := f.Close(); err != nil {
		return models.SaveCloseError
	}

	return models.NoError
}
