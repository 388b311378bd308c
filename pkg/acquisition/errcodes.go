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

	"github.com/mfreeman451/detectorradar/pkg/models"
)

// Category is the machine-readable kind of a runtime error code.
type Category string

const (
	CategoryNone              Category = "no-error"
	CategorySaveUnknown       Category = "save-unknown"
	CategorySaveOpen          Category = "save-open"
	CategorySaveClose         Category = "save-close"
	CategorySaveAccess        Category = "save-access"
	CategorySaveOverwrite     Category = "save-overwrite"
	CategorySaveDiskFull      Category = "save-disk-full"
	CategorySaveOverrun       Category = "save-overrun"
	CategoryProcessingOverrun Category = "processing-overrun"
	CategoryCamera            Category = "camera-error"
	CategoryUnknown           Category = "unknown-error-code"
	CategoryFault             Category = "acquisition-fault"
)

// Classification is the outcome of mapping a raw error code.
type Classification struct {
	Code     models.ErrorCode `json:"code"`
	Category Category         `json:"category"`
	Label    string           `json:"label"`
}

var classifications = map[models.ErrorCode]Classification{
	models.NoError:            {Category: CategoryNone, Label: "No error"},
	models.SaveUnknownError:   {Category: CategorySaveUnknown, Label: "Saving error"},
	models.SaveOpenError:      {Category: CategorySaveOpen, Label: "Save file open error"},
	models.SaveCloseError:     {Category: CategorySaveClose, Label: "Save file close error"},
	models.SaveAccessError:    {Category: CategorySaveAccess, Label: "Save access error"},
	models.SaveOverwriteError: {Category: CategorySaveOverwrite, Label: "Save overwrite error"},
	models.SaveDiskFull:       {Category: CategorySaveDiskFull, Label: "Save disk full"},
	models.SaveOverrun:        {Category: CategorySaveOverrun, Label: "Save overrun"},
	models.ProcessingOverrun:  {Category: CategoryProcessingOverrun, Label: "Soft Processing overrun"},
	models.CameraError:        {Category: CategoryCamera, Label: "Camera Error"},
}

// Classify maps a raw error code. Codes outside the known set are kept
// under CategoryUnknown.
func Classify(code models.ErrorCode) Classification {
	c, ok := classifications[code]
	if !ok {
		return Classification{
			Code:     code,
			Category: CategoryUnknown,
			Label:    fmt.Sprintf("Unknown error code %d", int(code)),
		}
	}

	c.Code = code

	return c
}

// FaultWithoutCode describes a fault status that carries no error code.
func FaultWithoutCode() Classification {
	return Classification{Code: models.NoError, Category: CategoryFault, Label: "Acquisition fault"}
}

func (c Classification) Known() bool {
	return c.Category != CategoryUnknown
}

// Err returns the classification as an error, nil for no-error.
func (c Classification) Err() error {
	switch c.Category {
	case CategoryNone:
		return nil
	case CategoryUnknown:
		return fmt.Errorf("%w: %w: %d", ErrRuntimeFault, ErrUnknownErrorCode, int(c.Code))
	default:
		return fmt.Errorf("%w: %s", ErrRuntimeFault, c.Label)
	}
}

func (c Classification) String() string {
	return c.Label
}
