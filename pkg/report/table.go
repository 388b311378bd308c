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

package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mfreeman451/detectorradar/pkg/detector"
	"github.com/mfreeman451/detectorradar/pkg/models"
)

// DetectorTable writes one row per identity.
func DetectorTable(out io.Writer, ids []*models.Identity) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "TYPE\tHOST\tALIASES\tADDRESSES\tPORT\tVERSION")

	for _, id := range ids {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			id.DetectorType, id.Host, orDash(strings.Join(id.Aliases, ",")),
			orDash(strings.Join(id.Addresses, ",")), id.Port, orDash(id.Version))
	}

	return w.Flush()
}

// ScanReports writes the detectors found by every family, then one line per
// family that failed.
func ScanReports(out io.Writer, reports []detector.ScanReport) error {
	var ids []*models.Identity

	for _, r := range reports {
		ids = append(ids, r.Identities()...)
	}

	if err := DetectorTable(out, ids); err != nil {
		return err
	}

	for _, r := range reports {
		if r.Err != nil {
			fmt.Fprintf(out, "%s: [%s] %v\n", r.DetectorType, red.Sprint("FAIL"), r.Err)
		}
	}

	return nil
}

// InfoText writes detector info as "key: value" lines with the keys
// right-aligned.
func InfoText(out io.Writer, info detector.Info) error {
	rows := [][2]string{
		{"Model", info.Model},
		{"Type", info.Type},
		{"Serial", info.Serial},
		{"Address", info.Address},
		{"Version", info.Version},
		{"ImageSize", fmt.Sprintf("%dx%d", info.Width, info.Height)},
		{"PixelType", info.PixelType},
	}

	width := 0

	for _, r := range rows {
		if r[1] != "" && len(r[0]) > width {
			width = len(r[0])
		}
	}

	for _, r := range rows {
		if r[1] == "" {
			continue
		}

		if _, err := fmt.Fprintf(out, "%*s: %s\n", width, r[0], r[1]); err != nil {
			return err
		}
	}

	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
