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

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/jzelinskie/cobrautil/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mfreeman451/detectorradar/pkg/detector"
	"github.com/mfreeman451/detectorradar/pkg/models"
	"github.com/mfreeman451/detectorradar/pkg/report"
	"github.com/mfreeman451/detectorradar/pkg/store"
)

var errNoDatabase = errors.New("a database is required (--db)")

func sectionTitle(name string) string {
	return color.New(color.FgBlue, color.Bold).Sprint(name)
}

func (a *app) newScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the local networks for every known detector type",
		Example: `  # Scan with the default 2s budget
  detectorradar scan

  # Scan slowly and remember what was found
  detectorradar scan --timeout 5s --rate 200 --db detectors.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runScanAll(cmd.Context())
		},
	}

	nfs := cobrautil.NewNamedFlagSets(cmd)
	a.registerScanFlags(nfs.FlagSet(sectionTitle("Scan")))
	a.registerStoreFlags(nfs.FlagSet(sectionTitle("Store")))
	nfs.AddFlagSets(cmd)

	return cmd
}

func (a *app) registerScanFlags(fs *pflag.FlagSet) {
	fs.Var(&a.cfg.Scan.Timeout, "timeout", "overall discovery budget")
	fs.IntVar(&a.cfg.Scan.MaxConcurrency, "max-concurrency", a.cfg.Scan.MaxConcurrency, "maximum probes in flight (0 = unbounded)")
	fs.Float64Var(&a.cfg.Scan.Rate, "rate", a.cfg.Scan.Rate, "maximum probes started per second (0 = unlimited)")
}

func (a *app) registerStoreFlags(fs *pflag.FlagSet) {
	fs.StringVar(&a.cfg.Scan.DBPath, "db", a.cfg.Scan.DBPath, "SQLite database of discovered detectors")
	fs.Var(&a.cfg.Scan.PruneAfter, "prune-after", "forget detectors not seen for this long (0 = keep)")
}

func (a *app) scanOptions() detector.ScanOptions {
	opts := detector.ScanOptions{
		Timeout:        time.Duration(a.cfg.Scan.Timeout),
		MaxConcurrency: a.cfg.Scan.MaxConcurrency,
	}

	if a.cfg.Scan.Rate > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(a.cfg.Scan.Rate), 1)
	}

	return opts
}

func (a *app) runScanAll(ctx context.Context) error {
	reports := a.registry.ScanAll(ctx, a.scanOptions())

	for _, r := range reports {
		if len(reports) > 1 {
			fmt.Fprintf(a.out, "%s:\n", r.DetectorType)
		}

		if err := report.ScanReports(a.out, []detector.ScanReport{r}); err != nil {
			return err
		}
	}

	var found []*models.Identity

	for _, r := range reports {
		found = append(found, r.Identities()...)
	}

	return a.remember(ctx, found)
}

// remember stores identities when a database is configured.
func (a *app) remember(ctx context.Context, ids []*models.Identity) error {
	if a.cfg.Scan.DBPath == "" {
		return nil
	}

	s, err := store.NewSQLiteStore(a.cfg.Scan.DBPath)
	if err != nil {
		return err
	}

	defer func() {
		if err := s.Close(); err != nil {
			zap.S().Warnw("error closing store", "error", err)
		}
	}()

	if err := store.SaveAll(ctx, s, ids); err != nil {
		return err
	}

	zap.S().Debugw("saved detectors", "count", len(ids), "db", a.cfg.Scan.DBPath)

	if a.cfg.Scan.PruneAfter > 0 {
		n, err := s.PruneDetectors(ctx, time.Duration(a.cfg.Scan.PruneAfter))
		if err != nil {
			return err
		}

		zap.S().Debugw("pruned detectors", "count", n)
	}

	return nil
}

func (a *app) newDetectorsCommand() *cobra.Command {
	var filter models.DetectorFilter

	cmd := &cobra.Command{
		Use:   "detectors",
		Short: "List detectors remembered by previous scans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Scan.DBPath == "" {
				return errNoDatabase
			}

			s, err := store.NewSQLiteStore(a.cfg.Scan.DBPath)
			if err != nil {
				return err
			}
			defer s.Close()

			ids, err := s.ListDetectors(cmd.Context(), &filter)
			if err != nil {
				return err
			}

			rows := make([]*models.Identity, len(ids))
			for i := range ids {
				rows[i] = &ids[i]
			}

			return report.DetectorTable(a.out, rows)
		},
	}

	nfs := cobrautil.NewNamedFlagSets(cmd)

	storeFlags := nfs.FlagSet(sectionTitle("Store"))
	storeFlags.StringVar(&a.cfg.Scan.DBPath, "db", a.cfg.Scan.DBPath, "SQLite database of discovered detectors")

	filterFlags := nfs.FlagSet(sectionTitle("Filter"))
	filterFlags.StringVar(&filter.DetectorType, "type", "", "only this detector type")
	filterFlags.StringVar(&filter.Host, "host", "", "only this host name or address")

	nfs.AddFlagSets(cmd)

	return cmd
}
