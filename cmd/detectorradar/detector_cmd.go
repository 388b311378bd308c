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
	"sync"

	"github.com/jzelinskie/cobrautil/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/mfreeman451/detectorradar/pkg/acquisition"
	"github.com/mfreeman451/detectorradar/pkg/api"
	"github.com/mfreeman451/detectorradar/pkg/detector"
	"github.com/mfreeman451/detectorradar/pkg/report"
	"github.com/mfreeman451/detectorradar/pkg/store"
)

var errAcquisitionFault = errors.New("acquisition fault")

// detectorCommand is the command group of one detector type.
type detectorCommand struct {
	*app
	name string
	url  string
}

func (a *app) newDetectorCommand(name string) *cobra.Command {
	d := &detectorCommand{app: a, name: name}

	short := name + " detector commands"
	if f, err := a.registry.Get(name); err == nil && f.Description != "" {
		short = f.Description
	}

	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
	}

	cmd.PersistentFlags().StringVarP(&d.url, "url", "u", "", "detector url (falls back to the config file)")

	cmd.AddCommand(d.newInfoCommand(), d.newAcquireCommand(), d.newScanCommand())

	return cmd
}

func (d *detectorCommand) resolvedURL() string {
	if d.url != "" {
		return d.url
	}

	return d.cfg.URLs[d.name]
}

func (d *detectorCommand) build(ctx context.Context) (detector.Handle, error) {
	return d.registry.Build(ctx, d.name, d.resolvedURL())
}

func (d *detectorCommand) newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show detector information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := d.build(cmd.Context())
			if err != nil {
				return err
			}
			defer h.Close()

			info, err := h.Info(cmd.Context())
			if err != nil {
				return err
			}

			return report.InfoText(d.out, info)
		},
	}
}

func (d *detectorCommand) newScanCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "scan",
		Short: fmt.Sprintf("Show %s detectors reachable on the local networks", d.name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := d.scanOptions()
			opts.Port = port

			results, err := d.registry.Scan(cmd.Context(), d.name, opts)
			rep := detector.ScanReport{DetectorType: d.name, Results: results, Err: err}

			if err := report.ScanReports(d.out, []detector.ScanReport{rep}); err != nil {
				return err
			}

			if rep.Err != nil {
				return rep.Err
			}

			return d.remember(cmd.Context(), rep.Identities())
		},
	}

	nfs := cobrautil.NewNamedFlagSets(cmd)

	scanFlags := nfs.FlagSet(sectionTitle("Scan"))
	scanFlags.IntVarP(&port, "port", "p", 0, "port to probe (0 = the type's default)")
	d.registerScanFlags(scanFlags)

	d.registerStoreFlags(nfs.FlagSet(sectionTitle("Store")))
	nfs.AddFlagSets(cmd)

	return cmd
}

func (d *detectorCommand) newAcquireCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "acquire",
		Short: "Run an acquisition",
		Example: fmt.Sprintf(`  # Ten frames of 100 ms, no saving
  detectorradar %[1]s acquire -n 10 -e 0.1

  # Save EDF files and remove them afterwards
  detectorradar %[1]s acquire -n 5 -d /tmp/frames -f EDF --cleanup`, d.name),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return d.acquire(cmd.Context())
		},
	}

	nfs := cobrautil.NewNamedFlagSets(cmd)
	d.registerAcquisitionFlags(nfs.FlagSet(sectionTitle("Acquisition")))
	d.registerSavingFlags(nfs.FlagSet(sectionTitle("Saving")))
	d.registerBufferFlags(nfs.FlagSet(sectionTitle("Buffer")))
	d.registerAPIFlags(nfs.FlagSet(sectionTitle("API")))
	nfs.AddFlagSets(cmd)

	return cmd
}

func (d *detectorCommand) registerAcquisitionFlags(fs *pflag.FlagSet) {
	c := &d.cfg.Acquire
	fs.Int64VarP(&c.NbFrames, "nb-frames", "n", c.NbFrames, "number of frames (0 = until interrupted)")
	fs.Float64VarP(&c.ExposureTime, "exposure-time", "e", c.ExposureTime, "exposure time (s)")
	fs.Float64VarP(&c.LatencyTime, "latency-time", "l", c.LatencyTime, "latency time (s)")
	fs.StringVarP((*string)(&c.Trigger), "trigger-mode", "t", string(c.Trigger), "trigger mode")
}

func (d *detectorCommand) registerSavingFlags(fs *pflag.FlagSet) {
	c := &d.cfg.Acquire
	fs.StringVarP(&c.SavingDirectory, "saving-directory", "d", c.SavingDirectory, "saving directory (empty = no saving)")
	fs.StringVarP((*string)(&c.SavingFormat), "saving-format", "f", string(c.SavingFormat), "saving format")
	fs.StringVar((*string)(&c.SavingPolicy), "saving-policy", string(c.SavingPolicy), "saving policy: abort, overwrite, append or multiset")
	fs.StringVar((*string)(&c.SavingMode), "saving-mode", string(c.SavingMode), "saving mode: manual, auto-frame or auto-header")
	fs.StringVar(&c.SavingPrefix, "saving-prefix", c.SavingPrefix, "file name prefix")
	fs.StringVarP(&c.SavingSuffix, "saving-suffix", "s", c.SavingSuffix, "file name suffix (auto = format extension)")
	fs.IntVar(&c.FramesPerFile, "frames-per-file", c.FramesPerFile, "frames per file")
	fs.BoolVar(&c.Cleanup, "cleanup", c.Cleanup, "remove the saved files after the acquisition")
}

func (d *detectorCommand) registerBufferFlags(fs *pflag.FlagSet) {
	c := &d.cfg.Acquire
	fs.Float64Var(&c.MaxBufferSize, "max-buffer-size", c.MaxBufferSize, "buffer size, percent of free memory")
	fs.IntVar(&c.NbSavingTasks, "nb-saving-tasks", c.NbSavingTasks, "saving tasks")
	fs.IntVar(&c.NbProcessingTasks, "nb-processing-tasks", c.NbProcessingTasks, "processing tasks")
}

func (d *detectorCommand) registerAPIFlags(fs *pflag.FlagSet) {
	fs.StringVar(&d.cfg.API.Listen, "listen", d.cfg.API.Listen, "serve progress over HTTP on this address")
	fs.IntVar(&d.cfg.API.MaxConnections, "max-connections", d.cfg.API.MaxConnections, "API connection limit")
	fs.StringVar(&d.cfg.Scan.DBPath, "db", d.cfg.Scan.DBPath, "SQLite database served on /api/detectors")
}

func (d *detectorCommand) acquire(ctx context.Context) error {
	h, err := d.build(ctx)
	if err != nil {
		return err
	}

	session := acquisition.NewSession(h)
	defer func() {
		if err := session.Close(); err != nil {
			zap.S().Warnw("error closing detector", "error", err)
		}
	}()

	console := report.NewConsole(d.out)

	var sink acquisition.ProgressSink = console

	stopAPI, err := d.startAPI(ctx, session, func(s acquisition.ProgressSink) {
		sink = report.Tee(console, s)
	})
	if err != nil {
		return err
	}
	defer stopAPI()

	summary, err := acquisition.NewRunner(session, console, sink).Run(ctx, d.cfg.Acquire)

	zap.S().Debugw("acquisition finished",
		"session", summary.SessionID,
		"state", summary.State,
		"interrupted", summary.Interrupted,
		"elapsed", summary.Elapsed)

	if err != nil {
		return err
	}

	if summary.Fault != nil {
		return fmt.Errorf("%w: %s", errAcquisitionFault, summary.Fault.Label)
	}

	return summary.Cleanup.Err()
}

// startAPI serves the session when --listen is given. attach receives the
// server as an extra progress sink.
func (d *detectorCommand) startAPI(
	ctx context.Context, session *acquisition.Session, attach func(acquisition.ProgressSink)) (func(), error) {
	if d.cfg.API.Listen == "" {
		return func() {}, nil
	}

	opts := []api.Option{
		api.WithSession(session),
		api.WithMaxConnections(d.cfg.API.MaxConnections),
	}

	st, err := openStore(d.cfg.Scan.DBPath)
	if err != nil {
		return nil, err
	}

	opts = append(opts, api.WithStore(st))

	srv := api.NewServer(opts...)
	attach(srv)

	apiCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		if err := srv.ListenAndServe(apiCtx, d.cfg.API.Listen); err != nil {
			zap.S().Errorw("API server failed", "error", err)
		}
	}()

	return func() {
		cancel()
		wg.Wait()

		if err := st.Close(); err != nil {
			zap.S().Warnw("error closing store", "error", err)
		}
	}, nil
}

// openStore opens the SQLite database at path, or an in-memory store when
// path is empty.
func openStore(path string) (store.Store, error) {
	if path == "" {
		return store.NewInMemoryStore(), nil
	}

	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}

	return s, nil
}
