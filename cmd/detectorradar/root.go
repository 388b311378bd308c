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
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"

	"github.com/mfreeman451/detectorradar/pkg/config"
	"github.com/mfreeman451/detectorradar/pkg/detector"
	"github.com/mfreeman451/detectorradar/pkg/logger"
)

var (
	errLogFormat = errors.New("invalid log-format")
	errLogLevel  = errors.New("invalid log-level")
)

type app struct {
	cfg        *config.Config
	configPath string
	registry   detector.Registry
	out        io.Writer
	root       *cobra.Command
	flush      func()
}

// defaultConfig is replaced in tests.
var defaultConfig = config.Default

func newApp(registry detector.Registry, out io.Writer) (*app, error) {
	cfg, err := defaultConfig()
	if err != nil {
		return nil, fmt.Errorf("default configuration: %w", err)
	}

	a := &app{cfg: cfg, registry: registry, out: out}

	a.root = &cobra.Command{
		Use:   "detectorradar",
		Short: "Area detector discovery and acquisition",
		Long: `detectorradar

Detector discovery, detector information, and acquisitions on the detector
families it knows about.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	a.root.SetOut(out)

	flags := a.root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "configuration file (.json, .yaml or .yml)")
	flags.StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "format of the logs: console or json")
	flags.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level")

	a.root.AddCommand(a.newScanCommand(), a.newDetectorsCommand())

	for _, name := range registry.Names() {
		a.root.AddCommand(a.newDetectorCommand(name))
	}

	return a, nil
}

// setup applies the config file under the explicitly given flags, then
// installs the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.configPath != "" {
		if err := a.loadConfig(cmd.Flags()); err != nil {
			return err
		}
	}

	switch a.cfg.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: %s", errLogFormat, a.cfg.Log.Format)
	}

	if _, err := zapcore.ParseLevel(a.cfg.Log.Level); err != nil {
		return fmt.Errorf("%w: %s", errLogLevel, a.cfg.Log.Level)
	}

	flush, err := logger.Setup(a.cfg.Log.Format, a.cfg.Log.Level)
	if err != nil {
		return err
	}

	a.flush = flush

	return nil
}

func (a *app) loadConfig(flags *pflag.FlagSet) error {
	changed := map[string]string{}

	flags.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	if err := config.LoadAndValidate(a.configPath, a.cfg); err != nil {
		return err
	}

	for name, value := range changed {
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("re-applying --%s: %w", name, err)
		}
	}

	return nil
}

func (a *app) close() {
	if a.flush != nil {
		a.flush()
		a.flush = nil
	}
}
