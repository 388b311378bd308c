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

// Command simdetector runs a simulated detector agent: the version endpoint
// probed by HTTP discovery and gRPC health for the simulator service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/jzelinskie/cobrautil/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mfreeman451/detectorradar/pkg/detector/simulator"
	"github.com/mfreeman451/detectorradar/pkg/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := simulator.AgentOptions{
		HTTPAddr: ":8000",
		GRPCAddr: ":50061",
		Version:  "1.8.0",
	}

	var logFormat, logLevel string

	cmd := &cobra.Command{
		Use:           "simdetector",
		Short:         "Simulated detector agent",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flush, err := logger.Setup(logFormat, logLevel)
			if err != nil {
				return err
			}
			defer flush()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM)
			defer cancel()

			opts.Ready = func(httpAddr, grpcAddr string) {
				zap.S().Infow("simulated detector ready", "http", httpAddr, "grpc", grpcAddr, "version", opts.Version)
			}

			return simulator.RunAgent(ctx, opts)
		},
	}

	nfs := cobrautil.NewNamedFlagSets(cmd)

	server := nfs.FlagSet(color.New(color.FgBlue, color.Bold).Sprint("Server"))
	server.StringVar(&opts.HTTPAddr, "http-addr", opts.HTTPAddr, "version endpoint listen address")
	server.StringVar(&opts.GRPCAddr, "grpc-addr", opts.GRPCAddr, "gRPC health listen address")
	server.StringVar(&opts.Version, "version", opts.Version, "version reported by the version endpoint")

	logging := nfs.FlagSet(color.New(color.FgBlue, color.Bold).Sprint("Logging"))
	logging.StringVar(&logFormat, "log-format", "console", "format of the logs: console or json")
	logging.StringVar(&logLevel, "log-level", "info", "log level")

	nfs.AddFlagSets(cmd)

	return cmd
}
