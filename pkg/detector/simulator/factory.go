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
	"context"

	"github.com/mfreeman451/detectorradar/pkg/detector"
	"github.com/mfreeman451/detectorradar/pkg/scan"
)

// NewFactory describes the family. Built handles are in-process and ignore
// the url; scanning looks for simdetector agents through gRPC health.
func NewFactory(opts ...Option) detector.Factory {
	return detector.Factory{
		Description: "in-process simulated detector",
		Build: func(context.Context, string) (detector.Handle, error) {
			return New(opts...), nil
		},
		Scan: Scan,
	}
}

func Scan(ctx context.Context, opts detector.ScanOptions) (*scan.DiscoverResults, error) {
	port := opts.Port
	if port == 0 {
		port = scan.DefaultGRPCPort
	}

	return scan.Discover(ctx, scan.DiscoverOptions{
		Source:         opts.Source,
		Targets:        opts.Targets,
		Port:           port,
		Deadline:       opts.Timeout,
		Identifier:     scan.NewGRPCHealthIdentifier(Name, Service),
		MaxConcurrency: opts.MaxConcurrency,
		Limiter:        opts.Limiter,
	}), nil
}
