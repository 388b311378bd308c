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

// Package eiger registers the Dectris Eiger family. Detectors are found
// through their REST version endpoint; acquisition needs a vendor binding.
package eiger

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mfreeman451/detectorradar/pkg/detector"
	"github.com/mfreeman451/detectorradar/pkg/scan"
)

const (
	Name = "eiger"

	DefaultHTTPPort = scan.DefaultHTTPPort
)

var (
	errURLRequired = errors.New("eiger url is required")
	errBadURL      = errors.New("invalid eiger url")
)

// Binding opens a vendor handle for the detector at host:port.
type Binding func(ctx context.Context, host string, port int) (detector.Handle, error)

// ParseURL accepts "host", "host:port" or "http://host[:port]" and returns
// the host and port, defaulting to DefaultHTTPPort.
func ParseURL(raw string) (string, int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", 0, errURLRequired
	}

	if !strings.HasPrefix(raw, "http://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", errBadURL, err)
	}

	host := u.Hostname()
	if host == "" {
		return "", 0, fmt.Errorf("%w: %q has no host", errBadURL, raw)
	}

	port := DefaultHTTPPort

	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return "", 0, fmt.Errorf("%w: bad port %q", errBadURL, p)
		}
	}

	return host, port, nil
}

// NewFactory describes the family. A nil binding leaves discovery working
// and makes Build fail with detector.ErrNoBinding.
func NewFactory(binding Binding) detector.Factory {
	return detector.Factory{
		Description: "Dectris Eiger detectors",
		Build: func(ctx context.Context, rawURL string) (detector.Handle, error) {
			host, port, err := ParseURL(rawURL)
			if err != nil {
				return nil, err
			}

			if binding == nil {
				return nil, fmt.Errorf("%w: %s", detector.ErrNoBinding, Name)
			}

			return binding(ctx, host, port)
		},
		Scan: Scan,
	}
}

// Scan looks for Eiger REST servers on the local network.
func Scan(ctx context.Context, opts detector.ScanOptions) (*scan.DiscoverResults, error) {
	port := opts.Port
	if port == 0 {
		port = DefaultHTTPPort
	}

	return scan.Discover(ctx, scan.DiscoverOptions{
		Source:         opts.Source,
		Targets:        opts.Targets,
		Port:           port,
		Deadline:       opts.Timeout,
		Identifier:     scan.NewHTTPIdentifier(Name, nil),
		MaxConcurrency: opts.MaxConcurrency,
		Limiter:        opts.Limiter,
	}), nil
}
