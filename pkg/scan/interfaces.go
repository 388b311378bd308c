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

// Package scan discovers detectors on the local network segment.
package scan

import (
	"context"
	"net"

	"github.com/mfreeman451/detectorradar/pkg/models"
)

// InterfaceSource lists the addresses configured on local interfaces.
type InterfaceSource interface {
	Addrs() ([]net.Addr, error)
}

// Identifier performs the application-level query of a probe.
type Identifier interface {
	Identify(ctx context.Context, target models.Target) (*models.Identity, error)
}

// Resolver performs reverse name resolution. *net.Resolver satisfies it.
type Resolver interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
	LookupHost(ctx context.Context, host string) ([]string, error)
}
