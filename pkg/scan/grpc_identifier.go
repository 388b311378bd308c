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

package scan

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/mfreeman451/detectorradar/pkg/grpc"
	"github.com/mfreeman451/detectorradar/pkg/models"
)

// DefaultGRPCPort is the port detector agents expose gRPC health on.
const DefaultGRPCPort = 50061

// GRPCHealthIdentifier identifies a detector agent through the standard
// gRPC health service.
type GRPCHealthIdentifier struct {
	detectorType string
	service      string
	opts         []grpc.ClientOption
}

func NewGRPCHealthIdentifier(detectorType, service string, opts ...grpc.ClientOption) *GRPCHealthIdentifier {
	return &GRPCHealthIdentifier{detectorType: detectorType, service: service, opts: opts}
}

func (g *GRPCHealthIdentifier) Identify(ctx context.Context, target models.Target) (*models.Identity, error) {
	client, err := grpc.NewClient(net.JoinHostPort(target.Host, strconv.Itoa(target.Port)), g.opts...)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	status, err := client.CheckHealth(ctx, g.service)
	if err != nil {
		return nil, err
	}

	if status != grpc_health_v1.HealthCheckResponse_SERVING {
		return nil, fmt.Errorf("%w: %s reports %s", ErrNotServing, g.service, status)
	}

	return &models.Identity{
		DetectorType: g.detectorType,
		Address:      target.Host,
		Port:         target.Port,
		Metadata: map[string]string{
			"service": g.service,
			"health":  status.String(),
		},
		SeenAt: time.Now(),
	}, nil
}
