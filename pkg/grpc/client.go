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

// Package grpc wraps gRPC client and server plumbing used for health-based
// detector identification.
package grpc

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// ClientOption allows customization of the client.
type ClientOption func(*ClientConn)

// ClientConn wraps a gRPC client connection with a health client.
type ClientConn struct {
	conn         *grpc.ClientConn
	healthClient grpc_health_v1.HealthClient
	addr         string
	dialOpts     []grpc.DialOption
}

// NewClient creates a new gRPC client for addr. The connection is
// established lazily by the first call.
func NewClient(addr string, opts ...ClientOption) (*ClientConn, error) {
	if addr == "" {
		return nil, errAddressRequired
	}

	c := &ClientConn{
		addr: addr,
		dialOpts: []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithChainUnaryInterceptor(ClientLoggingInterceptor),
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	conn, err := grpc.NewClient(addr, c.dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", addr, err)
	}

	c.conn = conn
	c.healthClient = grpc_health_v1.NewHealthClient(conn)

	return c, nil
}

// WithDialOptions appends dial options.
func WithDialOptions(opts ...grpc.DialOption) ClientOption {
	return func(c *ClientConn) {
		c.dialOpts = append(c.dialOpts, opts...)
	}
}

// Close closes the client connection.
func (c *ClientConn) Close() error {
	return c.conn.Close()
}

// CheckHealth returns the serving status reported for service.
func (c *ClientConn) CheckHealth(ctx context.Context, service string) (grpc_health_v1.HealthCheckResponse_ServingStatus, error) {
	resp, err := c.healthClient.Check(ctx, &grpc_health_v1.HealthCheckRequest{
		Service: service,
	})
	if err != nil {
		return grpc_health_v1.HealthCheckResponse_UNKNOWN, fmt.Errorf("%w: %w", errHealthCheck, err)
	}

	return resp.GetStatus(), nil
}

// ClientLoggingInterceptor logs client-side RPC calls.
func ClientLoggingInterceptor(
	ctx context.Context,
	method string,
	req interface{},
	reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption) error {
	start := time.Now()
	err := invoker(ctx, method, req, reply, cc, opts...)

	zap.S().Debugw("gRPC client call", "method", method, "target", cc.Target(),
		"duration", time.Since(start), "error", err)

	return err
}
