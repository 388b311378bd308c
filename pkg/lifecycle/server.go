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

// Package lifecycle runs long-lived services until their context ends.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mfreeman451/detectorradar/pkg/grpc"
)

const ShutdownTimeout = 10 * time.Second

// Service defines the interface that all services must implement.
type Service interface {
	Start(context.Context) error
	Stop(context.Context) error
}

// ServerOptions holds configuration for creating a server.
type ServerOptions struct {
	ListenAddr  string
	ServiceName string
	Service     Service
	// Ready, when set, receives the bound gRPC address once listening.
	Ready func(addr string)
}

// RunServer serves gRPC health for ServiceName alongside Service until ctx
// is done or either of them fails.
func RunServer(ctx context.Context, opts *ServerOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	zap.S().Infow("starting service", "service", opts.ServiceName)

	grpcServer := grpc.NewServer(opts.ListenAddr)
	grpcServer.SetServingStatus(opts.ServiceName, true)

	addr, err := grpcServer.Listen()
	if err != nil {
		return fmt.Errorf("failed to setup gRPC server: %w", err)
	}

	if opts.Ready != nil {
		opts.Ready(addr.String())
	}

	errChan := make(chan error, 2)

	go func() {
		if err := opts.Service.Start(ctx); err != nil {
			errChan <- fmt.Errorf("service error: %w", err)
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			errChan <- err
		}
	}()

	return handleShutdown(ctx, grpcServer, opts.Service, errChan)
}

func handleShutdown(ctx context.Context, grpcServer *grpc.Server, svc Service, errChan chan error) error {
	var runErr error

	select {
	case err := <-errChan:
		zap.S().Warnw("initiating shutdown", "error", err)

		runErr = err
	case <-ctx.Done():
		zap.S().Infow("context canceled, initiating shutdown")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer shutdownCancel()

	grpcServer.Stop(shutdownCtx)

	if err := svc.Stop(shutdownCtx); err != nil {
		return errors.Join(runErr, fmt.Errorf("shutdown error: %w", err))
	}

	return runErr
}
