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

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const readHeaderTimeout = 5 * time.Second

// HTTPService adapts an http.Handler to Service.
type HTTPService struct {
	addr    string
	handler http.Handler

	mu  sync.Mutex
	srv *http.Server
	lis net.Listener
}

func NewHTTPService(addr string, handler http.Handler) *HTTPService {
	return &HTTPService{addr: addr, handler: handler}
}

// Listen binds the address; Start calls it when needed.
func (h *HTTPService) Listen() (net.Addr, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.lis != nil {
		return h.lis.Addr(), nil
	}

	lis, err := net.Listen("tcp", h.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", h.addr, err)
	}

	h.lis = lis
	h.srv = &http.Server{Handler: h.handler, ReadHeaderTimeout: readHeaderTimeout}

	return lis.Addr(), nil
}

func (h *HTTPService) Start(_ context.Context) error {
	addr, err := h.Listen()
	if err != nil {
		return err
	}

	zap.S().Infow("HTTP server listening", "addr", addr.String())

	if err := h.srv.Serve(h.lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (h *HTTPService) Stop(ctx context.Context) error {
	h.mu.Lock()
	srv := h.srv
	h.mu.Unlock()

	if srv == nil {
		return nil
	}

	return srv.Shutdown(ctx)
}
