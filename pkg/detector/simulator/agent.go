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
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mfreeman451/detectorradar/pkg/lifecycle"
	"github.com/mfreeman451/detectorradar/pkg/scan"
)

// AgentOptions configures a simdetector process.
type AgentOptions struct {
	HTTPAddr string
	GRPCAddr string
	Version  string
	// Ready receives the bound addresses once both listeners are up.
	Ready func(httpAddr, grpcAddr string)
}

// NewVersionHandler answers the version endpoint probed by discovery.
func NewVersionHandler(version string) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc(scan.VersionPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := json.NewEncoder(w).Encode(map[string]string{"value": version}); err != nil {
			zap.S().Warnw("error encoding version", "error", err)
		}
	}).Methods(http.MethodGet)

	return r
}

// RunAgent serves the version endpoint and gRPC health for Service until
// ctx is done.
func RunAgent(ctx context.Context, opts AgentOptions) error {
	svc := lifecycle.NewHTTPService(opts.HTTPAddr, NewVersionHandler(opts.Version))

	httpAddr, err := svc.Listen()
	if err != nil {
		return err
	}

	return lifecycle.RunServer(ctx, &lifecycle.ServerOptions{
		ListenAddr:  opts.GRPCAddr,
		ServiceName: Service,
		Service:     svc,
		Ready: func(grpcAddr string) {
			if opts.Ready != nil {
				opts.Ready(httpAddr.String(), grpcAddr)
			}
		},
	})
}
