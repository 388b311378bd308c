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
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/mfreeman451/detectorradar/pkg/models"
)

const (
	// VersionPath is the well-known path answered by network detectors.
	VersionPath = "/detector/api/version/"
	// DefaultHTTPPort is the port detector REST services listen on.
	DefaultHTTPPort = 8000

	maxPayloadSize = 1 << 20
)

// HTTPIdentifier identifies a detector through its version endpoint: a 200
// response whose JSON body carries a "value" field.
type HTTPIdentifier struct {
	detectorType string
	client       *http.Client
}

// NewHTTPIdentifier creates an identifier tagging identities with
// detectorType. A nil client uses a default one without redirects.
func NewHTTPIdentifier(detectorType string, client *http.Client) *HTTPIdentifier {
	if client == nil {
		client = &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	return &HTTPIdentifier{detectorType: detectorType, client: client}
}

type versionResponse struct {
	Value json.RawMessage `json:"value"`
}

func (h *HTTPIdentifier) Identify(ctx context.Context, target models.Target) (*models.Identity, error) {
	url := "http://" + net.JoinHostPort(target.Host, strconv.Itoa(target.Port)) + VersionPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	var body versionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPayloadSize)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadPayload, err)
	}

	version, err := versionString(body.Value)
	if err != nil {
		return nil, err
	}

	return &models.Identity{
		DetectorType: h.detectorType,
		Address:      target.Host,
		Port:         target.Port,
		Version:      version,
		SeenAt:       time.Now(),
	}, nil
}

func versionString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", fmt.Errorf("%w: missing \"value\"", ErrBadPayload)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	return string(raw), nil
}
