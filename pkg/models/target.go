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

// Package models holds the data types shared by discovery and acquisition.
package models

import (
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"
)

// Target represents a network target to be probed.
type Target struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Key returns the normalized "host:port" form used for equality.
func (t Target) Key() string {
	return net.JoinHostPort(NormalizeHost(t.Host), strconv.Itoa(t.Port))
}

func (t Target) String() string {
	return t.Key()
}

// NormalizeHost returns the canonical form of an IP literal, or the
// lower-cased host name when host is not an address.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)

	if addr, err := netip.ParseAddr(strings.Trim(host, "[]")); err == nil {
		return addr.Unmap().String()
	}

	return strings.ToLower(host)
}

// DedupTargets removes targets sharing the same Key, keeping the first one.
func DedupTargets(targets []Target) []Target {
	seen := make(map[string]struct{}, len(targets))
	out := make([]Target, 0, len(targets))

	for _, t := range targets {
		key := t.Key()
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}

		out = append(out, t)
	}

	return out
}

// TargetsFromHosts builds one target per host on the given port.
func TargetsFromHosts(hosts []string, port int) []Target {
	targets := make([]Target, 0, len(hosts))
	for _, h := range hosts {
		targets = append(targets, Target{Host: h, Port: port})
	}

	return targets
}

// Identity is what a successful probe learned about a detector.
type Identity struct {
	DetectorType string            `json:"detector_type"`
	Address      string            `json:"address"`
	Host         string            `json:"host"`
	Aliases      []string          `json:"aliases,omitempty"`
	Addresses    []string          `json:"addresses,omitempty"`
	Port         int               `json:"port"`
	Version      string            `json:"version,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	SeenAt       time.Time         `json:"seen_at"`
}

// DetectorFilter defines criteria for listing stored detectors.
type DetectorFilter struct {
	DetectorType string
	Host         string
	Since        time.Time
}
