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
	"net"
	"net/netip"
	"sort"

	"go.uber.org/zap"
)

// SystemInterfaces reads addresses from the host network configuration.
type SystemInterfaces struct{}

func (SystemInterfaces) Addrs() ([]net.Addr, error) {
	return net.InterfaceAddrs()
}

// AddressSpace returns every address of the /24 block of each non-loopback
// IPv4 interface address, plus loopback addresses as they are. The result
// is deduplicated and sorted. It is empty when nothing is configured.
func AddressSpace(source InterfaceSource) []string {
	if source == nil {
		return []string{}
	}

	addrs, err := source.Addrs()
	if err != nil {
		zap.S().Debugw("cannot list interface addresses", "error", err)
		return []string{}
	}

	set := make(map[netip.Addr]struct{})

	for _, a := range addrs {
		ip, ok := ipv4Of(a)
		if !ok {
			continue
		}

		if ip.IsLoopback() {
			set[ip] = struct{}{}
			continue
		}

		// assuming a 255.255.255.0 netmask
		block := ip.As4()
		for i := 0; i < 256; i++ {
			block[3] = byte(i)
			set[netip.AddrFrom4(block)] = struct{}{}
		}
	}

	sorted := make([]netip.Addr, 0, len(set))
	for ip := range set {
		sorted = append(sorted, ip)
	}

	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	out := make([]string, len(sorted))
	for i, ip := range sorted {
		out[i] = ip.String()
	}

	return out
}

// ipv4Of extracts the IPv4 address of an interface address.
func ipv4Of(a net.Addr) (netip.Addr, bool) {
	var ip net.IP

	switch v := a.(type) {
	case *net.IPNet:
		ip = v.IP
	case *net.IPAddr:
		ip = v.IP
	default:
		return netip.Addr{}, false
	}

	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		return netip.Addr{}, false
	}

	addr = addr.Unmap()

	return addr, addr.Is4()
}
