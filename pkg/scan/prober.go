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
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mfreeman451/detectorradar/pkg/fanout"
	"github.com/mfreeman451/detectorradar/pkg/models"
)

const defaultResolveTimeout = time.Second

// Dialer opens the reachability connection. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Prober runs the two-phase check against one target: a TCP connect, then
// the identifier query. Successful identities are annotated with reverse
// name resolution.
type Prober struct {
	identifier     Identifier
	resolver       Resolver
	dialer         Dialer
	connectTimeout time.Duration
	resolveTimeout time.Duration
}

// ProberOption customizes a Prober.
type ProberOption func(*Prober)

// WithConnectTimeout bounds the reachability phase. Without it the connect
// is bounded by the run deadline only. A target that does not answer within
// the timeout is reported as silent, never as a failure.
func WithConnectTimeout(d time.Duration) ProberOption {
	return func(p *Prober) {
		p.connectTimeout = d
	}
}

// WithDialer replaces the TCP dialer.
func WithDialer(d Dialer) ProberOption {
	return func(p *Prober) {
		p.dialer = d
	}
}

// WithResolver replaces the system resolver. A nil resolver disables
// name resolution.
func WithResolver(r Resolver) ProberOption {
	return func(p *Prober) {
		p.resolver = r
	}
}

func NewProber(identifier Identifier, opts ...ProberOption) *Prober {
	p := &Prober{
		identifier:     identifier,
		resolver:       net.DefaultResolver,
		dialer:         &net.Dialer{},
		resolveTimeout: defaultResolveTimeout,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Probe checks a single target. A connect that times out yields an error
// wrapping fanout.ErrNoResponse: the target is silent, not failed.
func (p *Prober) Probe(ctx context.Context, target models.Target) (*models.Identity, error) {
	if err := p.connect(ctx, target); err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s: %w", fanout.ErrNoResponse, target, err)
		}

		return nil, fmt.Errorf("%w: %w: %w", ErrProbeFailure, ErrUnreachable, err)
	}

	identity, err := p.identifier.Identify(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProbeFailure, err)
	}

	p.annotate(ctx, identity)

	return identity, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var ne net.Error

	return errors.As(err, &ne) && ne.Timeout()
}

func (p *Prober) connect(ctx context.Context, target models.Target) error {
	connCtx := ctx

	if p.connectTimeout > 0 {
		var cancel context.CancelFunc

		connCtx, cancel = context.WithTimeout(ctx, p.connectTimeout)
		defer cancel()
	}

	conn, err := p.dialer.DialContext(connCtx, "tcp", net.JoinHostPort(target.Host, strconv.Itoa(target.Port)))
	if err != nil {
		return err
	}

	if err := conn.Close(); err != nil {
		zap.S().Debugw("error closing connection", "target", target.String(), "error", err)
	}

	return nil
}

// annotate fills host name, aliases and addresses. Resolution failures
// leave the raw address in place.
func (p *Prober) annotate(ctx context.Context, id *models.Identity) {
	id.Host = id.Address
	id.Addresses = []string{id.Address}

	if p.resolver == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.resolveTimeout)
	defer cancel()

	names, err := p.resolver.LookupAddr(ctx, id.Address)
	if err != nil || len(names) == 0 {
		return
	}

	id.Host = strings.TrimSuffix(names[0], ".")

	id.Aliases = nil
	for _, n := range names[1:] {
		id.Aliases = append(id.Aliases, strings.TrimSuffix(n, "."))
	}

	if addrs, err := p.resolver.LookupHost(ctx, id.Host); err == nil && len(addrs) > 0 {
		id.Addresses = addrs
	}
}
