package simulator

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfreeman451/detectorradar/pkg/detector"
	"github.com/mfreeman451/detectorradar/pkg/models"
	"github.com/mfreeman451/detectorradar/pkg/scan"
)

func targetFrom(t *testing.T, addr string) models.Target {
	t.Helper()

	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	p, err := strconv.Atoi(port)
	require.NoError(t, err)

	return models.Target{Host: host, Port: p}
}

func TestRunAgent_Discoverable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type addrs struct{ http, grpc string }

	ready := make(chan addrs, 1)
	done := make(chan error, 1)

	go func() {
		done <- RunAgent(ctx, AgentOptions{
			HTTPAddr: "127.0.0.1:0",
			GRPCAddr: "127.0.0.1:0",
			Version:  "1.2.3",
			Ready:    func(h, g string) { ready <- addrs{h, g} },
		})
	}()

	var a addrs
	select {
	case a = <-ready:
	case err := <-done:
		t.Fatalf("agent exited early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("agent not ready")
	}

	grpcTarget := targetFrom(t, a.grpc)
	results, err := Scan(ctx, detector.ScanOptions{
		Targets: []models.Target{grpcTarget},
		Port:    grpcTarget.Port,
		Timeout: time.Second,
	})
	require.NoError(t, err)
	require.Len(t, results.Successes(), 1)
	assert.Equal(t, Name, results.Successes()[0].Value.DetectorType)

	httpTarget := targetFrom(t, a.http)
	byVersion := scan.Discover(ctx, scan.DiscoverOptions{
		Targets:    []models.Target{httpTarget},
		Port:       httpTarget.Port,
		Deadline:   time.Second,
		Identifier: scan.NewHTTPIdentifier(Name, nil),
	})
	require.Len(t, byVersion.Successes(), 1)
	assert.Equal(t, "1.2.3", byVersion.Successes()[0].Value.Version)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("agent did not stop")
	}
}
