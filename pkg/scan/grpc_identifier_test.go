package scan

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfreeman451/detectorradar/pkg/grpc"
	"github.com/mfreeman451/detectorradar/pkg/models"
)

const simulatorService = "detectorradar.Simulator"

func healthTarget(t *testing.T, serving bool) models.Target {
	t.Helper()

	s := grpc.NewServer("127.0.0.1:0")
	s.SetServingStatus(simulatorService, serving)

	addr, err := s.Listen()
	require.NoError(t, err)

	go func() { _ = s.Start() }()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	})

	host, port, err := net.SplitHostPort(addr.String())
	require.NoError(t, err)

	p, err := strconv.Atoi(port)
	require.NoError(t, err)

	return models.Target{Host: host, Port: p}
}

func TestGRPCHealthIdentifier(t *testing.T) {
	id := NewGRPCHealthIdentifier("simulator", simulatorService)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	identity, err := id.Identify(ctx, healthTarget(t, true))
	require.NoError(t, err)
	assert.Equal(t, "simulator", identity.DetectorType)
	assert.Equal(t, "SERVING", identity.Metadata["health"])

	_, err = id.Identify(ctx, healthTarget(t, false))
	require.ErrorIs(t, err, ErrNotServing)
}

func TestDiscover_GRPCHealth(t *testing.T) {
	serving := healthTarget(t, true)

	results := Discover(context.Background(), DiscoverOptions{
		Targets:       []models.Target{serving, closedTarget(t)},
		Deadline:      2 * time.Second,
		Identifier:    NewGRPCHealthIdentifier("simulator", simulatorService),
		ProberOptions: []ProberOption{WithResolver(nil)},
	})

	require.Len(t, results.Successes(), 1)
	assert.Equal(t, serving, results.Successes()[0].Source)
	require.Len(t, results.Failures(), 1)
	require.ErrorIs(t, results.Failures()[0].Err, ErrUnreachable)
}
