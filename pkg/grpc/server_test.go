package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func startServer(t *testing.T) (*Server, string) {
	t.Helper()

	s := NewServer("127.0.0.1:0")

	addr, err := s.Listen()
	require.NoError(t, err)

	errCh := make(chan error, 1)

	go func() { errCh <- s.Start() }()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		s.Stop(ctx)
		assert.NoError(t, <-errCh)
	})

	return s, addr.String()
}

func TestServer_HealthStatus(t *testing.T) {
	s, addr := startServer(t)
	s.SetServingStatus("detectorradar.Simulator", true)
	s.SetServingStatus("detectorradar.Other", false)

	client, err := NewClient(addr)
	require.NoError(t, err)

	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	status, err := client.CheckHealth(ctx, "detectorradar.Simulator")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status)

	status, err = client.CheckHealth(ctx, "detectorradar.Other")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status)

	_, err = client.CheckHealth(ctx, "unregistered")
	require.ErrorIs(t, err, errHealthCheck)
}

func TestNewClient_RequiresAddress(t *testing.T) {
	_, err := NewClient("")
	require.ErrorIs(t, err, errAddressRequired)
}
