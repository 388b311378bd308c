package lifecycle

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/mfreeman451/detectorradar/pkg/grpc"
)

type fakeService struct {
	startErr error
	stopped  atomic.Bool
}

func (f *fakeService) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}

	<-ctx.Done()

	return nil
}

func (f *fakeService) Stop(context.Context) error {
	f.stopped.Store(true)
	return nil
}

func TestRunServer_HealthUntilCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := &fakeService{}
	ready := make(chan string, 1)
	done := make(chan error, 1)

	go func() {
		done <- RunServer(ctx, &ServerOptions{
			ListenAddr:  "127.0.0.1:0",
			ServiceName: "test.Service",
			Service:     svc,
			Ready:       func(addr string) { ready <- addr },
		})
	}()

	addr := <-ready

	client, err := grpc.NewClient(addr)
	require.NoError(t, err)

	defer client.Close()

	status, err := client.CheckHealth(ctx, "test.Service")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	assert.True(t, svc.stopped.Load())
}

func TestRunServer_ServiceFailure(t *testing.T) {
	boom := errors.New("boom")
	svc := &fakeService{startErr: boom}

	err := RunServer(context.Background(), &ServerOptions{
		ListenAddr:  "127.0.0.1:0",
		ServiceName: "test.Service",
		Service:     svc,
	})
	require.ErrorIs(t, err, boom)
	assert.True(t, svc.stopped.Load())
}

func TestHTTPService(t *testing.T) {
	svc := NewHTTPService("127.0.0.1:0", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))

	addr, err := svc.Listen()
	require.NoError(t, err)

	done := make(chan error, 1)

	go func() { done <- svc.Start(context.Background()) }()

	resp, err := http.Get("http://" + addr.String()) //nolint:noctx // test
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "ok", string(body))

	require.NoError(t, svc.Stop(context.Background()))
	require.NoError(t, <-done)
}
