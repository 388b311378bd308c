package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfreeman451/detectorradar/pkg/acquisition"
	"github.com/mfreeman451/detectorradar/pkg/models"
	"github.com/mfreeman451/detectorradar/pkg/store"
)

type fakeSession struct {
	id     string
	state  models.SessionState
	status models.StatusSnapshot
}

func (f *fakeSession) ID() string                        { return f.id }
func (f *fakeSession) State() models.SessionState        { return f.state }
func (f *fakeSession) LastStatus() models.StatusSnapshot { return f.status }

func getJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()

	resp, err := http.Get(url) //nolint:noctx // test helper
	require.NoError(t, err)

	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK && v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}

	return resp.StatusCode
}

func TestGetSession(t *testing.T) {
	srv := NewServer()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	var idle SessionStatus
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/session", &idle))
	assert.Equal(t, models.StateIdle, idle.State)
	assert.Equal(t, int64(-1), idle.Status.LastImageAcquired)

	status := models.IdleSnapshot()
	status.LastImageAcquired = 4
	srv.SetSession(&fakeSession{id: "abc", state: models.StateRunning, status: status})
	srv.Update(models.Progress{Total: 10, Acquired: 5})
	srv.Error(acquisition.Classify(models.ErrorCode(3)))

	var running SessionStatus
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/session", &running))
	assert.Equal(t, "abc", running.ID)
	assert.Equal(t, models.StateRunning, running.State)
	assert.Equal(t, int64(5), running.Progress.Acquired)
	assert.Equal(t, int64(4), running.Status.LastImageAcquired)
	require.NotNil(t, running.Error)
	assert.Equal(t, models.ErrorCode(3), running.Error.Code)
	assert.False(t, running.Fault)
}

func TestGetDetectors(t *testing.T) {
	t.Run("no store", func(t *testing.T) {
		ts := httptest.NewServer(NewServer().Handler())
		defer ts.Close()

		assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, ts.URL+"/api/detectors", nil))
	})

	mem := store.NewInMemoryStore()
	now := time.Now()

	require.NoError(t, store.SaveAll(context.Background(), mem, []*models.Identity{
		{DetectorType: "eiger", Address: "10.0.0.1", Host: "dcu", Port: 8000, SeenAt: now},
		{DetectorType: "simulator", Address: "127.0.0.1", Host: "localhost", Port: 50061, SeenAt: now},
	}))

	ts := httptest.NewServer(NewServer(WithStore(mem)).Handler())
	defer ts.Close()

	var all []models.Identity
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/detectors", &all))
	assert.Len(t, all, 2)

	var eigers []models.Identity
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/detectors?type=eiger", &eigers))
	require.Len(t, eigers, 1)
	assert.Equal(t, "dcu", eigers[0].Host)

	var none []models.Identity
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/detectors?type=pilatus", &none))
	assert.Empty(t, none)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/detectors?since=yesterday", nil))
}

func TestPreflight(t *testing.T) {
	ts := httptest.NewServer(NewServer().Handler())
	defer ts.Close()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodOptions, ts.URL+"/api/session", http.NoBody)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func dialStream(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(url, "http") + "/api/session/stream"

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	_ = resp.Body.Close()

	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))

	return ev
}

func TestStreamSession(t *testing.T) {
	srv := NewServer()
	srv.Update(models.Progress{Total: 10, Acquired: 1})

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialStream(t, ts.URL)

	first := readEvent(t, conn)
	assert.Equal(t, EventProgress, first.Type)
	assert.Equal(t, int64(1), first.Progress.Acquired)

	srv.Update(models.Progress{Total: 10, Acquired: 7})

	next := readEvent(t, conn)
	assert.Equal(t, EventProgress, next.Type)
	assert.Equal(t, int64(7), next.Progress.Acquired)

	srv.Fault()

	fault := readEvent(t, conn)
	assert.Equal(t, EventFault, fault.Type)
	assert.Equal(t, int64(7), fault.Progress.Acquired)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(WithMaxConnections(2))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- srv.Serve(ctx, lis) }()

	url := "http://" + lis.Addr().String()

	var st SessionStatus
	require.Eventually(t, func() bool {
		resp, err := http.Get(url + "/api/session") //nolint:noctx // test
		if err != nil {
			return false
		}

		defer resp.Body.Close()

		return json.NewDecoder(resp.Body).Decode(&st) == nil
	}, 2*time.Second, 20*time.Millisecond)

	conn := dialStream(t, url)
	readEvent(t, conn)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}

	// the stream is told to go away
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
