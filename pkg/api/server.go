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

// Package api serves acquisition progress and discovered detectors over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	"github.com/mfreeman451/detectorradar/pkg/acquisition"
	"github.com/mfreeman451/detectorradar/pkg/models"
	"github.com/mfreeman451/detectorradar/pkg/store"
)

const (
	DefaultMaxConnections = 32
	clientBuffer          = 16
	writeTimeout          = 5 * time.Second
	shutdownTimeout       = 5 * time.Second
	readHeaderTimeout     = 5 * time.Second
)

// Server exposes the current session and the detector store. It is also an
// acquisition.ProgressSink, so the runner feeds it directly.
type Server struct {
	mu       sync.RWMutex
	router   *mux.Router
	store    store.Store
	session  SessionView
	progress models.Progress
	lastErr  *acquisition.Classification
	fault    bool
	updated  time.Time
	clients  map[chan Event]struct{}
	maxConns int
	upgrader websocket.Upgrader
	closing  chan struct{}
	closed   sync.Once
}

// Option configures a Server.
type Option func(*Server)

func WithStore(s store.Store) Option {
	return func(srv *Server) {
		srv.store = s
	}
}

func WithSession(v SessionView) Option {
	return func(srv *Server) {
		srv.session = v
	}
}

// WithMaxConnections caps concurrently accepted connections.
func WithMaxConnections(n int) Option {
	return func(srv *Server) {
		srv.maxConns = n
	}
}

func NewServer(opts ...Option) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		clients:  make(map[chan Event]struct{}),
		maxConns: DefaultMaxConnections,
		closing:  make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(CommonMiddleware, LoggingMiddleware)

	s.router.HandleFunc("/api/session", s.getSession).Methods(http.MethodGet, http.MethodOptions)
	s.router.HandleFunc("/api/session/stream", s.streamSession).Methods(http.MethodGet, http.MethodOptions)
	s.router.HandleFunc("/api/detectors", s.getDetectors).Methods(http.MethodGet, http.MethodOptions)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// SetSession replaces the session reported by the server.
func (s *Server) SetSession(v SessionView) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = v
	s.progress = models.Progress{}
	s.lastErr = nil
	s.fault = false
}

// Update records progress and forwards it to stream clients.
func (s *Server) Update(p models.Progress) {
	s.mu.Lock()
	s.progress = p
	s.updated = time.Now()
	s.mu.Unlock()

	s.broadcast(Event{Type: EventProgress, Progress: p, Time: time.Now()})
}

func (s *Server) Error(c acquisition.Classification) {
	s.mu.Lock()
	s.lastErr = &c
	p := s.progress
	s.mu.Unlock()

	s.broadcast(Event{Type: EventError, Progress: p, Error: &c, Time: time.Now()})
}

func (s *Server) Fault() {
	s.mu.Lock()
	s.fault = true
	p := s.progress
	s.mu.Unlock()

	s.broadcast(Event{Type: EventFault, Progress: p, Time: time.Now()})
}

// Status returns what GET /api/session reports.
func (s *Server) Status() SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := SessionStatus{
		State:    models.StateIdle,
		Progress: s.progress,
		Status:   models.IdleSnapshot(),
		Error:    s.lastErr,
		Fault:    s.fault,
		Updated:  s.updated,
	}

	if s.session != nil {
		st.ID = s.session.ID()
		st.State = s.session.State()
		st.Status = s.session.LastStatus()
	}

	return st
}

// broadcast never blocks; a client whose buffer is full misses the event.
func (s *Server) broadcast(ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for ch := range s.clients {
		select {
		case ch <- ev:
		default:
			zap.S().Debugw("dropping event for slow stream client", "type", ev.Type)
		}
	}
}

func (s *Server) subscribe() chan Event {
	ch := make(chan Event, clientBuffer)

	s.mu.Lock()
	s.clients[ch] = struct{}{}
	s.mu.Unlock()

	return ch
}

func (s *Server) unsubscribe(ch chan Event) {
	s.mu.Lock()
	delete(s.clients, ch)
	s.mu.Unlock()
}

func (s *Server) getSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Status())
}

func (s *Server) getDetectors(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, errNoStore.Error(), http.StatusServiceUnavailable)
		return
	}

	q := r.URL.Query()
	filter := &models.DetectorFilter{
		DetectorType: q.Get("type"),
		Host:         q.Get("host"),
	}

	if since := q.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			http.Error(w, fmt.Sprintf("%v: %v", errBadSince, err), http.StatusBadRequest)
			return
		}

		filter.Since = t
	}

	ids, err := s.store.ListDetectors(r.Context(), filter)
	if err != nil {
		zap.S().Warnw("listing detectors failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)

		return
	}

	if ids == nil {
		ids = []models.Identity{}
	}

	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) streamSession(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Debugw("websocket upgrade failed", "error", err)
		return
	}

	defer func(conn *websocket.Conn) {
		if err := conn.Close(); err != nil {
			zap.S().Debugw("error closing websocket connection", "error", err)
		}
	}(conn)

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	// the reader only notices the peer going away
	gone := make(chan struct{})

	go func() {
		defer close(gone)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	st := s.Status()
	if err := writeEvent(conn, Event{Type: EventProgress, Progress: st.Progress, Error: st.Error, Time: time.Now()}); err != nil {
		return
	}

	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case <-s.closing:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeTimeout))

			return
		case ev := <-ch:
			if err := writeEvent(conn, ev); err != nil {
				zap.S().Debugw("websocket write failed", "error", err)
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, ev Event) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}

	return conn.WriteJSON(ev)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Warnw("error encoding response", "error", err)
	}
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return s.Serve(ctx, lis)
}

// Serve accepts at most maxConns connections at a time on lis until ctx is
// done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	if s.maxConns > 0 {
		lis = netutil.LimitListener(lis, s.maxConns)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		zap.S().Infow("API server listening", "addr", lis.Addr().String())
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
	}

	s.closed.Do(func() { close(s.closing) })

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		// hijacked websocket connections are not tracked by Shutdown
		_ = srv.Close()

		return fmt.Errorf("API server shutdown: %w", err)
	}

	return nil
}
