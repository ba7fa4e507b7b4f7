// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package observability

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Gurman8r/modus-sub002/internal/memory"
)

type fakeRuntime struct {
	stats     memory.Stats
	plugins   int
	listeners int
	fired     uint64
	delivered uint64
	frame     uint64
	fps       float64
}

func (f *fakeRuntime) Stats() memory.Stats { return f.stats }
func (f *fakeRuntime) Len() int            { return f.plugins }
func (f *fakeRuntime) Listeners() int      { return f.listeners }
func (f *fakeRuntime) Fired() uint64       { return f.fired }
func (f *fakeRuntime) Delivered() uint64   { return f.delivered }
func (f *fakeRuntime) Frame() uint64       { return f.frame }
func (f *fakeRuntime) FPS() float64        { return f.fps }

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func stop(t *testing.T, s *Server) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestHandler_Metrics(t *testing.T) {
	rt := &fakeRuntime{
		stats:     memory.Stats{Live: 3, Bytes: 96, Allocations: 7},
		plugins:   2,
		listeners: 4,
		fired:     10,
		delivered: 25,
		frame:     42,
		fps:       59.5,
	}
	s := NewServer("127.0.0.1:0", nil, NewCollector(Sources{Memory: rt, Plugins: rt, Bus: rt, Loop: rt}))
	RecordPluginOperation("install", "ok")

	code, body := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, code)

	for _, want := range []string{
		"# HELP",
		"go_goroutines",
		"modus_memory_live_blocks 3",
		"modus_memory_live_bytes 96",
		"modus_memory_allocations_total 7",
		"modus_plugins_installed 2",
		"modus_bus_listeners 4",
		"modus_bus_events_fired_total 10",
		"modus_bus_deliveries_total 25",
		"modus_loop_frames_total 42",
		"modus_loop_fps 59.5",
		`modus_plugin_operations_total{operation="install",result="ok"}`,
	} {
		assert.Contains(t, body, want)
	}
}

func TestCollector_SkipsNilSourcesAndInfiniteFPS(t *testing.T) {
	rt := &fakeRuntime{fps: posInf()}
	s := NewServer("127.0.0.1:0", nil, NewCollector(Sources{Loop: rt}))

	_, body := get(t, s.Handler(), "/metrics")
	assert.Contains(t, body, "modus_loop_frames_total 0")
	assert.NotContains(t, body, "modus_loop_fps ")
	assert.NotContains(t, body, "modus_memory_live_blocks")
}

func TestHandler_Health(t *testing.T) {
	ready := false
	s := NewServer("127.0.0.1:0", func() bool { return ready })
	h := s.Handler()

	tests := []struct {
		name   string
		path   string
		ready  bool
		status int
		body   string
	}{
		{"liveness", "/healthz/liveness", false, http.StatusOK, "ok\n"},
		{"readiness before loop", "/healthz/readiness", false, http.StatusServiceUnavailable, "not ready\n"},
		{"readiness while running", "/healthz/readiness", true, http.StatusOK, "ok\n"},
		{"unknown route", "/healthz/nope", true, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ready = tt.ready
			code, body := get(t, h, tt.path)
			assert.Equal(t, tt.status, code)
			if tt.body != "" {
				assert.Equal(t, tt.body, body)
			}
		})
	}
}

func TestHandler_ReadinessWithNilChecker(t *testing.T) {
	code, _ := get(t, NewServer("127.0.0.1:0", nil).Handler(), "/healthz/readiness")
	assert.Equal(t, http.StatusOK, code)
}

func TestServer_StartServeStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := NewServer("127.0.0.1:0", nil)
	errCh, err := s.Start()
	require.NoError(t, err)
	require.NotEmpty(t, s.Addr())

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + s.Addr() + "/healthz/liveness")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = s.Start()
	assert.Error(t, err, "double start must fail")

	stop(t, s)
	select {
	case err, ok := <-errCh:
		assert.False(t, ok && err != nil, "unexpected error on shutdown: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error channel to close")
	}
}

func TestServer_StopWithoutStart(t *testing.T) {
	stop(t, NewServer("127.0.0.1:0", nil))
}

func TestServer_ErrorChannelReportsServeErrors(t *testing.T) {
	s := NewServer("127.0.0.1:0", nil)
	errCh, err := s.Start()
	require.NoError(t, err)

	// closing the listener makes Serve fail
	require.NoError(t, s.listener.Close())

	select {
	case serveErr := <-errCh:
		assert.Error(t, serveErr)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for serve error")
	}
	_ = s.Stop(context.Background())
}

func posInf() float64 { return math.Inf(1) }
