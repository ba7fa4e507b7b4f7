// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package modules_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gurman8r/modus-sub002/internal/event"
	"github.com/Gurman8r/modus-sub002/internal/memory"
	"github.com/Gurman8r/modus-sub002/internal/modules"
	"github.com/Gurman8r/modus-sub002/internal/native"
	"github.com/Gurman8r/modus-sub002/internal/plugin"
	"github.com/Gurman8r/modus-sub002/internal/runtime"
)

type harness struct {
	mem     *memory.Manager
	ctx     *runtime.Context
	manager *plugin.Manager
	paths   map[string]string
	out     *bytes.Buffer
	logger  *slog.Logger
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	mem := memory.NewManager(nil)
	ctx := runtime.NewContext(runtime.Parts{
		Memory: mem,
		IO:     runtime.NewIO(nil),
		Bus:    event.NewBus(),
	})
	b := native.NewBuiltin()
	paths, err := modules.Register(b, "")
	require.NoError(t, err)

	out := &bytes.Buffer{}
	h := &harness{
		mem:     mem,
		ctx:     ctx,
		manager: plugin.NewManager(ctx, plugin.WithBackend(b)),
		paths:   paths,
		out:     out,
		logger:  slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}
	t.Cleanup(func() {
		_ = h.manager.Close(context.Background())
	})
	return h
}

func (h *harness) install(t *testing.T, name string) plugin.ID {
	t.Helper()
	id, err := h.manager.TryInstall(context.Background(), h.paths[name], h.logger)
	require.NoError(t, err)
	return id
}

func (h *harness) frame(n uint64, delta time.Duration) {
	h.ctx.Bus().Fire(runtime.FrameEvent{Context: h.ctx, Frame: n, Delta: delta})
}

func TestRegister(t *testing.T) {
	b := native.NewBuiltin()
	paths, err := modules.Register(b, "mods")
	require.NoError(t, err)

	assert.Len(t, paths, 2)
	assert.Contains(t, paths[modules.Echo], "mods")
	assert.ElementsMatch(t, []string{paths[modules.Echo], paths[modules.Stats]}, b.Paths())

	_, err = modules.Register(b, "mods")
	assert.Error(t, err, "registering twice must fail")
}

func TestEcho_LogsRuntimeEvents(t *testing.T) {
	h := newHarness(t)
	id := h.install(t, modules.Echo)

	h.ctx.Bus().Fire(runtime.EnterEvent{Context: h.ctx})
	h.frame(1, time.Millisecond)
	h.ctx.Bus().Fire(runtime.IdleEvent{Context: h.ctx})
	h.ctx.Bus().Fire(runtime.ExitEvent{Context: h.ctx})

	seen, ok := modules.EchoSeen(h.manager.Instance(id))
	require.True(t, ok)
	assert.Equal(t, uint64(3), seen, "idle events are not subscribed")

	logs := h.out.String()
	assert.Contains(t, logs, "runtime entered")
	assert.Contains(t, logs, "module=echo")
	assert.Contains(t, logs, "runtime exited")
}

func TestEcho_UninstallStopsListening(t *testing.T) {
	h := newHarness(t)
	id := h.install(t, modules.Echo)
	ref := h.manager.Instance(id)

	require.True(t, h.manager.Uninstall(context.Background(), id))
	_, ok := modules.EchoSeen(ref)
	assert.False(t, ok)
	assert.Equal(t, 0, h.ctx.Bus().Listeners())
}

func TestStats_Summary(t *testing.T) {
	h := newHarness(t)
	id := h.install(t, modules.Stats)

	for i, d := range []time.Duration{4, 2, 6} {
		h.frame(uint64(i+1), d*time.Millisecond)
	}

	sum, ok := modules.StatsSummary(h.manager.Instance(id))
	require.True(t, ok)
	assert.Equal(t, uint64(3), sum.Frames)
	assert.Equal(t, 2*time.Millisecond, sum.Min)
	assert.Equal(t, 6*time.Millisecond, sum.Max)
	assert.Equal(t, 4*time.Millisecond, sum.Mean)
	assert.Equal(t, 4*time.Millisecond, sum.Recent)

	h.ctx.Bus().Fire(runtime.ExitEvent{Context: h.ctx})
	assert.Contains(t, h.out.String(), "frame statistics")
}

func TestStats_RecentWindowWraps(t *testing.T) {
	h := newHarness(t)
	id := h.install(t, modules.Stats)

	for i := range modules.StatsSamples {
		h.frame(uint64(i+1), time.Second)
	}
	for i := range modules.StatsSamples {
		h.frame(uint64(modules.StatsSamples+i+1), time.Millisecond)
	}

	sum, ok := modules.StatsSummary(h.manager.Instance(id))
	require.True(t, ok)
	assert.Equal(t, uint64(2*modules.StatsSamples), sum.Frames)
	assert.Equal(t, time.Millisecond, sum.Recent)
	assert.Equal(t, time.Second, sum.Max)
}

func TestStats_BufferFromSharedAllocator(t *testing.T) {
	h := newHarness(t)
	before := h.mem.Stats()

	id := h.install(t, modules.Stats)
	during := h.mem.Stats()
	assert.Greater(t, during.Bytes, before.Bytes+modules.StatsSamples*8-1)

	require.True(t, h.manager.Uninstall(context.Background(), id))
	after := h.mem.Stats()
	assert.Equal(t, before.Live, after.Live)
	assert.Equal(t, before.Bytes, after.Bytes)
	assert.NoError(t, h.mem.Close())
}
