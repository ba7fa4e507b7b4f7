// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

// Package host composes one modus run: the boot allocator, the event bus,
// the runtime context, the plugin manager and the main loop.
package host

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"

	"github.com/Gurman8r/modus-sub002/internal/config"
	"github.com/Gurman8r/modus-sub002/internal/event"
	"github.com/Gurman8r/modus-sub002/internal/memory"
	"github.com/Gurman8r/modus-sub002/internal/modules"
	"github.com/Gurman8r/modus-sub002/internal/native"
	"github.com/Gurman8r/modus-sub002/internal/observability"
	"github.com/Gurman8r/modus-sub002/internal/plugin"
	"github.com/Gurman8r/modus-sub002/internal/runtime"
	"github.com/Gurman8r/modus-sub002/pkg/errutil"
)

// Deps holds the replaceable collaborators of a Host. Zero values select
// the production defaults.
type Deps struct {
	Logger *slog.Logger
	// Builtin receives the linked-in modules. A new registry is created
	// when nil.
	Builtin *native.Builtin
	// System loads libraries that are not builtin. Defaults to the
	// platform loader.
	System native.Backend
	Clock  func() time.Time
	Args   []string
	Window runtime.Window
	GUI    runtime.GUI
	// Sleep paces frames. Defaults to a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration)
}

// Host owns every runtime component for a single run.
type Host struct {
	cfg    config.Config
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration)

	arena   *memory.Monotonic
	view    *memory.Passthrough
	mem     *memory.Manager
	bus     *event.Bus
	io      *runtime.IO
	ctx     *runtime.Context
	loop    *runtime.Loop
	builtin *native.Builtin
	plugins *plugin.Manager
	watcher *plugin.Watcher

	runCtx context.Context
	ready  atomic.Bool
	closed atomic.Bool
}

// New builds a host from cfg. Nothing is installed until Run.
func New(cfg config.Config, deps Deps) (*Host, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	builtin := deps.Builtin
	if builtin == nil {
		builtin = native.NewBuiltin()
	}
	system := deps.System
	if system == nil {
		system = native.System()
	}
	sleep := deps.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	if cfg.Plugins.Builtin {
		if _, err := modules.Register(builtin, modules.DefaultDir); err != nil {
			return nil, err
		}
	}

	policy, err := plugin.NewPolicy(cfg.Plugins.Allow)
	if err != nil {
		return nil, err
	}

	var memOpts []memory.Option
	memOpts = append(memOpts, memory.WithLogger(logger))
	if cfg.Memory.LeakCleanup {
		memOpts = append(memOpts, memory.WithLeakCleanup())
	}

	h := &Host{
		cfg:     cfg,
		logger:  logger,
		sleep:   sleep,
		builtin: builtin,
		runCtx:  context.Background(),
	}

	// Boot layering: a fixed arena spilling to the heap, pooled by size
	// class, viewed through a counting passthrough.
	h.arena = memory.NewMonotonic(make([]byte, cfg.Memory.ArenaSize), memory.Heap{})
	h.view = memory.NewPassthrough(memory.NewPool(h.arena), cfg.ArenaCapacity())
	h.mem = memory.NewManager(h.view, memOpts...)

	var ioOpts []runtime.IOOption
	if deps.Clock != nil {
		ioOpts = append(ioOpts, runtime.WithClock(deps.Clock))
	}
	h.bus = event.NewBus()
	h.io = runtime.NewIO(deps.Args, ioOpts...)
	h.ctx = runtime.NewContext(runtime.Parts{
		Memory: h.mem,
		IO:     h.io,
		Bus:    h.bus,
		Window: deps.Window,
		GUI:    deps.GUI,
	})

	h.plugins = plugin.NewManager(h.ctx,
		plugin.WithBackend(native.Chain(builtin, system)),
		plugin.WithLogger(logger),
		plugin.WithPolicy(policy),
		plugin.WithUninstallHook(h.unwatch),
	)

	if cfg.Plugins.Watch {
		w, err := plugin.NewWatcher(plugin.WithWatcherLogger(logger))
		if err != nil {
			_ = h.plugins.Close(context.Background())
			return nil, err
		}
		h.watcher = w
	}

	h.loop = runtime.NewLoop(h.ctx, h.condition)
	h.loop.OnEnter(h.enter)
	h.loop.OnIdle(h.idle)
	h.loop.OnExit(h.exit)
	return h, nil
}

// Context returns the runtime context shared with plugins.
func (h *Host) Context() *runtime.Context { return h.ctx }

// Plugins returns the plugin manager.
func (h *Host) Plugins() *plugin.Manager { return h.plugins }

// Loop returns the main loop. Subsystems may be inserted before Run.
func (h *Host) Loop() *runtime.Loop { return h.loop }

// Builtin returns the registry of linked-in modules.
func (h *Host) Builtin() *native.Builtin { return h.builtin }

// Watcher returns the library file watcher, or nil when watching is off.
func (h *Host) Watcher() *plugin.Watcher { return h.watcher }

// Ready reports whether the main loop is running.
func (h *Host) Ready() bool { return h.ready.Load() }

// Collector returns a metrics collector over the host's components.
func (h *Host) Collector() *observability.Collector {
	return observability.NewCollector(observability.Sources{
		Memory:  h.mem,
		Plugins: h.plugins,
		Bus:     h.bus,
		Loop:    h.io,
	})
}

// Install installs the configured plugins in order. Failures are logged and
// skipped. It returns the number installed.
func (h *Host) Install(ctx context.Context) int {
	n := 0
	for _, path := range h.cfg.Plugins.Files {
		id := h.plugins.Install(ctx, path, h.logger)
		if id == 0 {
			continue
		}
		n++
		h.watch(id)
	}
	return n
}

// watch adds the library file of id to the watcher when it exists on disk.
func (h *Host) watch(id plugin.ID) {
	if h.watcher == nil {
		return
	}
	d, ok := h.plugins.Details(id)
	if !ok {
		return
	}
	if _, err := os.Stat(d.Path); err != nil {
		h.logger.Debug("plugin not watched", "path", d.Path)
		return
	}
	if err := h.watcher.Add(d.Path); err != nil {
		errutil.LogError(h.logger, "plugin watch failed", err)
	}
}

// unwatch stops watching the library of an uninstalled plugin.
func (h *Host) unwatch(_ plugin.ID, d native.Details) {
	if h.watcher != nil {
		h.watcher.Remove(d.Path)
	}
}

// Run installs the configured plugins and runs the main loop until the
// frame limit is reached, the window closes or ctx is done. Cancellation
// is not an error.
func (h *Host) Run(ctx context.Context) error {
	if h.closed.Load() {
		return oops.In("host").Errorf("host is closed")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	h.runCtx = gctx

	h.Install(gctx)

	if h.watcher != nil {
		g.Go(func() error { return h.watcher.Run(gctx) })
	}
	g.Go(func() error {
		defer cancel()
		err := h.loop.Process(gctx)
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return nil
		}
		return err
	})

	err := g.Wait()
	if errors.Is(err, runtime.ErrLoopCondition) {
		h.logger.Info("main loop condition false on entry")
		return nil
	}
	return err
}

func (h *Host) condition() bool {
	if !h.ctx.Window().IsOpen() {
		return false
	}
	return h.cfg.Loop.Frames == 0 || h.io.Frame() < h.cfg.Loop.Frames
}

func (h *Host) enter() {
	h.ready.Store(true)
	h.logger.Info("runtime started",
		"session", h.io.Session().String(),
		"plugins", h.plugins.Len())
	h.bus.Fire(runtime.EnterEvent{Context: h.ctx})
}

func (h *Host) exit() {
	h.bus.Fire(runtime.ExitEvent{Context: h.ctx})
	h.ready.Store(false)
	h.logger.Info("runtime stopped",
		"frames", h.io.Frame(),
		"uptime", h.io.Uptime())
}

// idle runs one frame.
func (h *Host) idle() {
	started := time.Now()
	end := h.io.BeginFrame()

	win, gui := h.ctx.Window(), h.ctx.GUI()
	win.PollEvents()
	if h.watcher != nil {
		for _, id := range h.plugins.ReloadChanged(h.runCtx, h.watcher) {
			h.watch(id)
		}
	}

	gui.NewFrame()
	h.bus.Fire(runtime.IdleEvent{Context: h.ctx})
	h.bus.Fire(runtime.FrameEvent{
		Context: h.ctx,
		Frame:   h.io.Frame() + 1,
		Delta:   h.io.Delta(),
		FPS:     h.io.FPS(),
	})
	gui.RenderFrame()
	win.SwapBuffers()

	if rate := h.cfg.Loop.FrameRate; rate > 0 {
		budget := time.Duration(float64(time.Second) / rate)
		if rest := budget - time.Since(started); rest > 0 {
			h.sleep(h.runCtx, rest)
		}
	}
	end()
}

// Close uninstalls every plugin, most recent first, closes the bus and
// verifies that every allocation was returned.
func (h *Host) Close(ctx context.Context) error {
	if h.closed.Swap(true) {
		return nil
	}

	var errs []error
	if h.watcher != nil {
		if err := h.watcher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := h.plugins.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	h.bus.Close()
	if err := h.mem.Close(); err != nil {
		errs = append(errs, err)
	}
	h.logger.Info("host closed",
		"arena_used", h.arena.Used(),
		"arena_capacity", h.arena.Capacity(),
		"live_bytes", h.view.Used())
	return errors.Join(errs...)
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
