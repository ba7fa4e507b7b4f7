// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package plugin

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/oops"

	"github.com/Gurman8r/modus-sub002/pkg/errutil"
)

// Watcher observes installed library files and queues the paths of those
// that change on disk. It never touches the manager: the runtime goroutine
// drains the queue and reloads each path with Manager.Reload.
//
// Directories are watched rather than files so that replacing a library
// through rename is still seen.
type Watcher struct {
	fsw    *fsnotify.Watcher
	logger *slog.Logger

	mu      sync.Mutex
	files   map[string]struct{}
	dirs    map[string]int
	pending []string
	queued  map[string]struct{}
	closed  bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the watcher's logger.
func WithWatcherLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = l
	}
}

// NewWatcher creates a watcher with nothing watched.
func NewWatcher(opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, oops.In("plugin").Wrapf(err, "create file watcher")
	}
	w := &Watcher{
		fsw:    fsw,
		logger: slog.Default(),
		files:  make(map[string]struct{}),
		dirs:   make(map[string]int),
		queued: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Add watches the library file at path, which should be the normalized
// path reported in the plugin's Details.
func (w *Watcher) Add(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if _, ok := w.files[path]; ok {
		return nil
	}

	dir := filepath.Dir(path)
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return oops.In("plugin").With("dir", dir).Wrapf(err, "watch plugin directory")
		}
	}
	w.dirs[dir]++
	w.files[path] = struct{}{}
	return nil
}

// Remove stops watching path.
func (w *Watcher) Remove(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.files[path]; !ok {
		return
	}
	delete(w.files, path)

	dir := filepath.Dir(path)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		if !w.closed {
			_ = w.fsw.Remove(dir)
		}
	}
}

// Run forwards file events into the queue until ctx is done or the watcher
// is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("plugin watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}
	path := filepath.Clean(ev.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.files[path]; !ok {
		return
	}
	if _, ok := w.queued[path]; ok {
		return
	}
	w.queued[path] = struct{}{}
	w.pending = append(w.pending, path)
	w.logger.Debug("plugin library changed", "path", path)
}

// Drain returns the paths changed since the last call, in the order they
// were first seen, and clears the queue.
func (w *Watcher) Drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := w.pending
	w.pending = nil
	clear(w.queued)
	return out
}

// Watching returns the number of watched files.
func (w *Watcher) Watching() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.files)
}

// Close stops the watcher. Run returns once the event channels close.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	if err := w.fsw.Close(); err != nil {
		return oops.In("plugin").Wrapf(err, "close file watcher")
	}
	return nil
}

// ReloadChanged drains w and reloads every changed path that is still
// installed. Paths no longer installed stop being watched. It returns the
// IDs that were installed again.
func (m *Manager) ReloadChanged(ctx context.Context, w *Watcher) []ID {
	var ids []ID
	for _, path := range w.Drain() {
		if !m.IsInstalled(path) {
			w.Remove(path)
			continue
		}
		id, err := m.Reload(ctx, path)
		if err != nil {
			w.Remove(path)
			errutil.LogError(m.logger, "plugin reload failed", err)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
