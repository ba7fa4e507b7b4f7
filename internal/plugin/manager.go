// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

// Package plugin installs and uninstalls modules loaded from shared
// libraries through the two-symbol factory/destructor ABI in pkg/abi.
//
// Each installed module is a row: its library, the factory and destructor
// resolved from that library, and the instance the factory returned. The
// manager only ever hands an instance back to the destructor of the library
// that created it, so allocation and release of an instance always happen
// inside the same module.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Gurman8r/modus-sub002/internal/native"
	"github.com/Gurman8r/modus-sub002/internal/observability"
	"github.com/Gurman8r/modus-sub002/internal/runtime"
	"github.com/Gurman8r/modus-sub002/pkg/abi"
	"github.com/Gurman8r/modus-sub002/pkg/errutil"
)

// ID identifies an installed plugin. It is the identity hash of the
// library's normalized path; zero is the null ID.
type ID uint64

// managers maps host references to live managers so in-process modules can
// reach the manager that created them.
var managers abi.Table[Manager]

// FromRef returns the manager registered under ref, or nil.
func FromRef(ref abi.Ref) *Manager {
	return managers.Get(ref)
}

// Manager owns the installed plugins of one run.
//
// Install, Uninstall and their variants must be called from the goroutine
// that owns the runtime. Queries are safe from any goroutine.
type Manager struct {
	ctx     *runtime.Context
	backend native.Backend
	logger  *slog.Logger
	policy  *Policy
	tracer  trace.Tracer
	backoff func() retry.Backoff
	removed func(ID, native.Details)
	ref     abi.Ref

	users abi.Table[any]

	mu     sync.RWMutex
	rows   table
	busy   map[ID]struct{} // rows whose factory or destructor is running
	closed bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithBackend sets the library loader. The default is native.System().
func WithBackend(b native.Backend) Option {
	return func(m *Manager) {
		m.backend = b
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithPolicy restricts installable paths.
func WithPolicy(p *Policy) Option {
	return func(m *Manager) {
		m.policy = p
	}
}

// WithTracer sets the tracer used for install and uninstall spans.
func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) {
		m.tracer = t
	}
}

// WithReloadBackoff sets how Reload retries a library that cannot be
// opened yet, e.g. while a build is still writing it. next is called once
// per reload since backoffs carry state. The default retries three times
// starting at 50ms.
func WithReloadBackoff(next func() retry.Backoff) Option {
	return func(m *Manager) {
		m.backoff = next
	}
}

// WithUninstallHook sets a function called after a plugin is uninstalled,
// on the goroutine that uninstalled it.
func WithUninstallHook(fn func(ID, native.Details)) Option {
	return func(m *Manager) {
		m.removed = fn
	}
}

// NewManager creates a manager bound to ctx and registers its host
// reference.
// Panics if ctx is nil.
func NewManager(ctx *runtime.Context, opts ...Option) *Manager {
	if ctx == nil {
		panic("plugin: context cannot be nil")
	}
	m := &Manager{
		ctx:    ctx,
		logger: slog.Default(),
		tracer: otel.Tracer("modus/plugin"),
		rows:   newTable(),
		busy:   make(map[ID]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.backend == nil {
		m.backend = native.System()
	}
	if m.backoff == nil {
		m.backoff = func() retry.Backoff {
			return retry.WithMaxRetries(3, retry.NewExponential(50*time.Millisecond))
		}
	}
	m.ref = managers.Put(m)
	return m
}

// Context returns the runtime context plugins are created with.
func (m *Manager) Context() *runtime.Context { return m.ctx }

// Ref returns the host reference passed to every factory and destructor.
func (m *Manager) Ref() abi.Ref { return m.ref }

// Backend returns the library loader.
func (m *Manager) Backend() native.Backend { return m.backend }

// Install installs the library at path and returns its ID, or 0 when
// nothing was installed. Failures are logged; a duplicate is not.
func (m *Manager) Install(ctx context.Context, path string, userdata any) ID {
	id, err := m.TryInstall(ctx, path, userdata)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			m.logger.Debug("plugin already installed", "path", path)
		} else {
			errutil.LogErrorContext(ctx, m.logger, "plugin install failed", err)
		}
		return 0
	}
	return id
}

// TryInstall installs the library at path. userdata is kept with the row
// and reaches the factory as a user reference (0 for nil). On any error no
// row, open library or allocation is left behind.
func (m *Manager) TryInstall(ctx context.Context, path string, userdata any) (id ID, err error) {
	_, span := m.tracer.Start(ctx, "plugin.install",
		trace.WithAttributes(attribute.String("plugin.path", path)))
	defer func() {
		observability.RecordPluginOperation("install", outcome(err))
		if err != nil && !errors.Is(err, ErrDuplicate) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if m.isClosed() {
		return 0, oops.In("plugin").Code(CodeClosed).Wrap(ErrClosed)
	}
	if path == "" {
		return 0, oops.In("plugin").Code(CodeOpenFailed).Wrap(fmt.Errorf("%w: %w", ErrOpen, native.ErrEmptyPath))
	}

	norm, err := native.Normalize(path, m.backend.Extension())
	if err != nil {
		return 0, oops.In("plugin").
			Code(CodeOpenFailed).
			With("path", path).
			Wrap(fmt.Errorf("%w: %w", ErrOpen, err))
	}
	id = ID(native.Identify(norm))
	span.SetAttributes(attribute.Int64("plugin.id", int64(id)))

	if m.Contains(id) {
		return 0, oops.In("plugin").
			Code(CodeDuplicate).
			With("path", norm).
			Wrap(ErrDuplicate)
	}
	if !m.policy.Allows(norm) {
		return 0, oops.In("plugin").
			Code(CodeDenied).
			With("path", norm).
			Wrap(ErrDenied)
	}

	lib := native.NewLibrary(m.backend)
	if err := lib.Open(norm); err != nil {
		return 0, oops.In("plugin").
			Code(CodeOpenFailed).
			With("path", norm).
			Wrap(fmt.Errorf("%w: %w", ErrOpen, err))
	}

	inst, err := m.resolve(lib)
	if err != nil {
		m.closeLibrary(lib)
		return 0, err
	}

	block, err := m.ctx.Memory().Allocate(len(norm))
	if err != nil {
		m.closeLibrary(lib)
		return 0, oops.In("plugin").
			Code(CodeAllocFailed).
			With("path", norm).
			Wrapf(err, "allocate plugin row")
	}
	copy(block, norm)

	var user abi.Ref
	if userdata != nil {
		user = m.users.Put(&userdata)
	}

	m.mu.Lock()
	if _, dup := m.rows.lookup(id); dup {
		m.mu.Unlock()
		m.releaseRow(row{library: lib, user: user, block: block})
		return 0, oops.In("plugin").Code(CodeDuplicate).With("path", norm).Wrap(ErrDuplicate)
	}
	m.rows.push(row{
		id:        id,
		library:   lib,
		details:   lib.Details(),
		installer: inst,
		user:      user,
		userdata:  userdata,
		block:     block,
	})
	m.busy[id] = struct{}{}
	m.mu.Unlock()

	instance := inst.Create(m.ref, user)

	m.mu.Lock()
	delete(m.busy, id)
	i, ok := m.rows.lookup(id)
	if !ok || instance == 0 || m.closed {
		r := row{library: lib, user: user, block: block}
		if ok {
			r = m.rows.erase(i)
		}
		closed := m.closed
		m.mu.Unlock()

		if instance != 0 {
			inst.Destroy(m.ref, instance)
		}
		m.releaseRow(r)
		if closed && instance != 0 {
			return 0, oops.In("plugin").Code(CodeClosed).With("path", norm).Wrap(ErrClosed)
		}
		return 0, oops.In("plugin").
			Code(CodeFactoryFailed).
			With("path", norm).
			Wrap(ErrFactory)
	}
	m.rows.handles[i].Reset(instance)
	m.mu.Unlock()

	m.logger.Info("plugin installed",
		"plugin", lib.Details().Name,
		"path", norm,
		"id", uint64(id))
	return id, nil
}

// resolve binds the factory and destructor exported by lib.
func (m *Manager) resolve(lib *native.Library) (Installer, error) {
	var inst Installer

	sym, err := lib.Resolve(abi.FactorySymbol)
	if err != nil {
		return inst, oops.In("plugin").
			Code(CodeABIMismatch).
			With("path", lib.Path()).
			With("symbol", abi.FactorySymbol).
			Wrap(fmt.Errorf("%w: %w", ErrABI, err))
	}
	create, ok := bindFactory(sym)
	if !ok {
		return inst, oops.In("plugin").
			Code(CodeABIMismatch).
			With("path", lib.Path()).
			With("symbol", abi.FactorySymbol).
			Wrapf(ErrABI, "symbol has type %T", sym)
	}

	sym, err = lib.Resolve(abi.DestructorSymbol)
	if err != nil {
		return inst, oops.In("plugin").
			Code(CodeABIMismatch).
			With("path", lib.Path()).
			With("symbol", abi.DestructorSymbol).
			Wrap(fmt.Errorf("%w: %w", ErrABI, err))
	}
	destroy, ok := bindDestructor(sym)
	if !ok {
		return inst, oops.In("plugin").
			Code(CodeABIMismatch).
			With("path", lib.Path()).
			With("symbol", abi.DestructorSymbol).
			Wrapf(ErrABI, "symbol has type %T", sym)
	}

	return Installer{Create: create, Destroy: destroy}, nil
}

// Uninstall destroys the plugin's instance with its own module's
// destructor, erases its row and closes its library. It returns false for
// the null ID and unknown IDs, and for a plugin whose own factory or
// destructor is still running.
func (m *Manager) Uninstall(ctx context.Context, id ID) bool {
	_, span := m.tracer.Start(ctx, "plugin.uninstall",
		trace.WithAttributes(attribute.Int64("plugin.id", int64(id))))
	defer span.End()

	m.mu.Lock()
	i, ok := m.rows.lookup(id)
	if !ok {
		m.mu.Unlock()
		return false
	}
	if _, running := m.busy[id]; running {
		m.mu.Unlock()
		m.logger.Debug("plugin busy, uninstall refused", "id", uint64(id))
		return false
	}
	m.busy[id] = struct{}{}
	instance := m.rows.handles[i].Release()
	destroy := m.rows.installers[i].Destroy
	m.mu.Unlock()

	if instance != 0 {
		destroy(m.ref, instance)
	}

	m.mu.Lock()
	delete(m.busy, id)
	i, ok = m.rows.lookup(id)
	if !ok {
		m.mu.Unlock()
		return false
	}
	r := m.rows.erase(i)
	m.mu.Unlock()

	m.releaseRow(r)
	if m.removed != nil {
		m.removed(id, r.details)
	}
	observability.RecordPluginOperation("uninstall", outcome(nil))
	m.logger.Info("plugin uninstalled",
		"plugin", r.details.Name,
		"path", r.details.Path,
		"id", uint64(id))
	return true
}

// UninstallPath uninstalls the library installed from path.
func (m *Manager) UninstallPath(ctx context.Context, path string) bool {
	id, ok := m.idOf(path)
	if !ok {
		return false
	}
	return m.Uninstall(ctx, id)
}

// UninstallAll uninstalls every plugin, most recently installed first.
// Plugins whose factory or destructor is running are left to finish.
func (m *Manager) UninstallAll(ctx context.Context) {
	for {
		m.mu.RLock()
		i, ok := m.rows.back(m.isBusy)
		var id ID
		if ok {
			id = m.rows.ids[i]
		}
		m.mu.RUnlock()

		if !ok || !m.Uninstall(ctx, id) {
			return
		}
	}
}

// Reload uninstalls the library at path and installs it again from disk
// with the same userdata. Code is never swapped in place. Open failures are
// retried with the manager's reload backoff.
func (m *Manager) Reload(ctx context.Context, path string) (ID, error) {
	id, ok := m.idOf(path)
	if !ok {
		return 0, oops.In("plugin").Code(CodeNotInstalled).With("path", path).Wrap(ErrNotInstalled)
	}

	m.mu.RLock()
	var userdata any
	if i, found := m.rows.lookup(id); found {
		userdata = m.rows.userdata[i]
	}
	m.mu.RUnlock()

	m.Uninstall(ctx, id)

	err := retry.Do(ctx, m.backoff(), func(ctx context.Context) error {
		var err error
		id, err = m.TryInstall(ctx, path, userdata)
		if errors.Is(err, ErrOpen) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// outcome labels an operation result for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrDenied):
		return "denied"
	}
	return "error"
}

// releaseRow frees everything a row holds besides its instance.
func (m *Manager) releaseRow(r row) {
	if r.user != 0 {
		m.users.Take(r.user)
	}
	if r.block != nil {
		m.ctx.Memory().Deallocate(r.block)
	}
	if r.library != nil {
		m.closeLibrary(r.library)
	}
}

func (m *Manager) closeLibrary(lib *native.Library) {
	path := lib.Path()
	if err := lib.Close(); err != nil {
		m.logger.Warn("plugin library close failed",
			"path", path,
			"error", err)
	}
}

func (m *Manager) idOf(path string) (ID, bool) {
	if path == "" {
		return 0, false
	}
	norm, err := native.Normalize(path, m.backend.Extension())
	if err != nil {
		return 0, false
	}
	id := ID(native.Identify(norm))
	return id, m.Contains(id)
}

// IsInstalled reports whether the library at path is installed.
func (m *Manager) IsInstalled(path string) bool {
	_, ok := m.idOf(path)
	return ok
}

// Contains reports whether id is installed.
func (m *Manager) Contains(id ID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.rows.lookup(id)
	return ok
}

// Len returns the number of installed plugins.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rows.len()
}

// IDs returns the installed IDs in installation order.
func (m *Manager) IDs() []ID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ID(nil), m.rows.ids...)
}

// Details returns the file details of an installed plugin.
func (m *Manager) Details(id ID) (native.Details, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.rows.lookup(id)
	if !ok {
		return native.Details{}, false
	}
	return m.rows.details[i], true
}

// Instance returns the instance reference held for id, or 0.
func (m *Manager) Instance(id ID) abi.Ref {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.rows.lookup(id)
	if !ok {
		return 0
	}
	return m.rows.handles[i].Get()
}

// UserData returns the userdata behind a user reference passed to a
// factory, or nil.
func (m *Manager) UserData(ref abi.Ref) any {
	v := m.users.Get(ref)
	if v == nil {
		return nil
	}
	return *v
}

// isBusy must be called with mu held.
func (m *Manager) isBusy(id ID) bool {
	_, running := m.busy[id]
	return running
}

func (m *Manager) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// Close uninstalls every plugin and unregisters the host reference. Later
// installs fail with ErrClosed. Close is idempotent.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.UninstallAll(ctx)
	managers.Take(m.ref)
	return nil
}
