// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package memory

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"unsafe"

	"github.com/samber/oops"
)

// record tracks one live allocation. The block reference keeps the memory
// reachable until it is deallocated, so an address is never reused while
// its record exists.
type record struct {
	block []byte
	index uint64
	count int
	size  int
}

// Record describes a live allocation.
type Record struct {
	Addr  uintptr
	Index uint64
	Count int
	Size  int
}

// Bytes returns the total size of the allocation.
func (r Record) Bytes() int { return r.Count * r.Size }

// Stats summarizes a manager's table.
type Stats struct {
	Live        int
	Bytes       int
	Allocations uint64
}

// Manager is the accounting allocator. Every live block is recorded by
// address; Close reports whatever is still outstanding.
//
// Manager is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	upstream Resource
	records  map[uintptr]*record
	counter  uint64
	bytes    int
	closed   bool
	cleanup  bool
	logger   *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for leak reports.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithLeakCleanup makes Close release outstanding blocks instead of
// failing. Leaks are still logged.
func WithLeakCleanup() Option {
	return func(m *Manager) {
		m.cleanup = true
	}
}

// NewManager creates an accounting allocator over upstream. A nil upstream
// means the Go heap.
func NewManager(upstream Resource, opts ...Option) *Manager {
	if upstream == nil {
		upstream = Heap{}
	}
	m := &Manager{
		upstream: upstream,
		records:  make(map[uintptr]*record),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func addressOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

// Allocate returns a zeroed block of size bytes.
func (m *Manager) Allocate(size int) ([]byte, error) {
	return m.AllocateN(1, size)
}

// AllocateN returns a zeroed block holding count elements of size bytes.
func (m *Manager) AllocateN(count, size int) ([]byte, error) {
	if count <= 0 || size <= 0 || size > math.MaxInt/count {
		return nil, oops.In("memory").
			Code(CodeInvalidSize).
			With("count", count).
			With("size", size).
			Errorf("invalid allocation of %d x %d bytes", count, size)
	}
	total := count * size

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, oops.In("memory").Code(CodeClosed).Wrap(ErrClosed)
	}

	b, err := m.upstream.Allocate(total)
	if err != nil {
		return nil, oops.In("memory").With("bytes", total).Wrapf(err, "upstream allocation failed")
	}

	addr := addressOf(b)
	if _, live := m.records[addr]; live {
		panic(fmt.Sprintf("memory: upstream returned live block %#x", addr))
	}

	m.counter++
	m.records[addr] = &record{block: b, index: m.counter, count: count, size: size}
	m.bytes += total
	return b, nil
}

// Deallocate releases a block obtained from this manager. The block must be
// live and passed with its original length; anything else is a broken
// invariant and panics.
func (m *Manager) Deallocate(b []byte) {
	if len(b) == 0 {
		panic("memory: deallocate of empty block")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	addr := addressOf(b)
	rec, ok := m.records[addr]
	if !ok {
		panic(fmt.Sprintf("memory: deallocate of unknown block %#x", addr))
	}
	if total := rec.count * rec.size; len(b) != total {
		panic(fmt.Sprintf("memory: deallocate of block %#x with size %d, allocated %d", addr, len(b), total))
	}

	delete(m.records, addr)
	m.bytes -= len(b)
	m.upstream.Deallocate(rec.block)
}

// Reallocate resizes a block. A zero size frees b and returns nil; a nil b
// allocates; shrinking returns b unchanged; growing copies into a new block
// and frees the old one.
func (m *Manager) Reallocate(b []byte, size int) ([]byte, error) {
	switch {
	case size == 0:
		if b != nil {
			m.Deallocate(b)
		}
		return nil, nil
	case b == nil:
		return m.Allocate(size)
	case size <= len(b):
		return b, nil
	}

	grown, err := m.Allocate(size)
	if err != nil {
		return nil, err
	}
	copy(grown, b)
	m.Deallocate(b)
	return grown, nil
}

// Owns reports whether b is a live block of this manager.
func (m *Manager) Owns(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[addressOf(b)]
	return ok
}

// Len returns the number of live allocations.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Stats returns a summary of the allocation table.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Live:        len(m.records),
		Bytes:       m.bytes,
		Allocations: m.counter,
	}
}

// Records returns the live allocations ordered by allocation index.
func (m *Manager) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Record, 0, len(m.records))
	for addr, rec := range m.records {
		out = append(out, Record{Addr: addr, Index: rec.index, Count: rec.count, Size: rec.size})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Close performs the shutdown check. Outstanding allocations are reported
// as ErrLeaked, or released when leak cleanup is enabled. The manager
// rejects allocations afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return oops.In("memory").Code(CodeClosed).Wrap(ErrClosed)
	}
	m.closed = true

	if len(m.records) == 0 {
		return nil
	}

	count, bytes := len(m.records), m.bytes
	if !m.cleanup {
		return oops.In("memory").
			Code(CodeLeak).
			With("count", count).
			With("bytes", bytes).
			Wrap(ErrLeaked)
	}

	m.logger.Warn("releasing leaked allocations",
		"count", count,
		"bytes", bytes)
	for addr, rec := range m.records {
		m.upstream.Deallocate(rec.block)
		delete(m.records, addr)
	}
	m.bytes = 0
	return nil
}
