// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

// Package memory provides the accounting allocator shared by the host and
// every installed plugin, together with the upstream resources it layers over.
//
// The usual process configuration mirrors an early-boot arena:
//
//	arena := memory.NewMonotonic(make([]byte, 128<<20), memory.Heap{})
//	pool := memory.NewPool(arena)
//	view := memory.NewPassthrough(pool, 128<<20)
//	mem := memory.NewManager(view)
package memory

import (
	"sync"

	"github.com/samber/oops"
)

// Resource is an upstream memory resource.
type Resource interface {
	// Allocate returns a zeroed block of exactly size bytes.
	Allocate(size int) ([]byte, error)
	// Deallocate returns a block previously obtained from Allocate.
	Deallocate(b []byte)
}

func invalidSize(size int) error {
	return oops.In("memory").Code(CodeInvalidSize).With("size", size).Errorf("invalid allocation size %d", size)
}

// Heap allocates from the Go heap. Deallocate is a no-op; blocks are
// reclaimed by the collector once unreferenced.
type Heap struct{}

// Allocate returns a new heap block.
func (Heap) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, invalidSize(size)
	}
	return make([]byte, size), nil
}

// Deallocate does nothing.
func (Heap) Deallocate([]byte) {}

// Monotonic is a bump allocator over a fixed buffer. Individual blocks are
// never reclaimed; Release rewinds the whole arena. Requests that do not fit
// are forwarded to the upstream resource, if any.
type Monotonic struct {
	mu       sync.Mutex
	buf      []byte
	off      int
	upstream Resource
}

// NewMonotonic creates an arena over buf. upstream may be nil.
func NewMonotonic(buf []byte, upstream Resource) *Monotonic {
	return &Monotonic{buf: buf, upstream: upstream}
}

// Allocate carves the next size bytes out of the arena.
func (m *Monotonic) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, invalidSize(size)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if size <= len(m.buf)-m.off {
		b := m.buf[m.off : m.off+size : m.off+size]
		m.off += size
		return b, nil
	}
	if m.upstream == nil {
		return nil, oops.In("memory").
			Code(CodeExhausted).
			With("size", size).
			With("free", len(m.buf)-m.off).
			Wrap(ErrExhausted)
	}
	return m.upstream.Allocate(size)
}

// Deallocate is a no-op for arena blocks.
func (m *Monotonic) Deallocate([]byte) {}

// Release rewinds the arena and zeroes the memory handed out so far.
// Every block previously returned becomes invalid.
func (m *Monotonic) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.buf[:m.off])
	m.off = 0
}

// Used returns the number of arena bytes handed out.
func (m *Monotonic) Used() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.off
}

// Capacity returns the arena size.
func (m *Monotonic) Capacity() int {
	return len(m.buf)
}

// Size classes served from the pool's free lists. Larger requests go
// straight to the upstream resource.
const (
	minClass = 16
	maxClass = 64 << 10
)

// Pool keeps per-size-class free lists of power-of-two blocks drawn from an
// upstream resource. Returned blocks are reused rather than handed back.
type Pool struct {
	mu       sync.Mutex
	upstream Resource
	free     map[int][][]byte
}

// NewPool creates a pool over upstream.
func NewPool(upstream Resource) *Pool {
	if upstream == nil {
		panic("memory: pool upstream cannot be nil")
	}
	return &Pool{
		upstream: upstream,
		free:     make(map[int][][]byte),
	}
}

func classOf(size int) int {
	c := minClass
	for c < size {
		c <<= 1
	}
	return c
}

// Allocate returns a block of size bytes whose capacity is its size class.
func (p *Pool) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, invalidSize(size)
	}
	if size > maxClass {
		return p.upstream.Allocate(size)
	}

	class := classOf(size)

	p.mu.Lock()
	defer p.mu.Unlock()

	if list := p.free[class]; len(list) > 0 {
		b := list[len(list)-1]
		p.free[class] = list[:len(list)-1]
		clear(b)
		return b[:size], nil
	}

	b, err := p.upstream.Allocate(class)
	if err != nil {
		return nil, err
	}
	return b[:size], nil
}

// Deallocate puts a pooled block back on its free list.
func (p *Pool) Deallocate(b []byte) {
	c := cap(b)
	if c > maxClass || c < minClass || c&(c-1) != 0 {
		p.upstream.Deallocate(b)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.free[c] = append(p.free[c], b[:c])
}

// Passthrough forwards to an upstream resource while counting live blocks
// and bytes against a nominal capacity.
type Passthrough struct {
	mu       sync.Mutex
	upstream Resource
	capacity int
	count    int
	used     int
}

// NewPassthrough wraps upstream. capacity is informational.
func NewPassthrough(upstream Resource, capacity int) *Passthrough {
	if upstream == nil || capacity <= 0 {
		panic("memory: invalid passthrough parameters")
	}
	return &Passthrough{upstream: upstream, capacity: capacity}
}

// Allocate forwards upstream and counts the block.
func (p *Passthrough) Allocate(size int) ([]byte, error) {
	b, err := p.upstream.Allocate(size)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.count++
	p.used += len(b)
	p.mu.Unlock()
	return b, nil
}

// Deallocate forwards upstream and uncounts the block.
func (p *Passthrough) Deallocate(b []byte) {
	p.mu.Lock()
	p.count--
	p.used -= len(b)
	p.mu.Unlock()

	p.upstream.Deallocate(b)
}

// Count returns the number of live blocks.
func (p *Passthrough) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// Used returns the number of live bytes.
func (p *Passthrough) Used() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.used
}

// Capacity returns the nominal capacity.
func (p *Passthrough) Capacity() int { return p.capacity }

// Free returns the nominal bytes left.
func (p *Passthrough) Free() int { return p.capacity - p.Used() }

// Fraction returns Used as a fraction of Capacity.
func (p *Passthrough) Fraction() float64 {
	return float64(p.Used()) / float64(p.capacity)
}
