// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package abi

import "sync"

// Table is a module-local instance table. A Go module stores its instances
// here and hands out the returned Ref; its destructor takes the instance
// back out. Refs are never reused within a table.
//
// Table is safe for concurrent use.
type Table[T any] struct {
	mu    sync.Mutex
	next  Ref
	items map[Ref]*T
}

// Put stores v and returns its Ref, never 0.
func (t *Table[T]) Put(v *T) Ref {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.items == nil {
		t.items = make(map[Ref]*T)
	}
	t.next++
	t.items[t.next] = v
	return t.next
}

// Get returns the instance for ref, or nil.
func (t *Table[T]) Get(ref Ref) *T {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.items[ref]
}

// Take removes and returns the instance for ref, or nil.
func (t *Table[T]) Take(ref Ref) *T {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.items[ref]
	if !ok {
		return nil
	}
	delete(t.items, ref)
	return v
}

// Len returns the number of live instances.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}
