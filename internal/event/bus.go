// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package event

import (
	"slices"
	"sort"
	"sync"
	"sync/atomic"
)

// Bus routes fired events to the listeners subscribed to their TypeID.
//
// Each category holds its listeners sorted by creation order. Category
// slices are replaced on every mutation and never written in place, so Fire
// can iterate a snapshot without holding the lock while handlers run.
// Handlers may therefore subscribe, unsubscribe or fire further events.
type Bus struct {
	mu     sync.RWMutex
	cats   map[TypeID][]*Listener
	closed bool

	order     atomic.Uint64
	fired     atomic.Uint64
	delivered atomic.Uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{cats: make(map[TypeID][]*Listener)}
}

func (b *Bus) nextOrder() uint64 {
	return b.order.Add(1)
}

func search(ls []*Listener, l *Listener) (int, bool) {
	i := sort.Search(len(ls), func(i int) bool { return ls[i].order >= l.order })
	return i, i < len(ls) && ls[i] == l
}

// Subscribe adds l to the category id. It returns false when l is nil,
// closed, bound to another bus, or already subscribed to id, and when the
// bus is closed.
func (b *Bus) Subscribe(id TypeID, l *Listener) bool {
	if l == nil || l.bus != b || l.Closed() {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}

	cat := b.cats[id]
	i, found := search(cat, l)
	if found {
		return false
	}
	b.cats[id] = slices.Insert(slices.Clip(cat), i, l)
	return true
}

// Unsubscribe removes l from the category id. Absent listeners are ignored.
func (b *Bus) Unsubscribe(id TypeID, l *Listener) {
	if l == nil || l.bus != b {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.remove(id, l)
}

// UnsubscribeAll removes l from every category.
func (b *Bus) UnsubscribeAll(l *Listener) {
	if l == nil || l.bus != b {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for id := range b.cats {
		b.remove(id, l)
	}
}

// remove must be called with mu held.
func (b *Bus) remove(id TypeID, l *Listener) {
	cat := b.cats[id]
	i, found := search(cat, l)
	if !found {
		return
	}
	if len(cat) == 1 {
		delete(b.cats, id)
		return
	}
	next := make([]*Listener, 0, len(cat)-1)
	next = append(next, cat[:i]...)
	b.cats[id] = append(next, cat[i+1:]...)
}

// Fire dispatches ev to the listeners subscribed to its TypeID at the
// moment of the call, in creation order, on the caller's goroutine.
// A listener unsubscribed by an earlier handler is skipped. A listener
// subscribed during dispatch does not see ev.
func (b *Bus) Fire(ev Event) {
	id := IDOf(ev)

	b.mu.RLock()
	snapshot := b.cats[id]
	closed := b.closed
	b.mu.RUnlock()

	if closed {
		return
	}
	b.fired.Add(1)

	for _, l := range snapshot {
		if !b.subscribed(id, l) {
			continue
		}
		l.handler.OnEvent(ev)
		b.delivered.Add(1)
	}
}

func (b *Bus) subscribed(id TypeID, l *Listener) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, found := search(b.cats[id], l)
	return found
}

// Listen creates a callback listener subscribed to ids. The caller closes
// it to stop receiving events.
func (b *Bus) Listen(fn func(Event), ids ...TypeID) *Listener {
	l := NewListener(b, HandlerFunc(fn))
	l.Subscribe(ids...)
	return l
}

// Len returns the number of listeners subscribed to id.
func (b *Bus) Len(id TypeID) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.cats[id])
}

// Categories returns the number of non-empty categories.
func (b *Bus) Categories() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.cats)
}

// Listeners returns the number of distinct subscribed listeners.
func (b *Bus) Listeners() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	seen := make(map[*Listener]struct{})
	for _, cat := range b.cats {
		for _, l := range cat {
			seen[l] = struct{}{}
		}
	}
	return len(seen)
}

// Fired returns the number of events fired on the bus.
func (b *Bus) Fired() uint64 { return b.fired.Load() }

// Delivered returns the number of handler invocations.
func (b *Bus) Delivered() uint64 { return b.delivered.Load() }

// Close drops every category. Later subscriptions fail and fired events are
// discarded.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	clear(b.cats)
}
