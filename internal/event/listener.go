// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package event

import "sync/atomic"

// Handler receives dispatched events.
type Handler interface {
	OnEvent(ev Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ev Event)

// OnEvent calls f(ev).
func (f HandlerFunc) OnEvent(ev Event) { f(ev) }

// Typed adapts fn to a HandlerFunc that ignores events of other types.
func Typed[E any](fn func(E)) HandlerFunc {
	return func(ev Event) {
		if e, ok := ev.(E); ok {
			fn(e)
		}
	}
}

// Listener ties a handler to one bus. Types gain the listener capability by
// holding a *Listener rather than embedding a base class; Close plays the
// part of destruction and removes every subscription.
type Listener struct {
	bus     *Bus
	order   uint64
	handler Handler
	closed  atomic.Bool
}

// NewListener binds h to bus. The bus issues the listener's dispatch order,
// so listeners created earlier are invoked first.
// Panics if bus or h is nil.
func NewListener(bus *Bus, h Handler) *Listener {
	if bus == nil {
		panic("event: bus cannot be nil")
	}
	if h == nil {
		panic("event: handler cannot be nil")
	}
	return &Listener{
		bus:     bus,
		order:   bus.nextOrder(),
		handler: h,
	}
}

// Bus returns the bus the listener is bound to.
func (l *Listener) Bus() *Bus { return l.bus }

// Order returns the listener's dispatch order on its bus.
func (l *Listener) Order() uint64 { return l.order }

// Subscribe registers the listener for each id. It reports whether every
// registration was new; at least one id is required.
func (l *Listener) Subscribe(ids ...TypeID) bool {
	if len(ids) == 0 {
		return false
	}
	ok := true
	for _, id := range ids {
		if !l.bus.Subscribe(id, l) {
			ok = false
		}
	}
	return ok
}

// Unsubscribe removes the listener from each id, or from every category
// when no id is given.
func (l *Listener) Unsubscribe(ids ...TypeID) {
	if len(ids) == 0 {
		l.bus.UnsubscribeAll(l)
		return
	}
	for _, id := range ids {
		l.bus.Unsubscribe(id, l)
	}
}

// Close unsubscribes from all categories. A closed listener can never be
// subscribed again. Close is idempotent.
func (l *Listener) Close() {
	if l.closed.Swap(true) {
		return
	}
	l.bus.UnsubscribeAll(l)
}

// Closed reports whether Close has been called.
func (l *Listener) Closed() bool { return l.closed.Load() }

// Subscribe registers l for events of type E.
func Subscribe[E any](l *Listener) bool {
	return l.Subscribe(TypeOf[E]())
}

// Unsubscribe removes l from events of type E.
func Unsubscribe[E any](l *Listener) {
	l.Unsubscribe(TypeOf[E]())
}
