// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gurman8r/modus-sub002/internal/event"
)

type pingEvent struct{ n int }

type pongEvent struct{}

type namedEvent struct{}

func (namedEvent) EventName() string { return "modus.named" }

type recorder struct {
	name string
	log  *[]string
}

func (r recorder) OnEvent(event.Event) { *r.log = append(*r.log, r.name) }

func TestIDOf(t *testing.T) {
	assert.Equal(t, event.TypeID(0), event.IDOf(nil))
	assert.Equal(t, event.IDOf(pingEvent{n: 1}), event.IDOf(pingEvent{n: 2}))
	assert.Equal(t, event.TypeOf[pingEvent](), event.IDOf(pingEvent{}))
	assert.NotEqual(t, event.TypeOf[pingEvent](), event.TypeOf[pongEvent]())
	assert.NotEqual(t, event.TypeOf[pingEvent](), event.TypeOf[*pingEvent]())
}

func TestIDOf_NamedEventsShareID(t *testing.T) {
	type other struct{ namedEvent }

	assert.Equal(t, event.TypeOf[namedEvent](), event.TypeOf[other]())
}

type pointerNamedEvent struct{}

func (*pointerNamedEvent) EventName() string { return "modus.pointer-named" }

func TestTypeOf_PointerEvents(t *testing.T) {
	assert.NotPanics(t, func() { event.TypeOf[*namedEvent]() })
	assert.NotPanics(t, func() { event.TypeOf[*pointerNamedEvent]() })

	assert.NotEqual(t, event.TypeOf[namedEvent](), event.TypeOf[*namedEvent]())
	assert.Equal(t, event.TypeOf[*namedEvent](), event.IDOf(&namedEvent{}))
	assert.Equal(t, event.TypeOf[*namedEvent](), event.IDOf((*namedEvent)(nil)))
	assert.Equal(t, event.TypeOf[*pointerNamedEvent](), event.IDOf(&pointerNamedEvent{}))
	assert.Equal(t, event.TypeID(0), event.TypeOf[event.Event]())
}

func TestFire_PointerAndValueAreDistinct(t *testing.T) {
	bus := event.NewBus()
	var values, pointers []int

	bus.Listen(event.Typed(func(ev pingEvent) {
		values = append(values, ev.n)
	}), event.TypeOf[pingEvent]())
	bus.Listen(event.Typed(func(ev *pingEvent) {
		pointers = append(pointers, ev.n)
	}), event.TypeOf[*pingEvent]())

	bus.Fire(pingEvent{n: 1})
	bus.Fire(&pingEvent{n: 2})
	bus.Fire(&namedEvent{})

	assert.Equal(t, []int{1}, values)
	assert.Equal(t, []int{2}, pointers)
	assert.Equal(t, uint64(2), bus.Delivered())
}

func TestFire_RoutesByCategory(t *testing.T) {
	bus := event.NewBus()
	var log []string

	onlyPing := event.NewListener(bus, recorder{"ping", &log})
	onlyPong := event.NewListener(bus, recorder{"pong", &log})
	both := event.NewListener(bus, recorder{"both", &log})
	require.True(t, event.Subscribe[pingEvent](onlyPing))
	require.True(t, event.Subscribe[pongEvent](onlyPong))
	require.True(t, both.Subscribe(event.TypeOf[pingEvent](), event.TypeOf[pongEvent]()))

	tests := []struct {
		name string
		ev   event.Event
		want []string
	}{
		{"ping", pingEvent{}, []string{"ping", "both"}},
		{"pong", pongEvent{}, []string{"pong", "both"}},
		{"unsubscribed type", namedEvent{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log = nil
			before := bus.Delivered()
			bus.Fire(tt.ev)
			assert.Equal(t, tt.want, log)
			assert.Equal(t, uint64(len(tt.want)), bus.Delivered()-before)
		})
	}
}

func TestFire_CreationOrder(t *testing.T) {
	bus := event.NewBus()
	var log []string

	a := event.NewListener(bus, recorder{"a", &log})
	b := event.NewListener(bus, recorder{"b", &log})
	c := event.NewListener(bus, recorder{"c", &log})

	// subscription order differs from creation order
	require.True(t, event.Subscribe[pingEvent](c))
	require.True(t, event.Subscribe[pingEvent](a))
	require.True(t, event.Subscribe[pingEvent](b))

	bus.Fire(pingEvent{})
	assert.Equal(t, []string{"a", "b", "c"}, log)
	assert.Equal(t, uint64(1), bus.Fired())
	assert.Equal(t, uint64(3), bus.Delivered())
}

func TestFire_EmptyCategory(t *testing.T) {
	bus := event.NewBus()
	var log []string
	l := event.NewListener(bus, recorder{"a", &log})
	event.Subscribe[pingEvent](l)

	bus.Fire(pongEvent{})
	assert.Empty(t, log)
	assert.Equal(t, 0, bus.Len(event.TypeOf[pongEvent]()))
}

func TestSubscribe_Rejections(t *testing.T) {
	bus := event.NewBus()
	other := event.NewBus()
	var log []string

	l := event.NewListener(bus, recorder{"a", &log})
	foreign := event.NewListener(other, recorder{"f", &log})
	id := event.TypeOf[pingEvent]()

	tests := []struct {
		name string
		fn   func() bool
	}{
		{"nil listener", func() bool { return bus.Subscribe(id, nil) }},
		{"foreign listener", func() bool { return bus.Subscribe(id, foreign) }},
		{"duplicate", func() bool { return bus.Subscribe(id, l) }},
		{"no ids", func() bool { return l.Subscribe() }},
	}

	require.True(t, bus.Subscribe(id, l))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, tt.fn())
		})
	}
	assert.Equal(t, 1, bus.Len(id))
}

func TestListener_CloseUnsubscribesEverywhere(t *testing.T) {
	bus := event.NewBus()
	var log []string
	l := event.NewListener(bus, recorder{"a", &log})

	require.True(t, l.Subscribe(event.TypeOf[pingEvent](), event.TypeOf[pongEvent]()))
	assert.Equal(t, 2, bus.Categories())

	l.Close()
	l.Close()
	assert.True(t, l.Closed())
	assert.Equal(t, 0, bus.Categories())

	bus.Fire(pingEvent{})
	bus.Fire(pongEvent{})
	assert.Empty(t, log)
	assert.False(t, event.Subscribe[pingEvent](l), "closed listener must not resubscribe")
}

func TestListener_UnsubscribeNoArgsRemovesAll(t *testing.T) {
	bus := event.NewBus()
	var log []string
	l := event.NewListener(bus, recorder{"a", &log})
	l.Subscribe(event.TypeOf[pingEvent](), event.TypeOf[pongEvent]())

	event.Unsubscribe[pongEvent](l)
	assert.Equal(t, 1, bus.Categories())

	l.Unsubscribe()
	assert.Equal(t, 0, bus.Categories())
	assert.False(t, l.Closed())
	assert.True(t, event.Subscribe[pingEvent](l))
}

func TestFire_RemovalDuringDispatchSkips(t *testing.T) {
	bus := event.NewBus()
	var log []string
	var second *event.Listener

	first := event.NewListener(bus, event.HandlerFunc(func(event.Event) {
		log = append(log, "first")
		second.Close()
	}))
	second = event.NewListener(bus, recorder{"second", &log})

	event.Subscribe[pingEvent](first)
	event.Subscribe[pingEvent](second)

	bus.Fire(pingEvent{})
	assert.Equal(t, []string{"first"}, log)
	assert.Equal(t, 1, bus.Len(event.TypeOf[pingEvent]()))
}

func TestFire_AdditionDuringDispatchDeferred(t *testing.T) {
	bus := event.NewBus()
	var log []string
	late := event.NewListener(bus, recorder{"late", &log})

	early := event.NewListener(bus, event.HandlerFunc(func(event.Event) {
		log = append(log, "early")
		event.Subscribe[pingEvent](late)
	}))
	event.Subscribe[pingEvent](early)

	bus.Fire(pingEvent{})
	assert.Equal(t, []string{"early"}, log)

	bus.Fire(pingEvent{})
	assert.Equal(t, []string{"early", "late", "early"}, log)
}

func TestFire_Reentrant(t *testing.T) {
	bus := event.NewBus()
	var log []string

	bus.Listen(func(ev event.Event) {
		log = append(log, "ping")
		bus.Fire(pongEvent{})
	}, event.TypeOf[pingEvent]())
	bus.Listen(func(event.Event) {
		log = append(log, "pong")
	}, event.TypeOf[pongEvent]())

	bus.Fire(pingEvent{})
	assert.Equal(t, []string{"ping", "pong"}, log)
}

func TestTyped(t *testing.T) {
	bus := event.NewBus()
	var got []int

	l := bus.Listen(event.Typed(func(ev pingEvent) {
		got = append(got, ev.n)
	}), event.TypeOf[pingEvent](), event.TypeOf[pongEvent]())
	defer l.Close()

	bus.Fire(pingEvent{n: 4})
	bus.Fire(pongEvent{})
	bus.Fire(pingEvent{n: 2})
	assert.Equal(t, []int{4, 2}, got)
}

func TestBus_Listeners(t *testing.T) {
	bus := event.NewBus()
	a := bus.Listen(func(event.Event) {}, event.TypeOf[pingEvent](), event.TypeOf[pongEvent]())
	bus.Listen(func(event.Event) {}, event.TypeOf[pingEvent]())

	assert.Equal(t, 2, bus.Listeners())
	a.Close()
	assert.Equal(t, 1, bus.Listeners())
}

func TestBus_Close(t *testing.T) {
	bus := event.NewBus()
	var log []string
	l := event.NewListener(bus, recorder{"a", &log})
	event.Subscribe[pingEvent](l)

	bus.Close()
	bus.Fire(pingEvent{})
	assert.Empty(t, log)
	assert.Equal(t, uint64(0), bus.Fired())
	assert.False(t, event.Subscribe[pingEvent](l))
}

func TestNewListener_Panics(t *testing.T) {
	assert.Panics(t, func() { event.NewListener(nil, event.HandlerFunc(func(event.Event) {})) })
	assert.Panics(t, func() { event.NewListener(event.NewBus(), nil) })
}
