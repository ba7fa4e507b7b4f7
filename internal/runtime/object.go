// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package runtime

import (
	"github.com/Gurman8r/modus-sub002/internal/event"
	"github.com/Gurman8r/modus-sub002/internal/memory"
)

// Object gives a type access to the runtime services. Embed it.
type Object struct {
	ctx *Context
}

// NewObject binds an Object to ctx.
// Panics if ctx is nil.
func NewObject(ctx *Context) Object {
	if ctx == nil {
		panic("runtime: context cannot be nil")
	}
	return Object{ctx: ctx}
}

// Context returns the bound context.
func (o Object) Context() *Context { return o.ctx }

// Memory returns the context's allocator.
func (o Object) Memory() *memory.Manager { return o.ctx.memory }

// IO returns the context's timing block.
func (o Object) IO() *IO { return o.ctx.io }

// Bus returns the context's event bus.
func (o Object) Bus() *event.Bus { return o.ctx.bus }

// Window returns the context's window.
func (o Object) Window() Window { return o.ctx.window }

// GUI returns the context's GUI.
func (o Object) GUI() GUI { return o.ctx.gui }

// Listener is an Object that also listens on the context's bus.
type Listener struct {
	Object
	*event.Listener
}

// NewListener creates a listener on ctx's bus.
// Panics if ctx or h is nil.
func NewListener(ctx *Context, h event.Handler) *Listener {
	if ctx == nil {
		panic("runtime: context cannot be nil")
	}
	return Attach(ctx, event.NewListener(ctx.bus, h))
}

// Attach binds an existing bus listener to ctx.
// Panics if ctx or l is nil, or if l is bound to another context's bus.
func Attach(ctx *Context, l *event.Listener) *Listener {
	obj := NewObject(ctx)
	if l == nil {
		panic("runtime: listener cannot be nil")
	}
	if l.Bus() != ctx.bus {
		panic("runtime: listener bus does not match context bus")
	}
	return &Listener{Object: obj, Listener: l}
}

// Bus returns the bus the listener is subscribed on.
func (l *Listener) Bus() *event.Bus { return l.Object.Bus() }
