// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

// Package runtime holds the per-run aggregate of kernel services and the
// loop that drives a run.
//
// A Context is built once by the host and passed down to every subsystem
// and plugin. It does not own the services it references; the host creates
// them before the Context and tears them down after everything holding the
// Context is gone.
package runtime

import (
	"github.com/Gurman8r/modus-sub002/internal/event"
	"github.com/Gurman8r/modus-sub002/internal/memory"
)

// Parts lists the services a Context references. Memory, IO and Bus are
// required; Window and GUI default to headless implementations.
type Parts struct {
	Memory *memory.Manager
	IO     *IO
	Bus    *event.Bus
	Window Window
	GUI    GUI
}

// Context is the immutable bundle of runtime services for one run.
type Context struct {
	memory *memory.Manager
	io     *IO
	bus    *event.Bus
	window Window
	gui    GUI
}

// NewContext builds a Context from p.
// Panics if Memory, IO or Bus is nil.
func NewContext(p Parts) *Context {
	if p.Memory == nil {
		panic("runtime: memory cannot be nil")
	}
	if p.IO == nil {
		panic("runtime: io cannot be nil")
	}
	if p.Bus == nil {
		panic("runtime: bus cannot be nil")
	}
	if p.Window == nil {
		p.Window = NewHeadlessWindow()
	}
	if p.GUI == nil {
		p.GUI = NopGUI{}
	}
	return &Context{
		memory: p.Memory,
		io:     p.IO,
		bus:    p.Bus,
		window: p.Window,
		gui:    p.GUI,
	}
}

// Memory returns the accounting allocator.
func (c *Context) Memory() *memory.Manager { return c.memory }

// IO returns the frame timing block.
func (c *Context) IO() *IO { return c.io }

// Bus returns the event bus.
func (c *Context) Bus() *event.Bus { return c.bus }

// Window returns the window collaborator.
func (c *Context) Window() Window { return c.window }

// GUI returns the GUI collaborator.
func (c *Context) GUI() GUI { return c.gui }
