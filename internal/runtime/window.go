// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package runtime

import "sync/atomic"

// Window is the narrow view of a platform window the loop needs.
type Window interface {
	IsOpen() bool
	PollEvents()
	SwapBuffers()
	Close()
}

// GUI is the narrow view of an immediate-mode GUI the loop needs.
type GUI interface {
	NewFrame()
	RenderFrame()
}

// HeadlessWindow is a Window with no display. It stays open until closed
// and counts polls and swaps.
type HeadlessWindow struct {
	closed atomic.Bool
	polls  atomic.Uint64
	swaps  atomic.Uint64
}

// NewHeadlessWindow returns an open headless window.
func NewHeadlessWindow() *HeadlessWindow { return &HeadlessWindow{} }

// IsOpen reports whether Close has not been called.
func (w *HeadlessWindow) IsOpen() bool { return !w.closed.Load() }

// PollEvents counts a poll.
func (w *HeadlessWindow) PollEvents() { w.polls.Add(1) }

// SwapBuffers counts a swap.
func (w *HeadlessWindow) SwapBuffers() { w.swaps.Add(1) }

// Close closes the window.
func (w *HeadlessWindow) Close() { w.closed.Store(true) }

// Polls returns the number of PollEvents calls.
func (w *HeadlessWindow) Polls() uint64 { return w.polls.Load() }

// Swaps returns the number of SwapBuffers calls.
func (w *HeadlessWindow) Swaps() uint64 { return w.swaps.Load() }

// NopGUI is a GUI that draws nothing.
type NopGUI struct{}

// NewFrame does nothing.
func (NopGUI) NewFrame() {}

// RenderFrame does nothing.
func (NopGUI) RenderFrame() {}
