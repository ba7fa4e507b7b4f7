// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package runtime

import "time"

// EnterEvent is fired once when a run starts, after plugins are installed.
type EnterEvent struct{ Context *Context }

// ExitEvent is fired once when a run ends, before plugins are uninstalled.
type ExitEvent struct{ Context *Context }

// IdleEvent is fired once per loop iteration.
type IdleEvent struct{ Context *Context }

// FrameEvent is fired at the end of each frame with its timing.
type FrameEvent struct {
	Context *Context
	Frame   uint64
	Delta   time.Duration
	FPS     float64
}

func (EnterEvent) EventName() string { return "modus.runtime.enter" }
func (ExitEvent) EventName() string  { return "modus.runtime.exit" }
func (IdleEvent) EventName() string  { return "modus.runtime.idle" }
func (FrameEvent) EventName() string { return "modus.runtime.frame" }
