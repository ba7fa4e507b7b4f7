// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package modules

import (
	"log/slog"
	"sync/atomic"

	"github.com/Gurman8r/modus-sub002/internal/event"
	"github.com/Gurman8r/modus-sub002/internal/plugin"
	"github.com/Gurman8r/modus-sub002/internal/runtime"
	"github.com/Gurman8r/modus-sub002/pkg/abi"
)

// echoModule logs the runtime events it receives.
type echoModule struct {
	*plugin.Plugin
	logger *slog.Logger
	seen   atomic.Uint64
}

var echoes abi.Table[echoModule]

func createEcho(host, user abi.Ref) abi.Ref {
	m := plugin.FromRef(host)
	if m == nil {
		return 0
	}

	e := &echoModule{logger: loggerFrom(m.UserData(user)).With("module", Echo)}
	e.Plugin = plugin.NewPlugin(host, user, e)
	e.Subscribe(
		event.TypeOf[runtime.EnterEvent](),
		event.TypeOf[runtime.ExitEvent](),
		event.TypeOf[runtime.FrameEvent](),
	)
	return echoes.Put(e)
}

func destroyEcho(_, inst abi.Ref) {
	if e := echoes.Take(inst); e != nil {
		e.Close()
	}
}

func (e *echoModule) OnEvent(ev event.Event) {
	e.seen.Add(1)
	switch ev := ev.(type) {
	case runtime.EnterEvent:
		e.logger.Info("runtime entered", "session", ev.Context.IO().Session().String())
	case runtime.ExitEvent:
		e.logger.Info("runtime exited",
			"frames", ev.Context.IO().Frame(),
			"uptime", ev.Context.IO().Uptime(),
			"events", e.seen.Load())
	case runtime.FrameEvent:
		e.logger.Debug("frame", "frame", ev.Frame, "delta", ev.Delta, "fps", ev.FPS)
	}
}

// EchoSeen returns the number of events the echo instance behind ref has
// received.
func EchoSeen(ref abi.Ref) (uint64, bool) {
	e := echoes.Get(ref)
	if e == nil {
		return 0, false
	}
	return e.seen.Load(), true
}
