// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package plugin

import (
	"github.com/Gurman8r/modus-sub002/internal/event"
	"github.com/Gurman8r/modus-sub002/internal/runtime"
	"github.com/Gurman8r/modus-sub002/pkg/abi"
)

// Plugin is the base for modules written in Go and linked into the host.
// It listens on the manager's runtime bus and keeps the userdata the
// module was installed with. A module's factory builds its instance around
// a Plugin and its destructor calls Close.
type Plugin struct {
	*runtime.Listener
	manager  *Manager
	userdata any
}

// NewPlugin resolves the host and user references passed to a factory.
// Panics if host does not name a live manager.
func NewPlugin(host, user abi.Ref, h event.Handler) *Plugin {
	m := FromRef(host)
	if m == nil {
		panic("plugin: host reference does not name a manager")
	}
	return &Plugin{
		Listener: runtime.NewListener(m.ctx, h),
		manager:  m,
		userdata: m.UserData(user),
	}
}

// Manager returns the manager that installed the plugin.
func (p *Plugin) Manager() *Manager { return p.manager }

// UserData returns the userdata passed to Install.
func (p *Plugin) UserData() any { return p.userdata }
