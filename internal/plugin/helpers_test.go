// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package plugin_test

import (
	"fmt"
	"sync"

	"github.com/Gurman8r/modus-sub002/internal/event"
	"github.com/Gurman8r/modus-sub002/internal/memory"
	"github.com/Gurman8r/modus-sub002/internal/native"
	"github.com/Gurman8r/modus-sub002/internal/plugin"
	"github.com/Gurman8r/modus-sub002/internal/runtime"
	"github.com/Gurman8r/modus-sub002/pkg/abi"
)

// journal records factory and destructor calls across modules.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type instance struct {
	user any
}

// fakeModule is an in-process module that owns its instances.
type fakeModule struct {
	name      string
	log       *journal
	fail      bool
	panics    bool
	instances abi.Table[instance]
	host      abi.Ref
	user      abi.Ref

	// called with the host manager from inside the factory and destructor
	onCreate  func(m *plugin.Manager)
	onDestroy func(m *plugin.Manager)
}

func (f *fakeModule) create(host, user abi.Ref) abi.Ref {
	f.host, f.user = host, user
	if f.panics {
		panic("factory exploded")
	}
	if f.fail {
		return 0
	}
	var data any
	if m := plugin.FromRef(host); m != nil {
		data = m.UserData(user)
	}
	ref := f.instances.Put(&instance{user: data})
	f.log.add("create %s", f.name)
	if f.onCreate != nil {
		f.onCreate(plugin.FromRef(host))
	}
	return ref
}

func (f *fakeModule) destroy(host, inst abi.Ref) {
	if f.onDestroy != nil {
		f.onDestroy(plugin.FromRef(host))
	}
	if f.instances.Take(inst) != nil {
		f.log.add("destroy %s", f.name)
	}
}

func (f *fakeModule) symbols() map[string]native.Symbol {
	return map[string]native.Symbol{
		abi.FactorySymbol:    abi.CreateFunc(f.create),
		abi.DestructorSymbol: abi.DestroyFunc(f.destroy),
	}
}

// fixture is a manager over a builtin backend with its own runtime.
type fixture struct {
	mem     *memory.Manager
	bus     *event.Bus
	ctx     *runtime.Context
	builtin *native.Builtin
	manager *plugin.Manager
	log     *journal
	modules map[string]*fakeModule
}

func newFixture(opts ...plugin.Option) *fixture {
	mem := memory.NewManager(nil)
	bus := event.NewBus()
	ctx := runtime.NewContext(runtime.Parts{
		Memory: mem,
		IO:     runtime.NewIO(nil),
		Bus:    bus,
	})
	b := native.NewBuiltin()
	f := &fixture{
		mem:     mem,
		bus:     bus,
		ctx:     ctx,
		builtin: b,
		log:     &journal{},
		modules: make(map[string]*fakeModule),
	}
	f.manager = plugin.NewManager(ctx, append([]plugin.Option{plugin.WithBackend(b)}, opts...)...)
	return f
}

// module registers a fake module under plugins/<name> and returns it.
func (f *fixture) module(name string) *fakeModule {
	m := &fakeModule{name: name, log: f.log}
	if _, err := f.builtin.Register(modulePath(name), m.symbols()); err != nil {
		panic(err)
	}
	f.modules[name] = m
	return m
}

// register exposes arbitrary symbols under plugins/<name>.
func (f *fixture) register(name string, symbols map[string]native.Symbol) {
	if _, err := f.builtin.Register(modulePath(name), symbols); err != nil {
		panic(err)
	}
}

func modulePath(name string) string {
	return "plugins/" + name
}
