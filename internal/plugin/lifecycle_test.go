// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package plugin_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/Gurman8r/modus-sub002/internal/event"
	"github.com/Gurman8r/modus-sub002/internal/native"
	"github.com/Gurman8r/modus-sub002/internal/plugin"
	"github.com/Gurman8r/modus-sub002/pkg/abi"
)

type greetEvent struct{ text string }

var _ = Describe("Plugin lifecycle", func() {
	var (
		ctx context.Context
		f   *fixture
	)

	BeforeEach(func() {
		ctx = context.Background()
		f = newFixture()
	})

	AfterEach(func() {
		Expect(f.manager.Close(ctx)).To(Succeed())
		Expect(f.mem.Close()).To(Succeed(), "allocator table must be empty at shutdown")
	})

	Describe("install then uninstall", func() {
		It("leaves no rows, libraries or allocations behind", func() {
			for _, name := range []string{"one", "two", "three"} {
				f.module(name)
				Expect(f.manager.Install(ctx, modulePath(name), nil)).NotTo(BeZero())
			}
			Expect(f.mem.Len()).To(Equal(3))

			f.manager.UninstallAll(ctx)
			Expect(f.manager.Len()).To(BeZero())
			Expect(f.builtin.Loaded()).To(BeZero())
			Expect(f.mem.Len()).To(BeZero())
		})

		It("keeps every instance inside the module that created it", func() {
			a := f.module("a")
			b := f.module("b")
			idA := f.manager.Install(ctx, modulePath("a"), nil)
			idB := f.manager.Install(ctx, modulePath("b"), nil)

			Expect(a.instances.Get(f.manager.Instance(idA))).NotTo(BeNil())
			Expect(b.instances.Get(f.manager.Instance(idB))).NotTo(BeNil())

			Expect(f.manager.Uninstall(ctx, idA)).To(BeTrue())
			Expect(a.instances.Len()).To(BeZero())
			Expect(b.instances.Len()).To(Equal(1))
		})
	})

	Describe("identity", func() {
		It("treats spellings of the same path as one plugin", func() {
			f.module("echo")
			Expect(f.manager.Install(ctx, "plugins/echo", nil)).NotTo(BeZero())
			Expect(f.manager.Install(ctx, "./plugins/../plugins/echo", nil)).To(BeZero())
			Expect(f.manager.Len()).To(Equal(1))
		})

		It("frees the identity on uninstall so the path installs again", func() {
			f.module("echo")
			id := f.manager.Install(ctx, modulePath("echo"), nil)
			Expect(f.manager.Uninstall(ctx, id)).To(BeTrue())
			Expect(f.manager.Install(ctx, modulePath("echo"), nil)).To(Equal(id))
		})
	})

	Describe("in-process plugins", func() {
		It("listen on the runtime bus with their userdata", func() {
			var table abi.Table[plugin.Plugin]
			var heard []string

			f.register("greeter", map[string]native.Symbol{
				abi.FactorySymbol: abi.CreateFunc(func(host, user abi.Ref) abi.Ref {
					var p *plugin.Plugin
					p = plugin.NewPlugin(host, user, event.Typed(func(ev greetEvent) {
						heard = append(heard, p.UserData().(string)+" "+ev.text)
					}))
					if !event.Subscribe[greetEvent](p.Listener.Listener) {
						return 0
					}
					return table.Put(p)
				}),
				abi.DestructorSymbol: abi.DestroyFunc(func(_, inst abi.Ref) {
					if p := table.Take(inst); p != nil {
						p.Close()
					}
				}),
			})

			id := f.manager.Install(ctx, modulePath("greeter"), "hello")
			Expect(id).NotTo(BeZero())

			p := table.Get(f.manager.Instance(id))
			Expect(p).NotTo(BeNil())
			Expect(p.Manager()).To(BeIdenticalTo(f.manager))
			Expect(p.Context()).To(BeIdenticalTo(f.ctx))

			f.bus.Fire(greetEvent{text: "world"})
			Expect(heard).To(Equal([]string{"hello world"}))

			Expect(f.manager.Uninstall(ctx, id)).To(BeTrue())
			f.bus.Fire(greetEvent{text: "again"})
			Expect(heard).To(HaveLen(1))
			Expect(f.bus.Categories()).To(BeZero())
		})

		It("panics when the host reference is not a manager", func() {
			Expect(func() {
				plugin.NewPlugin(0, 0, event.HandlerFunc(func(event.Event) {}))
			}).To(Panic())
		})
	})
})
