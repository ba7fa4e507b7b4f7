// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

// Package abi defines the contract between the plugin manager and a module.
//
// A module exports exactly two symbols:
//
//	modus_plugin_create(host, user) -> instance
//	modus_plugin_destroy(host, instance)
//
// Every value crossing the boundary is a Ref, a plain pointer-sized integer.
// The module allocates its instance in its own memory and hands out only a
// Ref to it; the manager never dereferences an instance and returns it to
// the same module's destructor. A zero instance from the factory means
// failure. Neither function may panic or unwind into the host.
package abi

// Symbol names resolved from every module.
const (
	FactorySymbol    = "modus_plugin_create"
	DestructorSymbol = "modus_plugin_destroy"
)

// Ref is an opaque reference passed across the module boundary.
type Ref uintptr

// CreateFunc is the factory signature. host identifies the manager, user is
// the caller-supplied userdata reference. It returns 0 on failure.
type CreateFunc func(host, user Ref) Ref

// DestroyFunc is the destructor signature. It must release inst.
type DestroyFunc func(host, inst Ref)

// Guard runs create and converts a panic into the failure value, so a
// misbehaving Go module cannot unwind into the host.
func Guard(create CreateFunc) CreateFunc {
	return func(host, user Ref) (inst Ref) {
		defer func() {
			if recover() != nil {
				inst = 0
			}
		}()
		return create(host, user)
	}
}

// GuardDestroy runs destroy and discards a panic.
func GuardDestroy(destroy DestroyFunc) DestroyFunc {
	return func(host, inst Ref) {
		defer func() { _ = recover() }()
		destroy(host, inst)
	}
}
