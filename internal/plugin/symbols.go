// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package plugin

import (
	"github.com/Gurman8r/modus-sub002/internal/native"
	"github.com/Gurman8r/modus-sub002/pkg/abi"
)

// Installer is the factory and destructor pair resolved from one library.
type Installer struct {
	Create  abi.CreateFunc
	Destroy abi.DestroyFunc
}

// bindFactory converts a resolved symbol into a factory. C symbols are
// called through the platform trampoline; Go symbols are guarded so a panic
// reads as a failed create.
func bindFactory(sym native.Symbol) (abi.CreateFunc, bool) {
	switch fn := sym.(type) {
	case abi.CreateFunc:
		if fn == nil {
			return nil, false
		}
		return abi.Guard(fn), true
	case func(host, user abi.Ref) abi.Ref:
		if fn == nil {
			return nil, false
		}
		return abi.Guard(fn), true
	case native.Addr:
		if fn == 0 {
			return nil, false
		}
		return func(host, user abi.Ref) abi.Ref {
			return abi.Ref(native.Call(fn, uintptr(host), uintptr(user)))
		}, true
	}
	return nil, false
}

func bindDestructor(sym native.Symbol) (abi.DestroyFunc, bool) {
	switch fn := sym.(type) {
	case abi.DestroyFunc:
		if fn == nil {
			return nil, false
		}
		return abi.GuardDestroy(fn), true
	case func(host, inst abi.Ref):
		if fn == nil {
			return nil, false
		}
		return abi.GuardDestroy(fn), true
	case native.Addr:
		if fn == 0 {
			return nil, false
		}
		return func(host, inst abi.Ref) {
			native.Call(fn, uintptr(host), uintptr(inst))
		}, true
	}
	return nil, false
}
