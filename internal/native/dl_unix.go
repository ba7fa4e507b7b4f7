// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

//go:build darwin || freebsd || linux

package native

import (
	"github.com/ebitengine/purego"
)

type system struct{}

// System returns the operating system loader. Libraries are opened with
// dlopen(RTLD_NOW|RTLD_LOCAL) and symbols resolve to their Addr.
func System() Backend { return system{} }

func (system) Extension() string { return DefaultExtension }

func (system) Load(path string) (Handle, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return 0, err
	}
	return Handle(h), nil
}

func (system) Lookup(h Handle, name string) (Symbol, error) {
	addr, err := purego.Dlsym(uintptr(h), name)
	if err != nil {
		return nil, joinSentinel(ErrSymbolNotFound, err)
	}
	if addr == 0 {
		return nil, ErrSymbolNotFound
	}
	return Addr(addr), nil
}

func (system) Free(h Handle) error {
	return purego.Dlclose(uintptr(h))
}

// Call invokes the C function at fn with integer-sized arguments and
// returns its first result register.
func Call(fn Addr, args ...uintptr) uintptr {
	r1, _, _ := purego.SyscallN(uintptr(fn), args...)
	return r1
}
