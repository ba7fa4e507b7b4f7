// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

//go:build windows

package native

import (
	"syscall"

	"golang.org/x/sys/windows"
)

type system struct{}

// System returns the operating system loader backed by LoadLibrary.
func System() Backend { return system{} }

func (system) Extension() string { return DefaultExtension }

func (system) Load(path string) (Handle, error) {
	h, err := windows.LoadLibrary(path)
	if err != nil {
		return 0, err
	}
	return Handle(h), nil
}

func (system) Lookup(h Handle, name string) (Symbol, error) {
	addr, err := windows.GetProcAddress(windows.Handle(h), name)
	if err != nil {
		return nil, joinSentinel(ErrSymbolNotFound, err)
	}
	return Addr(addr), nil
}

func (system) Free(h Handle) error {
	return windows.FreeLibrary(windows.Handle(h))
}

// Call invokes the C function at fn with integer-sized arguments and
// returns its first result register.
func Call(fn Addr, args ...uintptr) uintptr {
	r1, _, _ := syscall.SyscallN(uintptr(fn), args...)
	return r1
}
