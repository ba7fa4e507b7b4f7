// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

//go:build !(darwin || freebsd || linux || windows)

package native

import "github.com/samber/oops"

type system struct{}

// System returns a loader that fails every request with ErrUnsupported.
func System() Backend { return system{} }

func (system) Extension() string { return DefaultExtension }

func (system) Load(path string) (Handle, error) {
	return 0, oops.In("native").Code(CodeUnsupported).With("path", path).Wrap(ErrUnsupported)
}

func (system) Lookup(Handle, string) (Symbol, error) {
	return nil, oops.In("native").Code(CodeUnsupported).Wrap(ErrUnsupported)
}

func (system) Free(Handle) error {
	return oops.In("native").Code(CodeUnsupported).Wrap(ErrUnsupported)
}

// Call panics; no system library can be loaded on this platform.
func Call(Addr, ...uintptr) uintptr {
	panic("native: Call is not supported on this platform")
}
