// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

// Package native abstracts loading a shared library from a path and
// resolving named symbols from it.
//
// The platform loader sits behind the Backend interface. System returns the
// operating system's loader; Builtin serves modules compiled into the host
// binary under a library path; Chain combines backends.
package native

// Handle is a backend-specific handle to a loaded library.
type Handle uintptr

// Addr is the address of a symbol in a natively loaded library.
type Addr uintptr

// Symbol is a resolved symbol: an Addr for system libraries or a Go value
// for builtin modules.
type Symbol any

// Backend loads libraries and resolves their symbols.
type Backend interface {
	// Extension returns the library file extension, including the dot.
	Extension() string
	// Load opens the library at an absolute, normalized path.
	Load(path string) (Handle, error)
	// Lookup resolves name in a loaded library.
	Lookup(h Handle, name string) (Symbol, error)
	// Free releases a loaded library.
	Free(h Handle) error
}
