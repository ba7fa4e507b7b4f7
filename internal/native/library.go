// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package native

import (
	"path/filepath"

	"github.com/samber/oops"
)

// Details describes a library's file.
type Details struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Extension string `json:"extension"`
}

// Library is one loaded shared library. It is either closed (no handle,
// empty path, zero identity) or open with all three set.
//
// Library is not safe for concurrent use.
type Library struct {
	backend Backend
	handle  Handle
	open    bool
	path    string
	id      uint64
	symbols map[string]Symbol
}

// NewLibrary creates a closed library that loads through backend.
// Panics if backend is nil.
func NewLibrary(backend Backend) *Library {
	if backend == nil {
		panic("native: backend cannot be nil")
	}
	return &Library{backend: backend}
}

// Open loads the library at path. The path is normalized first and the
// identity is derived from the normalized form. On failure the library
// stays closed.
func (l *Library) Open(path string) error {
	if l.open {
		return oops.In("native").
			Code(CodeAlreadyOpen).
			With("path", l.path).
			Wrap(ErrAlreadyOpen)
	}
	if path == "" {
		return oops.In("native").Code(CodeEmptyPath).Wrap(ErrEmptyPath)
	}

	norm, err := Normalize(path, l.backend.Extension())
	if err != nil {
		return oops.In("native").
			Code(CodeOpenFailed).
			With("path", path).
			Wrapf(err, "normalize library path")
	}

	h, err := l.backend.Load(norm)
	if err != nil {
		return oops.In("native").
			Code(CodeOpenFailed).
			With("path", norm).
			Wrap(joinSentinel(ErrOpenFailed, err))
	}

	l.handle = h
	l.open = true
	l.path = norm
	l.id = Identify(norm)
	l.symbols = make(map[string]Symbol)
	return nil
}

// Close frees the library and returns it to the closed state. The state is
// reset even when the backend reports an error.
func (l *Library) Close() error {
	if !l.open {
		return oops.In("native").Code(CodeNotOpen).Wrap(ErrNotOpen)
	}

	h, path := l.handle, l.path
	l.handle = 0
	l.open = false
	l.path = ""
	l.id = 0
	l.symbols = nil

	if err := l.backend.Free(h); err != nil {
		return oops.In("native").
			Code(CodeCloseFailed).
			With("path", path).
			Wrapf(err, "free library")
	}
	return nil
}

// Resolve looks up a symbol by name. Successful lookups are cached for the
// lifetime of the open library; failures are not.
func (l *Library) Resolve(name string) (Symbol, error) {
	if !l.open {
		return nil, oops.In("native").
			Code(CodeNotOpen).
			With("symbol", name).
			Wrap(ErrNotOpen)
	}
	if sym, ok := l.symbols[name]; ok {
		return sym, nil
	}

	sym, err := l.backend.Lookup(l.handle, name)
	if err != nil {
		return nil, oops.In("native").
			Code(CodeSymbolNotFound).
			With("path", l.path).
			With("symbol", name).
			Wrap(joinSentinel(ErrSymbolNotFound, err))
	}
	l.symbols[name] = sym
	return sym, nil
}

// IsOpen reports whether the library is loaded.
func (l *Library) IsOpen() bool { return l.open }

// Path returns the normalized path, or "" when closed.
func (l *Library) Path() string { return l.path }

// ID returns the identity hash, or 0 when closed.
func (l *Library) ID() uint64 { return l.id }

// Details describes the loaded file. It is the zero value when closed.
func (l *Library) Details() Details {
	if !l.open {
		return Details{}
	}
	return Details{
		Name:      Stem(l.path),
		Path:      l.path,
		Extension: filepath.Ext(l.path),
	}
}

// Backend returns the library's loader.
func (l *Library) Backend() Backend { return l.backend }
