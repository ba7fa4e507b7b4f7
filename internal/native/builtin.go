// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package native

import (
	"sort"
	"sync"

	"github.com/samber/oops"
)

// Builtin is a Backend for modules compiled into the host binary. Each
// module is registered under a library path together with its exported
// symbols, and loads exactly like a file on disk would.
//
// Builtin is safe for concurrent use.
type Builtin struct {
	mu      sync.Mutex
	ext     string
	modules map[string]map[string]Symbol
	loaded  map[Handle]string
	next    Handle
}

// NewBuiltin creates an empty registry using the platform extension.
func NewBuiltin() *Builtin {
	return &Builtin{
		ext:     DefaultExtension,
		modules: make(map[string]map[string]Symbol),
		loaded:  make(map[Handle]string),
	}
}

// Register exposes symbols under path and returns the normalized path.
func (b *Builtin) Register(path string, symbols map[string]Symbol) (string, error) {
	if path == "" {
		return "", oops.In("native").Code(CodeEmptyPath).Wrap(ErrEmptyPath)
	}
	norm, err := Normalize(path, b.ext)
	if err != nil {
		return "", oops.In("native").With("path", path).Wrapf(err, "normalize builtin path")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.modules[norm]; ok {
		return "", oops.In("native").With("path", norm).Errorf("builtin module already registered")
	}
	table := make(map[string]Symbol, len(symbols))
	for name, sym := range symbols {
		table[name] = sym
	}
	b.modules[norm] = table
	return norm, nil
}

// Paths returns the registered module paths in sorted order.
func (b *Builtin) Paths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, 0, len(b.modules))
	for p := range b.modules {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Extension returns the platform library extension.
func (b *Builtin) Extension() string { return b.ext }

// Load returns a fresh handle for a registered module.
func (b *Builtin) Load(path string) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.modules[path]; !ok {
		return 0, oops.In("native").With("path", path).Errorf("no builtin module registered")
	}
	b.next++
	b.loaded[b.next] = path
	return b.next, nil
}

// Lookup resolves an exported symbol of a loaded module.
func (b *Builtin) Lookup(h Handle, name string) (Symbol, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	path, ok := b.loaded[h]
	if !ok {
		return nil, oops.In("native").With("handle", h).Wrap(ErrNotOpen)
	}
	sym, ok := b.modules[path][name]
	if !ok || sym == nil {
		return nil, ErrSymbolNotFound
	}
	return sym, nil
}

// Free releases a handle.
func (b *Builtin) Free(h Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.loaded[h]; !ok {
		return oops.In("native").With("handle", h).Wrap(ErrNotOpen)
	}
	delete(b.loaded, h)
	return nil
}

// Loaded returns the number of live handles.
func (b *Builtin) Loaded() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.loaded)
}
