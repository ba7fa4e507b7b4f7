// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package native

import (
	"errors"
	"sync"

	"github.com/samber/oops"
)

type chainEntry struct {
	backend Backend
	handle  Handle
}

type chain struct {
	backends []Backend

	mu     sync.Mutex
	owners map[Handle]chainEntry
	next   Handle
}

// Chain returns a Backend that loads through the first backend able to
// open a path. Lookups and frees go to the backend that loaded the handle.
// The extension is taken from the first backend.
// Panics if no backend is given.
func Chain(backends ...Backend) Backend {
	if len(backends) == 0 {
		panic("native: chain needs at least one backend")
	}
	return &chain{
		backends: backends,
		owners:   make(map[Handle]chainEntry),
	}
}

func (c *chain) Extension() string {
	return c.backends[0].Extension()
}

func (c *chain) Load(path string) (Handle, error) {
	var errs []error
	for _, b := range c.backends {
		h, err := b.Load(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		c.mu.Lock()
		c.next++
		c.owners[c.next] = chainEntry{backend: b, handle: h}
		id := c.next
		c.mu.Unlock()
		return id, nil
	}
	return 0, errors.Join(errs...)
}

func (c *chain) entry(h Handle) (chainEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.owners[h]
	if !ok {
		return chainEntry{}, oops.In("native").With("handle", h).Wrap(ErrNotOpen)
	}
	return e, nil
}

func (c *chain) Lookup(h Handle, name string) (Symbol, error) {
	e, err := c.entry(h)
	if err != nil {
		return nil, err
	}
	return e.backend.Lookup(e.handle, name)
}

func (c *chain) Free(h Handle) error {
	e, err := c.entry(h)
	if err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.owners, h)
	c.mu.Unlock()
	return e.backend.Free(e.handle)
}
