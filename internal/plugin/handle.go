// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package plugin

import "github.com/Gurman8r/modus-sub002/pkg/abi"

// Handle owns a plugin instance reference. It has no destructor: dropping
// a Handle never frees the instance. The only way to free one is to
// Release it and pass the reference to the destructor of the module that
// created it.
type Handle struct {
	ref abi.Ref
}

// Get returns the held reference without giving up ownership.
func (h *Handle) Get() abi.Ref { return h.ref }

// Release gives up ownership and returns the reference.
func (h *Handle) Release() abi.Ref {
	ref := h.ref
	h.ref = 0
	return ref
}

// Reset takes ownership of ref. Any previously held reference is dropped
// without being freed.
func (h *Handle) Reset(ref abi.Ref) { h.ref = ref }

// Empty reports whether the handle holds nothing.
func (h *Handle) Empty() bool { return h.ref == 0 }
