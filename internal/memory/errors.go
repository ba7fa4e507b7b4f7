// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package memory

import "errors"

// Error codes attached to oops errors from this package.
const (
	CodeInvalidSize = "MEMORY_INVALID_SIZE"
	CodeExhausted   = "MEMORY_EXHAUSTED"
	CodeLeak        = "MEMORY_LEAK"
	CodeClosed      = "MEMORY_CLOSED"
)

// Sentinel errors for programmatic error checking.
var (
	// ErrExhausted is returned when a resource cannot satisfy a request.
	ErrExhausted = errors.New("memory resource exhausted")
	// ErrLeaked is returned by Manager.Close when allocations are still live.
	ErrLeaked = errors.New("memory leaks detected")
	// ErrClosed is returned when using a manager after Close.
	ErrClosed = errors.New("memory manager is closed")
)
