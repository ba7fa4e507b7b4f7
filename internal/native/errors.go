// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package native

import (
	"errors"
	"fmt"
)

// Error codes attached to oops errors from this package.
const (
	CodeEmptyPath      = "LIBRARY_EMPTY_PATH"
	CodeAlreadyOpen    = "LIBRARY_ALREADY_OPEN"
	CodeNotOpen        = "LIBRARY_NOT_OPEN"
	CodeOpenFailed     = "LIBRARY_OPEN_FAILED"
	CodeCloseFailed    = "LIBRARY_CLOSE_FAILED"
	CodeSymbolNotFound = "SYMBOL_NOT_FOUND"
	CodeUnsupported    = "LIBRARY_UNSUPPORTED"
)

// Sentinel errors for programmatic error checking.
var (
	// ErrEmptyPath is returned when opening an empty path.
	ErrEmptyPath = errors.New("library path is empty")
	// ErrAlreadyOpen is returned when opening a library that is already open.
	ErrAlreadyOpen = errors.New("library already open")
	// ErrNotOpen is returned when using a library that is not open.
	ErrNotOpen = errors.New("library not open")
	// ErrOpenFailed is returned when the backend cannot load a library.
	ErrOpenFailed = errors.New("library open failed")
	// ErrSymbolNotFound is returned when a symbol cannot be resolved.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrUnsupported is returned by the system backend on platforms without
	// dynamic loading.
	ErrUnsupported = errors.New("dynamic loading not supported on this platform")
)

// joinSentinel returns err unchanged when it already matches sentinel,
// otherwise an error matching both.
func joinSentinel(sentinel, err error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
