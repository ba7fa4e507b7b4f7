// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package plugin

import "errors"

// Error codes attached to oops errors from this package.
const (
	CodeDuplicate     = "PLUGIN_DUPLICATE"
	CodeDenied        = "PLUGIN_DENIED"
	CodeOpenFailed    = "PLUGIN_OPEN_FAILED"
	CodeABIMismatch   = "PLUGIN_ABI_MISMATCH"
	CodeFactoryFailed = "PLUGIN_FACTORY_FAILED"
	CodeAllocFailed   = "PLUGIN_ALLOC_FAILED"
	CodeNotInstalled  = "PLUGIN_NOT_INSTALLED"
	CodeClosed        = "PLUGIN_MANAGER_CLOSED"
	CodeInvalidPolicy = "PLUGIN_INVALID_POLICY"
)

// Sentinel errors for programmatic error checking. Install reports each of
// these as a zero ID; TryInstall returns them.
var (
	// ErrDuplicate is returned when the library is already installed. It is
	// not a failure: storage is unchanged.
	ErrDuplicate = errors.New("plugin already installed")
	// ErrDenied is returned when the policy rejects a library path.
	ErrDenied = errors.New("plugin path denied by policy")
	// ErrOpen is returned when the library cannot be loaded.
	ErrOpen = errors.New("plugin library open failed")
	// ErrABI is returned when the library lacks the factory or destructor.
	ErrABI = errors.New("plugin does not export the module ABI")
	// ErrFactory is returned when the factory yields no instance.
	ErrFactory = errors.New("plugin factory failed")
	// ErrNotInstalled is returned when reloading a path that is not installed.
	ErrNotInstalled = errors.New("plugin not installed")
	// ErrClosed is returned when installing on a closed manager.
	ErrClosed = errors.New("plugin manager is closed")
	// ErrWatcherClosed is returned when using a closed Watcher.
	ErrWatcherClosed = errors.New("plugin watcher is closed")
)
