// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package native

// DefaultExtension is the platform's shared library extension.
const DefaultExtension = ".dll"
