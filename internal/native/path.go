// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package native

import (
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Normalize cleans path, appends ext when the path has no extension, and
// makes it absolute. Two spellings of the same file normalize identically.
func Normalize(path, ext string) (string, error) {
	p := filepath.Clean(path)
	if filepath.Ext(p) == "" && ext != "" {
		p += ext
	}
	return filepath.Abs(p)
}

// Identify hashes a normalized path into a library identity. Zero is never
// returned for a non-empty path.
func Identify(path string) uint64 {
	if path == "" {
		return 0
	}
	id := xxhash.Sum64String(path)
	if id == 0 {
		id = 1
	}
	return id
}

// Stem returns the file name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
