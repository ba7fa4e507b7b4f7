// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package plugin

import (
	"path/filepath"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// compiledPattern holds a pattern and its compiled glob.
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Policy restricts which library paths may be installed.
//
// Patterns are matched against the normalized, slash-separated path using
// gobwas/glob with '/' as the separator:
//   - '*' matches within one directory
//   - '**' matches across directories
//
// Examples:
//   - "/opt/modus/plugins/*" allows libraries directly in that directory
//   - "/opt/modus/**" allows anything below /opt/modus
//
// A nil or empty Policy allows every path. Policy is immutable and safe
// for concurrent use.
type Policy struct {
	patterns []compiledPattern
}

// NewPolicy compiles an allow-list. If any pattern is empty or invalid no
// policy is returned.
func NewPolicy(patterns []string) (*Policy, error) {
	compiled := make([]compiledPattern, len(patterns))
	for i, pattern := range patterns {
		if pattern == "" {
			return nil, oops.In("plugin").
				Code(CodeInvalidPolicy).
				With("index", i).
				Errorf("empty allow pattern")
		}
		g, err := glob.Compile(filepath.ToSlash(pattern), '/')
		if err != nil {
			return nil, oops.In("plugin").
				Code(CodeInvalidPolicy).
				With("index", i).
				With("pattern", pattern).
				Wrapf(err, "compile allow pattern")
		}
		compiled[i] = compiledPattern{pattern: pattern, glob: g}
	}
	return &Policy{patterns: compiled}, nil
}

// Allows reports whether path matches any pattern.
func (p *Policy) Allows(path string) bool {
	if p == nil || len(p.patterns) == 0 {
		return true
	}
	slashed := filepath.ToSlash(path)
	for _, c := range p.patterns {
		if c.glob.Match(slashed) {
			return true
		}
	}
	return false
}

// Patterns returns a copy of the source patterns.
func (p *Policy) Patterns() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.patterns))
	for i, c := range p.patterns {
		out[i] = c.pattern
	}
	return out
}
