// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

// Package modules holds the modules linked into the modus binary. They
// export the same two symbols as a native module and are installed through
// the plugin manager like any other library.
package modules

import (
	"log/slog"
	"path"

	"github.com/samber/oops"

	"github.com/Gurman8r/modus-sub002/internal/native"
	"github.com/Gurman8r/modus-sub002/pkg/abi"
)

// DefaultDir is the directory builtin modules are registered under.
const DefaultDir = "builtin"

// Names of the builtin modules.
const (
	Echo  = "echo"
	Stats = "stats"
)

// Register exposes every builtin module on b under dir and returns the
// normalized paths keyed by module name.
func Register(b *native.Builtin, dir string) (map[string]string, error) {
	if b == nil {
		panic("modules: builtin backend cannot be nil")
	}
	if dir == "" {
		dir = DefaultDir
	}

	exports := map[string]map[string]native.Symbol{
		Echo: {
			abi.FactorySymbol:    abi.CreateFunc(createEcho),
			abi.DestructorSymbol: abi.DestroyFunc(destroyEcho),
		},
		Stats: {
			abi.FactorySymbol:    abi.CreateFunc(createStats),
			abi.DestructorSymbol: abi.DestroyFunc(destroyStats),
		},
	}

	paths := make(map[string]string, len(exports))
	for name, symbols := range exports {
		p, err := b.Register(path.Join(dir, name), symbols)
		if err != nil {
			return nil, oops.In("modules").With("module", name).Wrap(err)
		}
		paths[name] = p
	}
	return paths, nil
}

// loggerFrom returns the logger passed as userdata, or the default logger.
func loggerFrom(userdata any) *slog.Logger {
	if l, ok := userdata.(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
