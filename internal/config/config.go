// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

// Package config loads the modus runtime configuration.
//
// Values are layered: built-in defaults, then an optional YAML or TOML file,
// then command-line flags that were set explicitly.
package config

import (
	"github.com/samber/oops"
)

// CodeInvalid marks a configuration that failed validation.
const CodeInvalid = "CONFIG_INVALID"

// Default sizes for the boot arena.
const (
	DefaultArenaSize = 128 << 20
	DefaultFrameRate = 60
)

// Config is the complete runtime configuration.
type Config struct {
	Plugins PluginsConfig `koanf:"plugins" json:"plugins,omitempty"`
	Memory  MemoryConfig  `koanf:"memory" json:"memory,omitempty"`
	Loop    LoopConfig    `koanf:"loop" json:"loop,omitempty"`
	Log     LogConfig     `koanf:"log" json:"log,omitempty"`
	Metrics MetricsConfig `koanf:"metrics" json:"metrics,omitempty"`
}

// PluginsConfig selects the modules installed at startup.
type PluginsConfig struct {
	Files   []string `koanf:"files" json:"files,omitempty" jsonschema:"description=Module paths installed in order at startup"`
	Allow   []string `koanf:"allow" json:"allow,omitempty" jsonschema:"description=Glob patterns a module path must match; empty allows all"`
	Watch   bool     `koanf:"watch" json:"watch,omitempty" jsonschema:"description=Reload installed modules when their files change"`
	Builtin bool     `koanf:"builtin" json:"builtin,omitempty" jsonschema:"description=Register the modules linked into the binary"`
}

// MemoryConfig sizes the shared allocator.
type MemoryConfig struct {
	ArenaSize   int  `koanf:"arena_size" json:"arena_size,omitempty" jsonschema:"minimum=1,description=Bytes reserved for the boot arena"`
	Capacity    int  `koanf:"capacity" json:"capacity,omitempty" jsonschema:"minimum=0,description=Nominal capacity reported for the allocator; 0 means the arena size"`
	LeakCleanup bool `koanf:"leak_cleanup" json:"leak_cleanup,omitempty" jsonschema:"description=Free leaked blocks at shutdown instead of failing"`
}

// LoopConfig controls the main loop.
type LoopConfig struct {
	Frames    uint64  `koanf:"frames" json:"frames,omitempty" jsonschema:"minimum=0,description=Frames to run before exiting; 0 runs until interrupted"`
	FrameRate float64 `koanf:"frame_rate" json:"frame_rate,omitempty" jsonschema:"minimum=0,description=Target frames per second; 0 is uncapped"`
}

// LogConfig controls log output.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// MetricsConfig controls the observability server.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty" jsonschema:"description=Listen address for metrics and health probes; empty disables"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Plugins: PluginsConfig{Builtin: true},
		Memory:  MemoryConfig{ArenaSize: DefaultArenaSize},
		Loop:    LoopConfig{FrameRate: DefaultFrameRate},
		Log:     LogConfig{Format: "json", Level: "info"},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	errb := oops.In("config").Code(CodeInvalid)

	if c.Memory.ArenaSize <= 0 {
		return errb.With("arena_size", c.Memory.ArenaSize).Errorf("arena size must be positive")
	}
	if c.Memory.Capacity < 0 {
		return errb.With("capacity", c.Memory.Capacity).Errorf("capacity must not be negative")
	}
	if c.Loop.FrameRate < 0 {
		return errb.With("frame_rate", c.Loop.FrameRate).Errorf("frame rate must not be negative")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return errb.With("format", c.Log.Format).Errorf("log format must be 'json' or 'text'")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	for i, f := range c.Plugins.Files {
		if f == "" {
			return errb.With("index", i).Errorf("plugin path must not be empty")
		}
	}
	return nil
}

// ArenaCapacity returns the capacity the allocator reports.
func (c *Config) ArenaCapacity() int {
	if c.Memory.Capacity > 0 {
		return c.Memory.Capacity
	}
	return c.Memory.ArenaSize
}
