// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/Gurman8r/modus-sub002/internal/xdg"
)

// flagKeys binds command-line flags to configuration keys.
var flagKeys = map[string]string{
	"plugin":       "plugins.files",
	"allow":        "plugins.allow",
	"watch":        "plugins.watch",
	"builtin":      "plugins.builtin",
	"arena-size":   "memory.arena_size",
	"capacity":     "memory.capacity",
	"leak-cleanup": "memory.leak_cleanup",
	"frames":       "loop.frames",
	"frame-rate":   "loop.frame_rate",
	"log-format":   "log.format",
	"log-level":    "log.level",
	"metrics-addr": "metrics.addr",
}

// RegisterFlags adds the configuration flags to fs. Flag defaults match
// Default.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.StringSlice("plugin", d.Plugins.Files, "module path to install at startup (repeatable)")
	fs.StringSlice("allow", d.Plugins.Allow, "glob pattern a module path must match (repeatable)")
	fs.Bool("watch", d.Plugins.Watch, "reload installed modules when their files change")
	fs.Bool("builtin", d.Plugins.Builtin, "register the modules linked into the binary")
	fs.Int("arena-size", d.Memory.ArenaSize, "bytes reserved for the boot arena")
	fs.Int("capacity", d.Memory.Capacity, "nominal allocator capacity (0 uses the arena size)")
	fs.Bool("leak-cleanup", d.Memory.LeakCleanup, "free leaked blocks at shutdown instead of failing")
	fs.Uint64("frames", d.Loop.Frames, "frames to run before exiting (0 runs until interrupted)")
	fs.Float64("frame-rate", d.Loop.FrameRate, "target frames per second (0 is uncapped)")
	fs.String("log-format", d.Log.Format, "log format (json, text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("metrics-addr", d.Metrics.Addr, "metrics and health listen address (empty disables)")
}

// Locate returns the configuration file to load. An explicit path is
// returned as is. Otherwise the default file under the XDG config directory
// is used when it exists, and "" when it does not.
func Locate(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	path, err := xdg.ConfigFile()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", oops.In("config").With("path", path).Wrap(err)
	}
	return path, nil
}

// Load builds the configuration from defaults, the file at path (if not
// empty) and the flags in fs that were set explicitly. fs may be nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		fk, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Merge(fk); err != nil {
			return nil, oops.In("config").With("path", path).Wrapf(err, "merge config file")
		}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.In("config").Wrapf(err, "load flags")
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.In("config").Code(CodeInvalid).Wrapf(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string) (*koanf.Koanf, error) {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".toml":
		parser = TOML()
	default:
		return nil, oops.In("config").Code(CodeInvalid).With("path", path).
			Errorf("unsupported config format %q", filepath.Ext(path))
	}

	fk := koanf.New(".")
	if err := fk.Load(file.Provider(path), parser); err != nil {
		return nil, oops.In("config").With("path", path).Wrapf(err, "load config file")
	}
	if err := ValidateDocument(fk.Raw()); err != nil {
		return nil, oops.In("config").Code(CodeInvalid).With("path", path).Wrap(err)
	}
	return fk, nil
}
