// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package config

import (
	"log/slog"
	"strings"

	"github.com/samber/oops"
)

// ParseLevel maps a configured level name to a slog level. An empty name is
// info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, oops.In("config").Code(CodeInvalid).With("level", name).Errorf("unknown log level %q", name)
}
