// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package main

import (
	"io"
	"log/slog"

	"github.com/Gurman8r/modus-sub002/internal/config"
	"github.com/Gurman8r/modus-sub002/internal/logging"
)

// setupLogging configures and installs the default slog logger.
func setupLogging(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.SetDefault(logging.Options{
		Service: "modus",
		Version: version,
		Format:  cfg.Format,
		Level:   level,
		Writer:  w,
	}), nil
}
