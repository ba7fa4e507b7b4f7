// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

// Package xdg provides XDG Base Directory paths for modus.
package xdg

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "modus"

// ConfigName is the file name of the default configuration.
const ConfigName = "modus.yaml"

// ConfigDir returns the XDG config directory for modus.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := home()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, appName), nil
}

// ConfigFile returns the path of the default configuration file.
func ConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigName), nil
}

func home() (string, error) {
	if h := os.Getenv("HOME"); h != "" {
		return h, nil
	}
	h, err := os.UserHomeDir()
	if err != nil {
		return "", oops.In("xdg").Wrapf(err, "resolve home directory")
	}
	return h, nil
}
