// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package config

import (
	"github.com/knadh/koanf/v2"
	"github.com/pelletier/go-toml/v2"
)

// tomlParser implements koanf.Parser for TOML documents.
type tomlParser struct{}

// TOML returns a koanf parser for TOML files.
func TOML() koanf.Parser { return tomlParser{} }

// Unmarshal parses a TOML document into a nested map.
func (tomlParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := toml.Unmarshal(b, &out); err != nil {
		return nil, err //nolint:wrapcheck // koanf wraps parser errors with the provider
	}
	if out == nil {
		out = make(map[string]interface{})
	}
	return out, nil
}

// Marshal renders a nested map as TOML.
func (tomlParser) Marshal(m map[string]interface{}) ([]byte, error) {
	return toml.Marshal(m) //nolint:wrapcheck // koanf wraps parser errors with the provider
}
