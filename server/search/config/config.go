// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package config

type Config struct {
	// Enabled turns the search index and its routes on.
	Enabled bool `json:"enabled,omitempty" mapstructure:"enabled"`

	// Dir persists the index on disk. Empty keeps it in memory.
	Dir string `json:"dir,omitempty" mapstructure:"dir"`
}
