// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package config

const DefaultPath = "datarest.db"

type Config struct {
	// Path to the sqlite database file.
	Path string `json:"path,omitempty"      mapstructure:"path"`

	// CacheDir enables record read caching under this directory.
	CacheDir string `json:"cache_dir,omitempty" mapstructure:"cache_dir"`
}
