// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package config

import (
	gormdbconfig "github.com/datarest/datarest/server/store/gormdb/config"
	localfsconfig "github.com/datarest/datarest/server/store/localfs/config"
)

const (
	ProviderSQLite  = "sqlite"
	ProviderLocalFS = "localfs"

	DefaultProvider = ProviderSQLite
)

type Config struct {
	// Provider selects the storage backend.
	Provider string `json:"provider,omitempty" mapstructure:"provider"`

	SQLite  gormdbconfig.Config  `json:"sqlite,omitempty"  mapstructure:"sqlite"`
	LocalFS localfsconfig.Config `json:"localfs,omitempty" mapstructure:"localfs"`
}
