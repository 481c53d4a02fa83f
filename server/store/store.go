// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

//nolint:wrapcheck
package store

import (
	"fmt"

	storeconfig "github.com/datarest/datarest/server/store/config"
	"github.com/datarest/datarest/server/store/gormdb"
	"github.com/datarest/datarest/server/store/localfs"
	"github.com/datarest/datarest/server/types"
)

// New creates the repository selected by the configured provider.
func New(cfg storeconfig.Config) (types.RepositoryAPI, error) {
	switch cfg.Provider {
	case storeconfig.ProviderSQLite, "":
		return gormdb.New(cfg.SQLite)
	case storeconfig.ProviderLocalFS:
		return localfs.New(cfg.LocalFS)
	default:
		return nil, fmt.Errorf("unknown store provider: %s", cfg.Provider)
	}
}
