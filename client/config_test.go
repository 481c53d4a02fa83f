// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

//nolint:testifylint
package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	assert.NoError(t, err)

	assert.Equal(t, DefaultServerAddress, cfg.ServerAddress)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Empty(t, cfg.AuthToken)
	assert.Empty(t, cfg.SpiffeSocketPath)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DATAREST_CLIENT_SERVER_ADDRESS", "https://records.example.com")
	t.Setenv("DATAREST_CLIENT_AUTH_TOKEN", "opensesame")
	t.Setenv("DATAREST_CLIENT_TIMEOUT", "45s")

	cfg, err := LoadConfig()
	assert.NoError(t, err)

	assert.Equal(t, "https://records.example.com", cfg.ServerAddress)
	assert.Equal(t, "opensesame", cfg.AuthToken)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
}
