// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package config

type Config struct {
	// Dir is the root directory where collections are stored.
	Dir string `json:"dir,omitempty" mapstructure:"dir"`
}
