// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package serve

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/datarest/datarest/server"
	"github.com/datarest/datarest/server/config"
	"github.com/datarest/datarest/utils/logging"
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:   "serve",
	Short: "Run the record server",
	Long: `This command runs the record server until interrupted.

Configuration is read from the environment. Common settings:

	DATAREST_LISTEN_ADDRESS   address to serve on (default 0.0.0.0:8888)
	DATAREST_COLLECTIONS      comma-separated collection names
	DATAREST_COLLECTIONS_FILE YAML file with collection descriptors
	DATAREST_STORE_PROVIDER   record store backend (default localfs)

Usage example:

	DATAREST_COLLECTIONS=books,authors datarest serve
`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCommand(cmd)
	},
}

func runCommand(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err //nolint:wrapcheck
	}

	if cfg.LogLevel != "" {
		logging.SetLevel(cfg.LogLevel)
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx) //nolint:wrapcheck
}
