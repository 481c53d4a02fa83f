// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"

	"github.com/datarest/datarest/cli/cmd/browse"
	"github.com/datarest/datarest/cli/cmd/create"
	"github.com/datarest/datarest/cli/cmd/get"
	"github.com/datarest/datarest/cli/cmd/list"
	"github.com/datarest/datarest/cli/cmd/remove"
	"github.com/datarest/datarest/cli/cmd/search"
	"github.com/datarest/datarest/cli/cmd/serve"
	"github.com/datarest/datarest/cli/cmd/update"
	ctxUtils "github.com/datarest/datarest/cli/util/context"
	"github.com/datarest/datarest/client"
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:          "datarest",
	Short:        "CLI tool to run and interact with the record server",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// These commands do not talk to the API.
		switch cmd.Name() {
		case serve.Command.Name(), browse.Command.Name():
			return nil
		}

		c, err := client.New(cmd.Context(), client.WithEnvConfig())
		if err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}

		cmd.SetContext(ctxUtils.SetClientForContext(cmd.Context(), c))

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		if c, ok := ctxUtils.GetClientFromContext(cmd.Context()); ok {
			_ = c.Close()
		}
	},
}

func init() {
	RootCmd.AddCommand(
		serve.Command,
		create.Command,
		get.Command,
		list.Command,
		search.Command,
		update.Command,
		remove.Command,
		browse.Command,
	)
}

// Run executes the root command against the given context.
func Run(ctx context.Context) error {
	return RootCmd.ExecuteContext(ctx) //nolint:wrapcheck
}
