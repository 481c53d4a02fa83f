// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package remove

import (
	"errors"
	"fmt"

	"github.com/datarest/datarest/cli/presenter"
	ctxUtils "github.com/datarest/datarest/cli/util/context"
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a record",
	Long: `This command deletes a record from a collection.

Usage examples:

1. Delete a record:

	datarest delete moby-dick --collection books

2. Guard against concurrent edits with the last seen entity tag:

	datarest delete moby-dick --collection books --etag 3
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return errors.New("exactly one record id is required")
		}

		return runCommand(cmd, args[0])
	},
}

func runCommand(cmd *cobra.Command, id string) error {
	c, ok := ctxUtils.GetClientFromContext(cmd.Context())
	if !ok {
		return errors.New("failed to get client from context")
	}

	if err := c.Delete(cmd.Context(), opts.Collection, id, opts.ETag); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	presenter.Print(cmd, "Record deleted successfully!")

	return nil
}
