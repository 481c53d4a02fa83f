// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package get

import (
	"errors"
	"fmt"

	"github.com/datarest/datarest/cli/presenter"
	ctxUtils "github.com/datarest/datarest/cli/util/context"
	"github.com/datarest/datarest/client"
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch a record and print it as JSON",
	Long: `This command fetches a single record by id.

Usage examples:

1. Fetch a record:

	datarest get moby-dick --collection books

2. Skip the body when a cached copy is still fresh:

	datarest get moby-dick --collection books --etag 3
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

	rec, err := c.Get(cmd.Context(), opts.Collection, id, opts.ETag)
	if errors.Is(err, client.ErrNotModified) {
		presenter.Print(cmd, "Record is unchanged.")

		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get record: %w", err)
	}

	return presenter.JSON(cmd, map[string]any{
		"id":       rec.ID,
		"etag":     rec.ETag,
		"document": rec.Document,
	})
}
