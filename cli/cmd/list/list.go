// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package list

import (
	"errors"
	"fmt"

	"github.com/datarest/datarest/cli/presenter"
	ctxUtils "github.com/datarest/datarest/cli/util/context"
	"github.com/datarest/datarest/client"
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:   "list",
	Short: "List the records of a collection",
	Long: `This command lists one page of a collection as a table.

Usage examples:

1. First page with defaults:

	datarest list --collection books

2. A later page, sorted and trimmed to chosen columns:

	datarest list --collection books --page 2 --size 10 --sort title,desc --fields title,author

3. Raw page output for scripting:

	datarest list --collection books --json
`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCommand(cmd)
	},
}

func runCommand(cmd *cobra.Command) error {
	c, ok := ctxUtils.GetClientFromContext(cmd.Context())
	if !ok {
		return errors.New("failed to get client from context")
	}

	page, err := c.List(cmd.Context(), opts.Collection, client.ListOptions{
		Page: opts.Page,
		Size: opts.Size,
		Sort: opts.Sort,
	})
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}

	if opts.JSON {
		return presenter.JSON(cmd, page)
	}

	presenter.RecordTable(cmd, page, opts.Fields)

	return nil
}
