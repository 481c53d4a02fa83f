// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"errors"
	"fmt"

	"github.com/datarest/datarest/cli/presenter"
	ctxUtils "github.com/datarest/datarest/cli/util/context"
	"github.com/datarest/datarest/client"
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:   "search <field> <value>",
	Short: "Find records by field value",
	Long: `This command finds the records whose document field matches a value.
Matching is case-insensitive and exact.

Usage examples:

1. Search a collection:

	datarest search author "Herman Melville" --collection books

2. Raw page output for scripting:

	datarest search author "Herman Melville" --collection books --json
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return errors.New("a field and a value are required")
		}

		return runCommand(cmd, args[0], args[1])
	},
}

func runCommand(cmd *cobra.Command, field, value string) error {
	c, ok := ctxUtils.GetClientFromContext(cmd.Context())
	if !ok {
		return errors.New("failed to get client from context")
	}

	page, err := c.Search(cmd.Context(), opts.Collection, field, value, client.ListOptions{
		Page: opts.Page,
		Size: opts.Size,
	})
	if err != nil {
		return fmt.Errorf("failed to search records: %w", err)
	}

	if opts.JSON {
		return presenter.JSON(cmd, page)
	}

	presenter.RecordTable(cmd, page, opts.Fields)

	return nil
}
