// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package create

import (
	"errors"
	"fmt"
	"io"

	"github.com/datarest/datarest/cli/presenter"
	ctxUtils "github.com/datarest/datarest/cli/util/context"
	"github.com/datarest/datarest/cli/util/record"
	"github.com/datarest/datarest/client"
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:   "create [file]",
	Short: "Create a record from a JSON or YAML document",
	Long: `This command stores a new record in a collection and prints its id.

Usage examples:

1. From a document file:

	datarest create book.json --collection books

2. From standard input. Useful for piping:

	cat book.yaml | datarest create --stdin --collection books

3. Under a chosen id instead of a generated one:

	datarest create book.json --collection books --id moby-dick
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string

		if len(args) > 1 {
			return errors.New("only one file path is allowed")
		} else if len(args) == 1 {
			path = args[0]
		}

		source, err := record.GetReader(path, opts.FromStdin)
		if err != nil {
			return err //nolint:wrapcheck
		}

		return runCommand(cmd, source)
	},
}

func runCommand(cmd *cobra.Command, source io.ReadCloser) error {
	defer source.Close()

	c, ok := ctxUtils.GetClientFromContext(cmd.Context())
	if !ok {
		return errors.New("failed to get client from context")
	}

	doc, err := record.LoadDocument(source)
	if err != nil {
		return err //nolint:wrapcheck
	}

	var created *client.Record
	if opts.ID != "" {
		created, err = c.Update(cmd.Context(), opts.Collection, opts.ID, doc, "")
	} else {
		created, err = c.Create(cmd.Context(), opts.Collection, doc)
	}

	if err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}

	presenter.Print(cmd, created.ID)

	return nil
}
