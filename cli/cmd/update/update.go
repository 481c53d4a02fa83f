// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package update

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
	Use:   "update <id> [file]",
	Short: "Replace or patch a record",
	Long: `This command replaces a record's document, creating the record when
it does not exist yet. With --patch the document is merged into the
existing one instead: fields overwrite, nulls remove.

Usage examples:

1. Replace a record from a file:

	datarest update moby-dick book.json --collection books

2. Merge a change from standard input:

	echo '{"pages": 635}' | datarest update moby-dick --stdin --collection books --patch

3. Guard against concurrent edits with the last seen entity tag:

	datarest update moby-dick book.json --collection books --etag 3
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 {
			return errors.New("a record id is required")
		}

		var path string

		if len(args) > 2 {
			return errors.New("only one file path is allowed")
		} else if len(args) == 2 {
			path = args[1]
		}

		source, err := record.GetReader(path, opts.FromStdin)
		if err != nil {
			return err //nolint:wrapcheck
		}

		return runCommand(cmd, args[0], source)
	},
}

func runCommand(cmd *cobra.Command, id string, source io.ReadCloser) error {
	defer source.Close()

	c, ok := ctxUtils.GetClientFromContext(cmd.Context())
	if !ok {
		return errors.New("failed to get client from context")
	}

	doc, err := record.LoadDocument(source)
	if err != nil {
		return err //nolint:wrapcheck
	}

	var updated *client.Record
	if opts.Patch {
		updated, err = c.Patch(cmd.Context(), opts.Collection, id, doc, opts.ETag)
	} else {
		updated, err = c.Update(cmd.Context(), opts.Collection, id, doc, opts.ETag)
	}

	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}

	presenter.Print(cmd, updated.ETag)

	return nil
}
