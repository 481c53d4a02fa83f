// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package browse

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/datarest/datarest/cli/presenter"
	"github.com/datarest/datarest/client"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:   "browse [collection]",
	Short: "Open the API in the system browser",
	Long: `This command opens the server's API index, or one collection,
in the system browser. The server address is read from the
DATAREST_CLIENT_SERVER_ADDRESS environment variable.

Usage examples:

1. Open the API index:

	datarest browse

2. Open a collection listing:

	datarest browse books
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var collection string

		if len(args) > 1 {
			return errors.New("only one collection is allowed")
		} else if len(args) == 1 {
			collection = args[0]
		}

		return runCommand(cmd, collection)
	},
}

func runCommand(cmd *cobra.Command, collection string) error {
	config, err := client.LoadConfig()
	if err != nil {
		return err //nolint:wrapcheck
	}

	target := strings.TrimSuffix(config.ServerAddress, "/") + "/"
	if collection != "" {
		target += url.PathEscape(collection)
	}

	if err := browser.OpenURL(target); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	presenter.Print(cmd, target)

	return nil
}
