// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"

	"github.com/datarest/datarest/cli"
)

func main() {
	if err := cli.Run(context.Background()); err != nil {
		os.Exit(1)
	}
}
