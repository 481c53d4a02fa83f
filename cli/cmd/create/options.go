// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package create

import (
	"github.com/datarest/datarest/server/config"
)

var opts = &options{}

type options struct {
	FromStdin  bool
	Collection string
	ID         string
}

func init() {
	flags := Command.Flags()
	flags.BoolVar(&opts.FromStdin, "stdin", false,
		"Read the document from standard input. Useful for piping. "+
			"Ignored if a file path is provided as an argument.",
	)
	flags.StringVar(&opts.Collection, "collection", config.DefaultCollection,
		"Collection the record belongs to.",
	)
	flags.StringVar(&opts.ID, "id", "",
		"Store the record under this id instead of a generated one.",
	)
}
