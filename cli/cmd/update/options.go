// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package update

import (
	"github.com/datarest/datarest/server/config"
)

var opts = &options{}

type options struct {
	FromStdin  bool
	Collection string
	ETag       string
	Patch      bool
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
	flags.StringVar(&opts.ETag, "etag", "",
		"Entity tag the record must still carry. The update fails if it changed.",
	)
	flags.BoolVar(&opts.Patch, "patch", false,
		"Merge the document into the existing record instead of replacing it.",
	)
}
