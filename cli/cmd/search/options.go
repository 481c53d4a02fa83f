// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"github.com/datarest/datarest/server/config"
)

var opts = &options{}

type options struct {
	Collection string
	Page       int
	Size       int
	Fields     []string
	JSON       bool
}

func init() {
	flags := Command.Flags()
	flags.StringVar(&opts.Collection, "collection", config.DefaultCollection,
		"Collection to search.",
	)
	flags.IntVar(&opts.Page, "page", 0, "Page number, starting at 0.")
	flags.IntVar(&opts.Size, "size", 0, "Page size. The server default applies if unset.")
	flags.StringSliceVar(&opts.Fields, "fields", nil,
		"Document fields to show as columns. Defaults to every field on the page.",
	)
	flags.BoolVar(&opts.JSON, "json", false, "Print the raw page as JSON.")
}
