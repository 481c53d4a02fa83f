// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package get

import (
	"github.com/datarest/datarest/server/config"
)

var opts = &options{}

type options struct {
	Collection string
	ETag       string
}

func init() {
	flags := Command.Flags()
	flags.StringVar(&opts.Collection, "collection", config.DefaultCollection,
		"Collection the record belongs to.",
	)
	flags.StringVar(&opts.ETag, "etag", "",
		"Entity tag of a cached copy. The fetch is skipped if it still matches.",
	)
}
