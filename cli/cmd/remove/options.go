// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package remove

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
		"Entity tag the record must still carry. The delete fails if it changed.",
	)
}
