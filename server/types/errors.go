// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package types

import "errors"

// Sentinel errors shared between storage backends and the HTTP edge.
var (
	// ErrNotFound means the record or collection does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnknownCollection means the collection is not registered.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrPreconditionFailed means a conditional write lost against the
	// stored version.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrInvalidRequest means the caller supplied an unusable argument.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnsupportedMediaType means the request body carries a content
	// type no handler can process.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)
