// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"context"

	"github.com/ipfs/go-datastore"
)

// Datastore is the key-value interface used for caching and indexing.
type Datastore = datastore.Batching

// RepositoryAPI handles management of collection-scoped document storage.
type RepositoryAPI interface {
	// List one page of a collection
	List(context.Context, string, PageRequest) (*Page, error)

	// Get a record by collection and id
	Get(context.Context, string, string) (Record, error)

	// Save a record, creating or replacing it and bumping its version
	Save(context.Context, Record) (Record, error)

	// Delete the record
	Delete(context.Context, string, string) error
}

// SearchAPI maintains a property index over stored records.
type SearchAPI interface {
	// Index a record's document fields
	Index(context.Context, Record) error

	// Deindex a record's document fields
	Deindex(context.Context, Record) error

	// Query ids of records whose field matches value
	Query(context.Context, string, string, string) ([]string, error)
}
