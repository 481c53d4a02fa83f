// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"context"

	storetypes "github.com/datarest/datarest/server/store/types"
	"github.com/datarest/datarest/server/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// TestRecordOptions provides options for creating test records
type TestRecordOptions struct {
	Collection string
	ID         string
	Doc        map[string]any
}

// CreateTestRecord creates a test record with the given options
func CreateTestRecord(opts TestRecordOptions) types.Record {
	if opts.Collection == "" {
		opts.Collection = "books"
	}

	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}

	if opts.Doc == nil {
		opts.Doc = map[string]any{
			"title": "test",
		}
	}

	return storetypes.NewRecord(opts.Collection, opts.ID, opts.Doc)
}

// CreateTestRecordWithDefaults creates a test record with default values
func CreateTestRecordWithDefaults(id string) types.Record {
	return CreateTestRecord(TestRecordOptions{
		ID: id,
	})
}

// TestRepositoryOperations performs a complete test of Save -> Get -> List -> Delete operations
func TestRepositoryOperations(t assert.TestingT, repo types.RepositoryAPI, ctx context.Context, collection string) {
	// Create test record
	record := CreateTestRecord(TestRecordOptions{
		Collection: collection,
		ID:         "lifecycle",
		Doc:        map[string]any{"title": "Lifecycle"},
	})

	// Save
	saved, err := repo.Save(ctx, record)
	assert.NoError(t, err, "save failed")
	assert.Equal(t, record.ID(), saved.ID())
	assert.Equal(t, record.Collection(), saved.Collection())
	assert.Equal(t, int64(1), saved.Version())
	assert.False(t, saved.CreatedAt().IsZero())

	// Get
	fetched, err := repo.Get(ctx, collection, record.ID())
	assert.NoError(t, err, "get failed")
	assert.Equal(t, saved.ID(), fetched.ID())
	assert.Equal(t, saved.Version(), fetched.Version())
	assert.Equal(t, record.Doc()["title"], fetched.Doc()["title"])

	// Save again bumps the version
	updated, err := repo.Save(ctx, fetched)
	assert.NoError(t, err, "update failed")
	assert.Equal(t, int64(2), updated.Version())

	// List
	page, err := repo.List(ctx, collection, types.PageRequest{Number: 0, Size: 10})
	assert.NoError(t, err, "list failed")
	assert.GreaterOrEqual(t, page.TotalElements, int64(1))

	// Delete
	err = repo.Delete(ctx, collection, record.ID())
	assert.NoError(t, err, "delete failed")

	// Verify deletion
	_, err = repo.Get(ctx, collection, record.ID())
	assert.ErrorIs(t, err, types.ErrNotFound, "get should fail after delete")
}
