// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

//nolint:testifylint
package gormdb

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	gormdbconfig "github.com/datarest/datarest/server/store/gormdb/config"
	"github.com/datarest/datarest/server/store/testutil"
	"github.com/datarest/datarest/server/types"
	"github.com/stretchr/testify/assert"
)

func loadTestStore(t *testing.T) types.RepositoryAPI {
	t.Helper()

	store, err := New(gormdbconfig.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	assert.NoErrorf(t, err, "failed to create store")

	return store
}

func TestStoreLifecycle(t *testing.T) {
	store := loadTestStore(t)

	testutil.TestRepositoryOperations(t, store, t.Context(), "books")
}

func TestStoreVersioning(t *testing.T) {
	ctx := t.Context()
	store := loadTestStore(t)

	record := testutil.CreateTestRecord(testutil.TestRecordOptions{
		Collection: "books",
		ID:         "moby-dick",
		Doc:        map[string]any{"title": "Moby Dick"},
	})

	// First save creates version 1.
	saved, err := store.Save(ctx, record)
	assert.NoErrorf(t, err, "save failed")
	assert.Equal(t, int64(1), saved.Version())
	assert.False(t, saved.CreatedAt().IsZero())
	assert.False(t, saved.UpdatedAt().IsZero())

	// Saving the fetched record bumps the version and keeps the creation time.
	fetched, err := store.Get(ctx, "books", "moby-dick")
	assert.NoErrorf(t, err, "get failed")

	updated, err := store.Save(ctx, fetched)
	assert.NoErrorf(t, err, "update failed")
	assert.Equal(t, int64(2), updated.Version())
	assert.WithinDuration(t, saved.CreatedAt(), updated.CreatedAt(), time.Second)

	// A stale version is rejected.
	_, err = store.Save(ctx, saved)
	assert.ErrorIs(t, err, types.ErrPreconditionFailed)
}

func TestStoreListSortsAndPages(t *testing.T) {
	ctx := t.Context()
	store := loadTestStore(t)

	titles := []string{"Ahab", "Ishmael", "Moby Dick", "Pequod", "Queequeg"}
	for i, title := range titles {
		record := testutil.CreateTestRecord(testutil.TestRecordOptions{
			Collection: "books",
			ID:         fmt.Sprintf("book-%d", i),
			Doc:        map[string]any{"title": title, "pages": 100 + i},
		})

		_, err := store.Save(ctx, record)
		assert.NoErrorf(t, err, "save failed")
	}

	// Another collection must not leak into the listing.
	_, err := store.Save(ctx, testutil.CreateTestRecord(testutil.TestRecordOptions{
		Collection: "authors",
		ID:         "melville",
		Doc:        map[string]any{"name": "Herman Melville"},
	}))
	assert.NoErrorf(t, err, "save failed")

	// Descending document sort, second page.
	page, err := store.List(ctx, "books", types.PageRequest{
		Number: 1,
		Size:   2,
		Sort:   []types.Order{{Property: "title", Descending: true}},
	})
	assert.NoErrorf(t, err, "list failed")
	assert.Equal(t, int64(5), page.TotalElements)
	assert.Equal(t, 3, page.TotalPages())
	assert.Len(t, page.Items, 2)

	first, ok := page.Items[0].(types.Record)
	assert.True(t, ok)
	assert.Equal(t, "Moby Dick", first.Doc()["title"])

	second, ok := page.Items[1].(types.Record)
	assert.True(t, ok)
	assert.Equal(t, "Ishmael", second.Doc()["title"])

	// Unknown sort properties are rejected before touching the database.
	_, err = store.List(ctx, "books", types.PageRequest{
		Size: 2,
		Sort: []types.Order{{Property: "title; DROP TABLE records"}},
	})
	assert.ErrorIs(t, err, types.ErrInvalidRequest)
}

func TestStoreNotFound(t *testing.T) {
	ctx := t.Context()
	store := loadTestStore(t)

	_, err := store.Get(ctx, "books", "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)

	err = store.Delete(ctx, "books", "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)

	page, err := store.List(ctx, "books", types.PageRequest{Size: 10})
	assert.NoErrorf(t, err, "list failed")
	assert.Equal(t, int64(0), page.TotalElements)
	assert.Empty(t, page.Items)
}

func TestStoreWithCache(t *testing.T) {
	ctx := t.Context()
	dir := t.TempDir()

	store, err := New(gormdbconfig.Config{
		Path:     filepath.Join(dir, "test.db"),
		CacheDir: filepath.Join(dir, "cache"),
	})
	assert.NoErrorf(t, err, "failed to create store")

	testutil.TestRepositoryOperations(t, store, ctx, "books")
}
