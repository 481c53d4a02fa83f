// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

//nolint:testifylint
package assembler

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/datarest/datarest/api/hal"
	"github.com/datarest/datarest/server/metadata"
	storetypes "github.com/datarest/datarest/server/store/types"
	"github.com/stretchr/testify/assert"
)

func testRegistry(t *testing.T) *metadata.Registry {
	t.Helper()

	registry, err := metadata.New(
		metadata.Collection{Name: "books", RefFields: map[string]string{"author": "authors"}},
		metadata.Collection{Name: "authors"},
	)
	assert.NoError(t, err)

	return registry
}

func TestToItemResource(t *testing.T) {
	registry := testRegistry(t)
	coll, _ := registry.ByName("books")
	conv := NewRecordConverter(registry, coll, "http://localhost")

	record := storetypes.NewRecord("books", "moby dick", map[string]any{"title": "Moby-Dick", "author": "melville"})
	record.VersionVal = 2

	res := conv.ToItemResource(record)

	self, ok := res.Link(hal.RelSelf)
	assert.True(t, ok)
	assert.Equal(t, "http://localhost/books/moby%20dick", self.Href, "record ids are path escaped")

	// Only the self link on the item shape.
	assert.Len(t, res.Links, 1)

	data, err := json.Marshal(res)
	assert.NoError(t, err)

	var body map[string]any
	assert.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "Moby-Dick", body["title"])
	assert.NotContains(t, body, "id", "the id travels in the self link")
	assert.NotContains(t, body, "version")
}

func TestToFullResource(t *testing.T) {
	registry := testRegistry(t)
	coll, _ := registry.ByName("books")
	conv := NewRecordConverter(registry, coll, "http://localhost")

	record := storetypes.NewRecord("books", "1", map[string]any{"title": "Moby-Dick", "author": "melville"})

	res := conv.ToFullResource(record)

	item, ok := res.Link("book")
	assert.True(t, ok, "full conversion carries the item relation")
	assert.Equal(t, "http://localhost/books/1", item.Href)

	author, ok := res.Link("author")
	assert.True(t, ok, "referenced records get association links")
	assert.Equal(t, "http://localhost/authors/melville", author.Href)
}

func TestToFullResourceSkipsUnusableRefs(t *testing.T) {
	registry := testRegistry(t)
	coll, _ := registry.ByName("books")
	conv := NewRecordConverter(registry, coll, "http://localhost")

	for name, doc := range map[string]map[string]any{
		"missing field":    {"title": "a"},
		"empty id":         {"author": ""},
		"non-string value": {"author": 42},
	} {
		t.Run(name, func(t *testing.T) {
			res := conv.ToFullResource(storetypes.NewRecord("books", "1", doc))

			_, ok := res.Link("author")
			assert.False(t, ok)
		})
	}
}

func TestConverterPassesThroughForeignContent(t *testing.T) {
	registry := testRegistry(t)
	coll, _ := registry.ByName("books")
	conv := NewRecordConverter(registry, coll, "http://localhost")

	res := conv.ToItemResource("not a record")
	assert.Equal(t, "not a record", res.Content)
	assert.Empty(t, res.Links)
}

func TestRecordContent(t *testing.T) {
	modified := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	record := storetypes.NewRecord("books", "1", map[string]any{"title": "a"})
	record.VersionVal = 4
	record.UpdatedAtVal = modified

	content := NewRecordContent(record)
	assert.Equal(t, int64(4), content.Version())
	assert.Equal(t, modified, content.LastModifiedAt())

	t.Run("nil doc renders as empty object", func(t *testing.T) {
		empty := NewRecordContent(&storetypes.Record{IDVal: "1"})

		data, err := json.Marshal(empty)
		assert.NoError(t, err)
		assert.JSONEq(t, `{}`, string(data))
	})
}
