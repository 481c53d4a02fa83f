// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

//nolint:testifylint
package metadata

import (
	"testing"

	"github.com/datarest/datarest/server/types"
	"github.com/stretchr/testify/assert"
)

func TestNewDefaults(t *testing.T) {
	reg, err := New(Collection{Name: "books"})
	assert.NoError(t, err)

	coll, err := reg.ByName("books")
	assert.NoError(t, err)
	assert.Equal(t, "books", coll.Path)
	assert.Equal(t, "books", coll.CollectionRel)
	assert.Equal(t, "book", coll.ItemRel)
}

func TestNewValidation(t *testing.T) {
	_, err := New(Collection{})
	assert.ErrorIs(t, err, types.ErrInvalidRequest)

	_, err = New(Collection{Name: "books"}, Collection{Name: "books"})
	assert.ErrorIs(t, err, types.ErrInvalidRequest)

	_, err = New(Collection{Name: "books", Path: "shelf"}, Collection{Name: "novels", Path: "/shelf/"})
	assert.ErrorIs(t, err, types.ErrInvalidRequest, "paths collide after trimming")
}

func TestLookup(t *testing.T) {
	reg, err := New(
		Collection{Name: "books", Path: "/library/books/"},
		Collection{Name: "authors"},
	)
	assert.NoError(t, err)

	coll, err := reg.ByPath("library/books")
	assert.NoError(t, err)
	assert.Equal(t, "books", coll.Name)

	_, err = reg.ByName("missing")
	assert.ErrorIs(t, err, types.ErrUnknownCollection)

	_, err = reg.ByPath("missing")
	assert.ErrorIs(t, err, types.ErrUnknownCollection)

	names := []string{}
	for _, c := range reg.All() {
		names = append(names, c.Name)
	}

	assert.Equal(t, []string{"books", "authors"}, names, "declaration order preserved")
}

func TestSortable(t *testing.T) {
	coll := &Collection{Name: "books", SortableFields: []string{"title"}}

	assert.True(t, coll.Sortable("title"))
	assert.True(t, coll.Sortable("id"))
	assert.True(t, coll.Sortable("created_at"))
	assert.True(t, coll.Sortable("updated_at"))
	assert.False(t, coll.Sortable("pages"))
}

func TestSingular(t *testing.T) {
	cases := map[string]string{
		"books":   "book",
		"authors": "author",
		"press":   "press",
		"s":       "s",
		"news":    "new",
	}

	for plural, want := range cases {
		assert.Equal(t, want, singular(plural))
	}
}
