// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

//nolint:testifylint
package pager

import (
	"fmt"
	"testing"

	"github.com/datarest/datarest/api/hal"
	"github.com/datarest/datarest/server/types"
	"github.com/stretchr/testify/assert"
)

// hrefConverter knows its collection URL, like the record converter.
type hrefConverter struct{}

func (hrefConverter) EmbedRel() string { return "books" }

func (hrefConverter) ToItemResource(obj any) *hal.Resource {
	return hal.NewResource(obj, hal.NewLink(hal.RelSelf, fmt.Sprintf("http://localhost/books/%v", obj)))
}

func (c hrefConverter) ToFullResource(obj any) *hal.Resource { return c.ToItemResource(obj) }

func (hrefConverter) CollectionHref() string { return "http://localhost/books" }

// plainConverter has no collection URL of its own.
type plainConverter struct{}

func (plainConverter) EmbedRel() string { return "items" }

func (plainConverter) ToItemResource(obj any) *hal.Resource { return hal.NewResource(obj) }

func (c plainConverter) ToFullResource(obj any) *hal.Resource { return c.ToItemResource(obj) }

func linkHref(t *testing.T, coll *hal.CollectionResource, rel string) string {
	t.Helper()

	link, ok := coll.Link(rel)
	assert.True(t, ok, "missing %s link", rel)

	return link.Href
}

func TestToPagedResourceMiddlePage(t *testing.T) {
	page := &types.Page{
		Items:         []any{"a", nil, "b"},
		Number:        2,
		Size:          3,
		TotalElements: 12,
	}

	coll := New().ToPagedResource(page, hrefConverter{})

	assert.Equal(t, "books", coll.Rel)
	assert.Len(t, coll.Items, 3)
	assert.Nil(t, coll.Items[1], "nil elements keep their positions")

	assert.NotNil(t, coll.Page)
	assert.Equal(t, 3, coll.Page.Size)
	assert.Equal(t, int64(12), coll.Page.TotalElements)
	assert.Equal(t, 4, coll.Page.TotalPages)
	assert.Equal(t, 2, coll.Page.Number)

	assert.Equal(t, "http://localhost/books?page=0&size=3", linkHref(t, coll, hal.RelFirst))
	assert.Equal(t, "http://localhost/books?page=1&size=3", linkHref(t, coll, hal.RelPrev))
	assert.Equal(t, "http://localhost/books?page=2&size=3", linkHref(t, coll, hal.RelSelf))
	assert.Equal(t, "http://localhost/books?page=3&size=3", linkHref(t, coll, hal.RelNext))
	assert.Equal(t, "http://localhost/books?page=3&size=3", linkHref(t, coll, hal.RelLast))
}

func TestToPagedResourceBounds(t *testing.T) {
	t.Run("first page has no prev", func(t *testing.T) {
		coll := New().ToPagedResource(&types.Page{Items: []any{"a"}, Number: 0, Size: 1, TotalElements: 2}, hrefConverter{})

		_, ok := coll.Link(hal.RelPrev)
		assert.False(t, ok)

		_, ok = coll.Link(hal.RelNext)
		assert.True(t, ok)
	})

	t.Run("last page has no next", func(t *testing.T) {
		coll := New().ToPagedResource(&types.Page{Items: []any{"b"}, Number: 1, Size: 1, TotalElements: 2}, hrefConverter{})

		_, ok := coll.Link(hal.RelNext)
		assert.False(t, ok)

		_, ok = coll.Link(hal.RelPrev)
		assert.True(t, ok)
	})

	t.Run("empty result still navigates", func(t *testing.T) {
		coll := New().ToPagedResource(&types.Page{Number: 0, Size: 20}, hrefConverter{})

		assert.Equal(t, 0, coll.Page.TotalPages)
		assert.Equal(t, "http://localhost/books?page=0&size=20", linkHref(t, coll, hal.RelSelf))
		assert.Equal(t, "http://localhost/books?page=0&size=20", linkHref(t, coll, hal.RelLast))
	})

	t.Run("nil page behaves like an empty one", func(t *testing.T) {
		coll := New().ToPagedResource(nil, hrefConverter{})
		assert.NotNil(t, coll.Page)
		assert.Empty(t, coll.Items)
	})
}

func TestToPagedResourceWithLink(t *testing.T) {
	page := &types.Page{Items: []any{"a"}, Number: 0, Size: 5, TotalElements: 1}
	base := hal.NewLink(hal.RelSelf, "http://localhost/books/search?field=title&value=x")

	coll := New().ToPagedResourceWithLink(page, hrefConverter{}, base)

	// Base queries survive; page selection appends.
	assert.Equal(t,
		"http://localhost/books/search?field=title&value=x&page=0&size=5",
		linkHref(t, coll, hal.RelSelf))
}

func TestToPagedResourceWithoutHrefSource(t *testing.T) {
	coll := New().ToPagedResource(&types.Page{Items: []any{"a"}, Size: 1, TotalElements: 1}, plainConverter{})

	assert.NotNil(t, coll.Page, "page metadata survives without a base URL")
	assert.Empty(t, coll.Links, "no navigation links without a base URL")
}
