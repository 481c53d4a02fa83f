//nolint:testifylint
package hal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceMarshal(t *testing.T) {
	res := NewResource(
		map[string]any{"title": "first", "pages": 12},
		NewLink(RelSelf, "http://localhost/books/1"),
	)

	data, err := json.Marshal(res)
	assert.NoError(t, err, "marshal failed")

	var body map[string]any
	assert.NoError(t, json.Unmarshal(data, &body))

	// Content properties flatten into the envelope next to _links.
	assert.Equal(t, "first", body["title"])
	assert.Equal(t, float64(12), body["pages"])

	links, ok := body["_links"].(map[string]any)
	assert.True(t, ok, "expected _links object")

	self, ok := links[RelSelf].(map[string]any)
	assert.True(t, ok, "expected self link object")
	assert.Equal(t, "http://localhost/books/1", self["href"])
}

func TestResourceMarshalScalarContent(t *testing.T) {
	data, err := json.Marshal(NewResource("plain"))
	assert.NoError(t, err)
	assert.JSONEq(t, `{"value":"plain"}`, string(data))
}

func TestResourceRoundTrip(t *testing.T) {
	res := NewResource(
		map[string]any{"title": "first"},
		NewLink(RelSelf, "http://localhost/books/1"),
		NewLink("book", "http://localhost/books/1"),
	)

	data, err := json.Marshal(res)
	assert.NoError(t, err)

	var decoded Resource
	assert.NoError(t, json.Unmarshal(data, &decoded))

	self, ok := decoded.Link(RelSelf)
	assert.True(t, ok)
	assert.Equal(t, "http://localhost/books/1", self.Href)

	content, ok := decoded.Content.(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "first", content["title"])
}

func TestResourceLink(t *testing.T) {
	res := NewResource(nil,
		NewLink(RelSelf, "http://localhost/a"),
		NewLink(RelSelf, "http://localhost/b"),
	)

	// First registered link wins for lookup.
	link, ok := res.Link(RelSelf)
	assert.True(t, ok)
	assert.Equal(t, "http://localhost/a", link.Href)

	_, ok = res.Link("missing")
	assert.False(t, ok)

	// Nil receiver reports not found instead of panicking.
	var nilRes *Resource

	_, ok = nilRes.Link(RelSelf)
	assert.False(t, ok)
}

func TestResourceDuplicateRelsRenderAsArray(t *testing.T) {
	res := NewResource(nil,
		NewLink("item", "http://localhost/a"),
		NewLink("item", "http://localhost/b"),
	)

	data, err := json.Marshal(res)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"_links":{"item":[{"href":"http://localhost/a"},{"href":"http://localhost/b"}]}}`, string(data))
}

func TestCollectionMarshal(t *testing.T) {
	coll := NewCollection("books",
		[]*Resource{
			NewResource(map[string]any{"title": "first"}, NewLink(RelSelf, "http://localhost/books/1")),
			nil,
			NewResource(map[string]any{"title": "second"}, NewLink(RelSelf, "http://localhost/books/2")),
		},
		NewLink(RelSelf, "http://localhost/books"),
	)

	data, err := json.Marshal(coll)
	assert.NoError(t, err)

	var body struct {
		Embedded map[string][]json.RawMessage `json:"_embedded"`
	}
	assert.NoError(t, json.Unmarshal(data, &body))

	items := body.Embedded["books"]
	assert.Len(t, items, 3)
	// Nil entries keep their position as JSON null.
	assert.Equal(t, "null", string(items[1]))
}

func TestCollectionMarshalEmpty(t *testing.T) {
	cases := map[string]*CollectionResource{
		"nil items":   NewCollection("books", nil),
		"empty items": NewCollection("books", []*Resource{}),
		"no rel":      NewCollection("", nil),
	}

	for name, coll := range cases {
		t.Run(name, func(t *testing.T) {
			data, err := json.Marshal(coll)
			assert.NoError(t, err)

			var body struct {
				Embedded map[string][]any `json:"_embedded"`
			}
			assert.NoError(t, json.Unmarshal(data, &body))
			assert.Len(t, body.Embedded, 1, "expected exactly one embedded rel")

			for _, items := range body.Embedded {
				assert.NotNil(t, items)
				assert.Empty(t, items)
			}
		})
	}
}

func TestCollectionRoundTrip(t *testing.T) {
	coll := NewCollection("books",
		[]*Resource{
			NewResource(map[string]any{"title": "first"}, NewLink(RelSelf, "http://localhost/books/1")),
		},
		NewLink(RelSelf, "http://localhost/books?page=0&size=20"),
		NewLink(RelNext, "http://localhost/books?page=1&size=20"),
	)
	coll.Page = &PageMetadata{Size: 20, TotalElements: 21, TotalPages: 2, Number: 0}

	data, err := json.Marshal(coll)
	assert.NoError(t, err)

	var decoded CollectionResource
	assert.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "books", decoded.Rel)
	assert.Len(t, decoded.Items, 1)
	assert.NotNil(t, decoded.Page)
	assert.Equal(t, int64(21), decoded.Page.TotalElements)

	next, ok := decoded.Link(RelNext)
	assert.True(t, ok)
	assert.Equal(t, "http://localhost/books?page=1&size=20", next.Href)
}
