package hal

import (
	"encoding/json"
	"fmt"
	"sort"
)

// DefaultEmbedRel is used when a collection has no relation of its own.
const DefaultEmbedRel = "items"

// PageMetadata mirrors the page block of a paged listing.
type PageMetadata struct {
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Number        int   `json:"number"`
}

// CollectionResource embeds converted items under a relation, plus
// collection-level links. Page is set only for paged listings.
type CollectionResource struct {
	Rel   string
	Items []*Resource
	Links []Link
	Page  *PageMetadata
}

// NewCollection creates a collection resource embedding items under rel.
func NewCollection(rel string, items []*Resource, links ...Link) *CollectionResource {
	return &CollectionResource{Rel: rel, Items: items, Links: links}
}

// AddLink appends a collection-level link.
func (c *CollectionResource) AddLink(link Link) {
	c.Links = append(c.Links, link)
}

// Link returns the first collection link registered under the given relation.
func (c *CollectionResource) Link(rel string) (Link, bool) {
	if c == nil {
		return Link{}, false
	}

	for _, link := range c.Links {
		if link.Rel == rel {
			return link, true
		}
	}

	return Link{}, false
}

// MarshalJSON renders _embedded, _links and the optional page block.
// A collection with no items still renders an empty embedded array so
// clients can traverse it uniformly. Nil items render as JSON null at
// their original positions.
func (c *CollectionResource) MarshalJSON() ([]byte, error) {
	rel := c.Rel
	if rel == "" {
		rel = DefaultEmbedRel
	}

	items := c.Items
	if items == nil {
		items = []*Resource{}
	}

	body := map[string]any{
		"_embedded": map[string]any{rel: items},
	}

	if len(c.Links) > 0 {
		body["_links"] = linkObject(c.Links)
	}

	if c.Page != nil {
		body["page"] = c.Page
	}

	return json.Marshal(body)
}

// UnmarshalJSON splits a collection payload back into embedded items,
// links and page metadata. When the payload embeds several relations the
// lexicographically first one is taken.
func (c *CollectionResource) UnmarshalJSON(data []byte) error {
	var body struct {
		Embedded map[string]json.RawMessage `json:"_embedded"`
		Links    json.RawMessage            `json:"_links"`
		Page     *PageMetadata              `json:"page"`
	}

	if err := json.Unmarshal(data, &body); err != nil {
		return fmt.Errorf("failed to unmarshal collection: %w", err)
	}

	c.Page = body.Page

	if len(body.Links) > 0 {
		links, err := parseLinks(body.Links)
		if err != nil {
			return err
		}

		c.Links = links
	}

	if len(body.Embedded) == 0 {
		return nil
	}

	rels := make([]string, 0, len(body.Embedded))
	for rel := range body.Embedded {
		rels = append(rels, rel)
	}

	sort.Strings(rels)

	c.Rel = rels[0]

	var items []*Resource
	if err := json.Unmarshal(body.Embedded[c.Rel], &items); err != nil {
		return fmt.Errorf("failed to unmarshal embedded %q: %w", c.Rel, err)
	}

	c.Items = items

	return nil
}
