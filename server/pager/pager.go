// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package pager

import (
	"fmt"
	"strings"

	"github.com/datarest/datarest/api/hal"
	"github.com/datarest/datarest/server/types"
)

// Pager builds paged collection resources with navigation links.
// It implements types.PagedConverter and is safe for concurrent use.
type Pager struct{}

// New creates a Pager.
func New() *Pager {
	return &Pager{}
}

// Ensure Pager implements types.PagedConverter interface
var _ types.PagedConverter = (*Pager)(nil)

// hrefSource is implemented by converters that know the canonical URL
// of their collection.
type hrefSource interface {
	CollectionHref() string
}

// ToPagedResource derives the navigation base from the converter when
// it exposes one. Without a base the page still renders its metadata,
// just without navigation links.
func (p *Pager) ToPagedResource(page *types.Page, conv types.ResourceConverter) *hal.CollectionResource {
	var base string
	if source, ok := conv.(hrefSource); ok {
		base = source.CollectionHref()
	}

	return p.build(page, conv, base)
}

// ToPagedResourceWithLink navigates relative to the supplied base link.
func (p *Pager) ToPagedResourceWithLink(page *types.Page, conv types.ResourceConverter, baseLink hal.Link) *hal.CollectionResource {
	return p.build(page, conv, baseLink.Href)
}

func (p *Pager) build(page *types.Page, conv types.ResourceConverter, base string) *hal.CollectionResource {
	if page == nil {
		page = &types.Page{}
	}

	items := make([]*hal.Resource, len(page.Items))

	for i, element := range page.Items {
		if element == nil {
			continue
		}

		items[i] = conv.ToItemResource(element)
	}

	var rel string
	if conv != nil {
		rel = conv.EmbedRel()
	}

	coll := hal.NewCollection(rel, items)
	coll.Page = &hal.PageMetadata{
		Size:          page.Size,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages(),
		Number:        page.Number,
	}

	if base != "" {
		addNavLinks(coll, base, page)
	}

	return coll
}

// addNavLinks attaches first/prev/self/next/last relative to base.
// Bounds follow the page position: prev only off the first page, next
// only when pages remain.
func addNavLinks(coll *hal.CollectionResource, base string, page *types.Page) {
	last := page.TotalPages() - 1
	if last < 0 {
		last = 0
	}

	coll.AddLink(hal.NewLink(hal.RelFirst, pageHref(base, 0, page.Size)))

	if page.Number > 0 {
		coll.AddLink(hal.NewLink(hal.RelPrev, pageHref(base, page.Number-1, page.Size)))
	}

	coll.AddLink(hal.NewLink(hal.RelSelf, pageHref(base, page.Number, page.Size)))

	if page.Number < last {
		coll.AddLink(hal.NewLink(hal.RelNext, pageHref(base, page.Number+1, page.Size)))
	}

	coll.AddLink(hal.NewLink(hal.RelLast, pageHref(base, last, page.Size)))
}

// pageHref appends page selection to a base that may already carry
// query parameters, for example a sort order.
func pageHref(base string, number, size int) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}

	return fmt.Sprintf("%s%spage=%d&size=%d", base, sep, number, size)
}
