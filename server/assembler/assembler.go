// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package assembler

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/datarest/datarest/api/hal"
	"github.com/datarest/datarest/server/etag"
	"github.com/datarest/datarest/server/metadata"
	"github.com/datarest/datarest/server/types"
)

// Assembler converts repository results into hypermedia resources and
// derives the caching headers of their responses. It holds no request
// state and is safe for concurrent use.
type Assembler struct {
	paged types.PagedConverter
	audit types.AuditLookup
}

// New creates an Assembler. Both collaborators are required.
func New(paged types.PagedConverter, audit types.AuditLookup) (*Assembler, error) {
	if paged == nil {
		return nil, fmt.Errorf("%w: paged converter is required", types.ErrInvalidRequest)
	}

	if audit == nil {
		return nil, fmt.Errorf("%w: audit lookup is required", types.ErrInvalidRequest)
	}

	return &Assembler{paged: paged, audit: audit}, nil
}

// ItemLink derives the link to one record from the collection's item
// relation and the resource's self link. A resource without a self link
// is a bug on the caller's side.
func (a *Assembler) ItemLink(coll *metadata.Collection, res *hal.Resource) (hal.Link, error) {
	if coll == nil {
		return hal.Link{}, fmt.Errorf("%w: collection descriptor is required", types.ErrInvalidRequest)
	}

	self, ok := res.Link(hal.RelSelf)
	if !ok {
		return hal.Link{}, fmt.Errorf("%w: resource has no self link", types.ErrInvalidRequest)
	}

	return self.WithRel(coll.ItemRel), nil
}

// ToCollectionResource converts a collection-shaped source. Pages are
// recognized before the generic iterable shape so their metadata
// survives; anything else yields an empty collection. The result is
// never nil. The base link only matters for the page path.
func (a *Assembler) ToCollectionResource(source any, conv types.ResourceConverter, base *hal.Link) *hal.CollectionResource {
	if page, ok := source.(*types.Page); ok {
		return a.pageToResource(page, conv, base)
	}

	if elements, ok := elementsOf(source); ok {
		return a.sliceToResource(elements, conv)
	}

	return hal.NewCollection(embedRel(conv), nil)
}

// ToResponseValue converts an arbitrary repository result into its
// response shape. Collection-shaped sources become collection
// resources, nil and primitive scalars pass through untouched, and
// everything else gets the full single-resource conversion.
func (a *Assembler) ToResponseValue(source any, conv types.ResourceConverter, base *hal.Link) any {
	if collectionShaped(source) {
		return a.ToCollectionResource(source, conv, base)
	}

	if source == nil || isScalar(source) {
		return source
	}

	return conv.ToFullResource(source)
}

// pageToResource picks the paged conversion by base link presence.
func (a *Assembler) pageToResource(page *types.Page, conv types.ResourceConverter, base *hal.Link) *hal.CollectionResource {
	if base == nil {
		return a.paged.ToPagedResource(page, conv)
	}

	return a.paged.ToPagedResourceWithLink(page, conv, *base)
}

// sliceToResource converts plain elements one by one, in order. Nil
// elements stay nil at their original positions.
func (a *Assembler) sliceToResource(elements []any, conv types.ResourceConverter) *hal.CollectionResource {
	items := make([]*hal.Resource, len(elements))

	for i, element := range elements {
		if element == nil {
			continue
		}

		items[i] = conv.ToItemResource(element)
	}

	return hal.NewCollection(embedRel(conv), items)
}

// PrepareHeaders computes the caching headers for a response carrying
// the given resource. The entity tag is always derived; Last-Modified
// appears only when auditing metadata reports a usable timestamp.
// Missing auditing support never fails header computation.
func (a *Assembler) PrepareHeaders(res *hal.Resource) http.Header {
	headers := http.Header{}

	if res == nil {
		return headers
	}

	etag.FromResource(res).AddTo(headers)

	wrapper, ok := a.audit.WrapperFor(res.Content)
	if !ok {
		return headers
	}

	if at, ok := wrapper.LastModified(); ok {
		headers.Set("Last-Modified", at.UTC().Format(http.TimeFormat))
	}

	return headers
}

// AuditWrapper resolves the auditing metadata wrapper for obj.
func (a *Assembler) AuditWrapper(obj any) (types.AuditWrapper, bool) {
	return a.audit.WrapperFor(obj)
}

// elementsOf extracts the elements of an iterable source. Pages are
// recognized by the callers before this is consulted.
func elementsOf(source any) ([]any, bool) {
	switch src := source.(type) {
	case types.Iterable:
		return src.Elements(), true
	case []any:
		return src, true
	default:
		return nil, false
	}
}

func collectionShaped(source any) bool {
	if _, ok := source.(*types.Page); ok {
		return true
	}

	_, ok := elementsOf(source)

	return ok
}

func embedRel(conv types.ResourceConverter) string {
	if conv == nil {
		return ""
	}

	return conv.EmbedRel()
}

// isScalar reports whether the value is a primitive scalar that passes
// through conversion untouched. Strings carry document content and are
// not scalars here.
func isScalar(value any) bool {
	switch reflect.ValueOf(value).Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return true
	default:
		return false
	}
}
