package types

import (
	"time"

	"github.com/datarest/datarest/api/hal"
)

// ResourceConverter turns one domain object into a hypermedia resource.
type ResourceConverter interface {
	// ToItemResource returns the object's content with its self link.
	ToItemResource(any) *hal.Resource

	// ToFullResource returns the item resource enriched with association
	// and collection links.
	ToFullResource(any) *hal.Resource

	// EmbedRel returns the relation embedded collections use for items
	// converted by this converter.
	EmbedRel() string
}

// PagedConverter turns a page of domain objects into a collection
// resource with navigation links.
type PagedConverter interface {
	// ToPagedResource derives the navigation base from the page content.
	ToPagedResource(*Page, ResourceConverter) *hal.CollectionResource

	// ToPagedResourceWithLink navigates relative to the supplied base link.
	ToPagedResourceWithLink(*Page, ResourceConverter, hal.Link) *hal.CollectionResource
}

// AuditWrapper exposes the auditing metadata of one object.
type AuditWrapper interface {
	// CreatedAt returns the creation time. Zero means unset.
	CreatedAt() time.Time

	// LastModified returns the last modification time. The boolean
	// reports whether a usable timestamp is present.
	LastModified() (time.Time, bool)
}

// AuditLookup resolves the auditing metadata wrapper for an object.
// Absence of auditing support is a normal outcome, not an error.
type AuditLookup interface {
	WrapperFor(any) (AuditWrapper, bool)
}
