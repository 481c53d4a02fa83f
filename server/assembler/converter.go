// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package assembler

import (
	"encoding/json"
	"net/url"
	"sort"
	"time"

	"github.com/datarest/datarest/api/hal"
	"github.com/datarest/datarest/server/metadata"
	"github.com/datarest/datarest/server/types"
)

// RecordConverter renders stored records of one collection as
// hypermedia resources. It implements types.ResourceConverter.
type RecordConverter struct {
	registry *metadata.Registry
	coll     *metadata.Collection
	baseURL  string
}

// NewRecordConverter creates a converter for one collection. The base
// URL carries scheme, host and base path without a trailing slash.
func NewRecordConverter(registry *metadata.Registry, coll *metadata.Collection, baseURL string) *RecordConverter {
	return &RecordConverter{registry: registry, coll: coll, baseURL: baseURL}
}

// Ensure RecordConverter implements types.ResourceConverter interface
var _ types.ResourceConverter = (*RecordConverter)(nil)

// EmbedRel implements types.ResourceConverter.
func (c *RecordConverter) EmbedRel() string {
	return c.coll.CollectionRel
}

// ToItemResource renders the record's document with its self link.
// Non-record inputs degrade to a resource without links.
func (c *RecordConverter) ToItemResource(obj any) *hal.Resource {
	record, ok := obj.(types.Record)
	if !ok {
		return hal.NewResource(obj)
	}

	return hal.NewResource(
		NewRecordContent(record),
		hal.NewLink(hal.RelSelf, c.ItemHref(record.ID())),
	)
}

// ToFullResource renders the item resource enriched with the item
// relation and association links for referenced records.
func (c *RecordConverter) ToFullResource(obj any) *hal.Resource {
	record, ok := obj.(types.Record)
	if !ok {
		return hal.NewResource(obj)
	}

	res := c.ToItemResource(record)

	if self, ok := res.Link(hal.RelSelf); ok {
		res.AddLink(self.WithRel(c.coll.ItemRel))
	}

	c.addAssociationLinks(res, record)

	return res
}

// ItemHref returns the canonical URL of one record.
func (c *RecordConverter) ItemHref(id string) string {
	return c.baseURL + "/" + c.coll.Path + "/" + url.PathEscape(id)
}

// CollectionHref returns the canonical URL of the collection.
func (c *RecordConverter) CollectionHref() string {
	return c.baseURL + "/" + c.coll.Path
}

// addAssociationLinks links documents holding record ids to the
// collections they point into. Fields resolve in name order so link
// order is stable.
func (c *RecordConverter) addAssociationLinks(res *hal.Resource, record types.Record) {
	if len(c.coll.RefFields) == 0 {
		return
	}

	doc := record.Doc()

	fields := make([]string, 0, len(c.coll.RefFields))
	for field := range c.coll.RefFields {
		fields = append(fields, field)
	}

	sort.Strings(fields)

	for _, field := range fields {
		id, ok := doc[field].(string)
		if !ok || id == "" {
			continue
		}

		target, err := c.registry.ByName(c.coll.RefFields[field])
		if err != nil {
			continue
		}

		res.AddLink(hal.NewLink(field, c.baseURL+"/"+target.Path+"/"+url.PathEscape(id)))
	}
}

// RecordContent renders a record's document body while keeping version
// and audit metadata visible to the header pipeline. The record id
// travels in the self link, not in the payload.
type RecordContent struct {
	record types.Record
}

// NewRecordContent wraps a record for rendering.
func NewRecordContent(record types.Record) RecordContent {
	return RecordContent{record: record}
}

var (
	_ types.Versioned = RecordContent{}
	_ types.Audited   = RecordContent{}
	_ json.Marshaler  = RecordContent{}
)

// Record returns the wrapped record.
func (c RecordContent) Record() types.Record {
	return c.record
}

// MarshalJSON implements json.Marshaler.
func (c RecordContent) MarshalJSON() ([]byte, error) {
	doc := c.record.Doc()
	if doc == nil {
		doc = map[string]any{}
	}

	return json.Marshal(doc)
}

// Version implements types.Versioned.
func (c RecordContent) Version() int64 {
	return c.record.Version()
}

// LastModifiedAt implements types.Audited.
func (c RecordContent) LastModifiedAt() time.Time {
	return c.record.UpdatedAt()
}
