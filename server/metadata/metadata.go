// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"fmt"
	"strings"

	"github.com/datarest/datarest/server/types"
)

// Collection describes how one record collection is exposed over HTTP.
type Collection struct {
	// Name identifies the collection in storage.
	Name string

	// Path is the URL segment of the collection, without slashes.
	Path string

	// ItemRel is the relation used for links that point at one record.
	ItemRel string

	// CollectionRel is the relation the collection embeds its items under.
	CollectionRel string

	// SortableFields lists document fields that listings may order by.
	// Record metadata fields are always sortable.
	SortableFields []string

	// RefFields maps document fields holding record ids to the
	// collection they point into, used for association links.
	RefFields map[string]string
}

// Metadata fields every collection can sort by.
var alwaysSortable = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// Sortable reports whether listings of this collection may order by the
// given property.
func (c *Collection) Sortable(property string) bool {
	if alwaysSortable[property] {
		return true
	}

	for _, field := range c.SortableFields {
		if field == property {
			return true
		}
	}

	return false
}

// Registry holds the exposed collections in declaration order.
type Registry struct {
	ordered []*Collection
	byName  map[string]*Collection
	byPath  map[string]*Collection
}

// New builds a registry from collection descriptors, applying defaults
// for omitted fields: path and collection relation default to the name,
// the item relation to a singularized name.
func New(collections ...Collection) (*Registry, error) {
	reg := &Registry{
		byName: make(map[string]*Collection, len(collections)),
		byPath: make(map[string]*Collection, len(collections)),
	}

	for i := range collections {
		coll := collections[i]

		if coll.Name == "" {
			return nil, fmt.Errorf("%w: collection name is required", types.ErrInvalidRequest)
		}

		if coll.Path == "" {
			coll.Path = coll.Name
		}

		coll.Path = strings.Trim(coll.Path, "/")

		if coll.CollectionRel == "" {
			coll.CollectionRel = coll.Name
		}

		if coll.ItemRel == "" {
			coll.ItemRel = singular(coll.Name)
		}

		if _, ok := reg.byName[coll.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate collection %q", types.ErrInvalidRequest, coll.Name)
		}

		if _, ok := reg.byPath[coll.Path]; ok {
			return nil, fmt.Errorf("%w: duplicate collection path %q", types.ErrInvalidRequest, coll.Path)
		}

		reg.ordered = append(reg.ordered, &coll)
		reg.byName[coll.Name] = &coll
		reg.byPath[coll.Path] = &coll
	}

	return reg, nil
}

// ByName returns the collection registered under the given name.
func (r *Registry) ByName(name string) (*Collection, error) {
	coll, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownCollection, name)
	}

	return coll, nil
}

// ByPath returns the collection exposed under the given URL segment.
func (r *Registry) ByPath(path string) (*Collection, error) {
	coll, ok := r.byPath[strings.Trim(path, "/")]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownCollection, path)
	}

	return coll, nil
}

// All returns the collections in declaration order.
func (r *Registry) All() []*Collection {
	return r.ordered
}

// singular trims a plural collection name for its item relation.
func singular(name string) string {
	if len(name) > 1 && strings.HasSuffix(name, "s") && !strings.HasSuffix(name, "ss") {
		return name[:len(name)-1]
	}

	return name
}
