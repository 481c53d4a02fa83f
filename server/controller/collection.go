// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package controller

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/datarest/datarest/api/hal"
	"github.com/datarest/datarest/server/metadata"
	storetypes "github.com/datarest/datarest/server/store/types"
	"github.com/datarest/datarest/server/types"
	"github.com/datarest/datarest/utils/logging"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

var collectionLogger = logging.Logger("controller/collection")

// handleList serves one page of a collection with navigation and
// search links.
func (c *Controller) handleList(w http.ResponseWriter, r *http.Request) {
	collectionLogger.Debug("Called record controller's List method")

	coll, err := c.registry.ByPath(mux.Vars(r)["collection"])
	if err != nil {
		writeError(w, r, err)

		return
	}

	req, err := c.pageBounds(r)
	if err != nil {
		writeError(w, r, err)

		return
	}

	req.Sort, err = sortOrders(r, coll)
	if err != nil {
		writeError(w, r, err)

		return
	}

	page, err := c.repo.List(r.Context(), coll.Name, req)
	if err != nil {
		writeError(w, r, err)

		return
	}

	conv := c.converterFor(coll)

	// Explicit sort orders ride along on the navigation links.
	var base *hal.Link
	if sorts := r.URL.Query()["sort"]; len(sorts) > 0 {
		link := hal.NewLink(hal.RelSelf,
			conv.CollectionHref()+"?"+url.Values{"sort": sorts}.Encode())
		base = &link
	}

	res := c.assembler.ToCollectionResource(page, conv, base)

	if c.search != nil {
		res.AddLink(hal.NewLink(hal.RelSearch, conv.CollectionHref()+"/search"))
	}

	writeResource(w, http.StatusOK, nil, res)
}

// handleCreate stores a new record under a generated id.
func (c *Controller) handleCreate(w http.ResponseWriter, r *http.Request) {
	collectionLogger.Debug("Called record controller's Create method")

	coll, err := c.registry.ByPath(mux.Vars(r)["collection"])
	if err != nil {
		writeError(w, r, err)

		return
	}

	doc, err := decodeDocument(r)
	if err != nil {
		writeError(w, r, err)

		return
	}

	record := storetypes.NewRecord(coll.Name, uuid.NewString(), doc)
	c.stampPrincipal(r, record)

	saved, err := c.repo.Save(r.Context(), record)
	if err != nil {
		writeError(w, r, err)

		return
	}

	c.indexRecord(r.Context(), saved)

	res := c.converterFor(coll).ToFullResource(saved)

	headers := c.assembler.PrepareHeaders(res)
	if self, ok := res.Link(hal.RelSelf); ok {
		headers.Set("Location", self.Href)
	}

	if c.omitBodyOnCreate {
		writeResource(w, http.StatusCreated, headers, nil)

		return
	}

	writeResource(w, http.StatusCreated, headers, res)
}

// pageBounds parses the page and size parameters, clamping size to the
// configured maximum.
func (c *Controller) pageBounds(r *http.Request) (types.PageRequest, error) {
	req := types.PageRequest{Size: c.defaultPageSize}

	query := r.URL.Query()

	if raw := query.Get("page"); raw != "" {
		number, err := strconv.Atoi(raw)
		if err != nil || number < 0 {
			return types.PageRequest{}, fmt.Errorf("%w: invalid page number %q", types.ErrInvalidRequest, raw)
		}

		req.Number = number
	}

	if raw := query.Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			return types.PageRequest{}, fmt.Errorf("%w: invalid page size %q", types.ErrInvalidRequest, raw)
		}

		if size > c.maxPageSize {
			size = c.maxPageSize
		}

		req.Size = size
	}

	return req, nil
}

// sortOrders parses the repeated sort parameters, each a property with
// an optional ",desc" suffix, against the collection's sortable fields.
func sortOrders(r *http.Request, coll *metadata.Collection) ([]types.Order, error) {
	var orders []types.Order

	for _, raw := range r.URL.Query()["sort"] {
		property, direction, _ := strings.Cut(raw, ",")
		if property == "" {
			return nil, fmt.Errorf("%w: empty sort property", types.ErrInvalidRequest)
		}

		if !coll.Sortable(property) {
			return nil, fmt.Errorf("%w: cannot sort by %q", types.ErrInvalidRequest, property)
		}

		orders = append(orders, types.Order{
			Property:   property,
			Descending: strings.EqualFold(direction, "desc"),
		})
	}

	return orders, nil
}
