// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package controller

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/datarest/datarest/api/hal"
	"github.com/datarest/datarest/server/types"
	"github.com/datarest/datarest/utils/logging"
	"github.com/gorilla/mux"
)

var searchLogger = logging.Logger("controller/search")

// handleSearch serves records whose indexed field matches a value.
// Results keep index order; sort parameters are ignored.
func (c *Controller) handleSearch(w http.ResponseWriter, r *http.Request) {
	searchLogger.Debug("Called record controller's Search method")

	coll, err := c.registry.ByPath(mux.Vars(r)["collection"])
	if err != nil {
		writeError(w, r, err)

		return
	}

	if c.search == nil {
		writeError(w, r, fmt.Errorf("%w: search is not enabled", types.ErrInvalidRequest))

		return
	}

	query := r.URL.Query()

	field := query.Get("field")
	value := query.Get("value")

	if field == "" || value == "" {
		writeError(w, r, fmt.Errorf("%w: field and value parameters are required", types.ErrInvalidRequest))

		return
	}

	req, err := c.pageBounds(r)
	if err != nil {
		writeError(w, r, err)

		return
	}

	ids, err := c.search.Query(r.Context(), coll.Name, field, value)
	if err != nil {
		writeError(w, r, err)

		return
	}

	page := &types.Page{
		Number:        req.Number,
		Size:          req.Size,
		TotalElements: int64(len(ids)),
	}

	for _, id := range pageOf(ids, req) {
		record, err := c.repo.Get(r.Context(), coll.Name, id)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				// Index entries can lose the race with deletes.
				continue
			}

			writeError(w, r, err)

			return
		}

		page.Items = append(page.Items, record)
	}

	conv := c.converterFor(coll)

	base := hal.NewLink(hal.RelSelf, fmt.Sprintf("%s/search?field=%s&value=%s",
		conv.CollectionHref(), url.QueryEscape(field), url.QueryEscape(value)))

	writeResource(w, http.StatusOK, nil, c.assembler.ToCollectionResource(page, conv, &base))
}

// pageOf slices one page out of the matched ids.
func pageOf(ids []string, req types.PageRequest) []string {
	start := req.Offset()
	if start > len(ids) {
		start = len(ids)
	}

	end := start + req.Size
	if end > len(ids) {
		end = len(ids)
	}

	return ids[start:end]
}
