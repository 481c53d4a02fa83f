// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package controller

import (
	"net/http"

	"github.com/datarest/datarest/api/hal"
	"github.com/datarest/datarest/utils/logging"
)

var indexLogger = logging.Logger("controller/index")

// handleIndex serves the API root: one link per exposed collection.
// The profile link points back at the index itself.
func (c *Controller) handleIndex(w http.ResponseWriter, r *http.Request) {
	indexLogger.Debug("Called record controller's Index method")

	res := hal.NewResource(
		map[string]any{},
		hal.NewLink(hal.RelSelf, c.baseURL+"/"),
		hal.NewLink(hal.RelProfile, c.baseURL+"/"),
	)

	for _, coll := range c.registry.All() {
		conv := c.converterFor(coll)
		res.AddLink(hal.NewLink(coll.CollectionRel, conv.CollectionHref()))
	}

	writeResource(w, http.StatusOK, nil, res)
}
