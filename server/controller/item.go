// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/datarest/datarest/api/hal"
	"github.com/datarest/datarest/server/etag"
	storetypes "github.com/datarest/datarest/server/store/types"
	"github.com/datarest/datarest/server/types"
	"github.com/datarest/datarest/utils/logging"
	jsonpatch "github.com/evanphx/json-patch/v5"
)

var itemLogger = logging.Logger("controller/item")

// handleGet serves one record, honoring the conditional read headers.
func (c *Controller) handleGet(w http.ResponseWriter, r *http.Request) {
	itemLogger.Debug("Called record controller's Get method")

	coll, id, err := c.itemTarget(r)
	if err != nil {
		writeError(w, r, err)

		return
	}

	record, err := c.repo.Get(r.Context(), coll.Name, id)
	if err != nil {
		writeError(w, r, err)

		return
	}

	res := c.converterFor(coll).ToFullResource(record)
	headers := c.assembler.PrepareHeaders(res)

	if c.notModified(r, res) {
		writeResource(w, http.StatusNotModified, headers, nil)

		return
	}

	writeResource(w, http.StatusOK, headers, res)
}

// handleUpdate replaces a record's document, creating the record when
// it does not exist yet.
func (c *Controller) handleUpdate(w http.ResponseWriter, r *http.Request) {
	itemLogger.Debug("Called record controller's Update method")

	coll, id, err := c.itemTarget(r)
	if err != nil {
		writeError(w, r, err)

		return
	}

	doc, err := decodeDocument(r)
	if err != nil {
		writeError(w, r, err)

		return
	}

	record := storetypes.NewRecord(coll.Name, id, doc)
	status := http.StatusCreated

	conv := c.converterFor(coll)

	existing, err := c.repo.Get(r.Context(), coll.Name, id)

	switch {
	case err == nil:
		if err := checkPrecondition(r, conv.ToItemResource(existing)); err != nil {
			writeError(w, r, err)

			return
		}

		record.VersionVal = existing.Version()
		status = http.StatusOK
	case errors.Is(err, types.ErrNotFound):
		if r.Header.Get("If-Match") != "" {
			writeError(w, r, fmt.Errorf("%w: record does not exist", types.ErrPreconditionFailed))

			return
		}
	default:
		writeError(w, r, err)

		return
	}

	c.stampPrincipal(r, record)

	saved, err := c.repo.Save(r.Context(), record)
	if err != nil {
		writeError(w, r, err)

		return
	}

	c.indexRecord(r.Context(), saved)

	res := conv.ToFullResource(saved)

	headers := c.assembler.PrepareHeaders(res)

	omitBody := c.omitBodyOnUpdate

	if status == http.StatusCreated {
		if self, ok := res.Link(hal.RelSelf); ok {
			headers.Set("Location", self.Href)
		}

		omitBody = c.omitBodyOnCreate
	}

	if omitBody {
		writeResource(w, status, headers, nil)

		return
	}

	writeResource(w, status, headers, res)
}

// handlePatch applies a JSON patch or merge patch to a record's
// document.
func (c *Controller) handlePatch(w http.ResponseWriter, r *http.Request) {
	itemLogger.Debug("Called record controller's Patch method")

	coll, id, err := c.itemTarget(r)
	if err != nil {
		writeError(w, r, err)

		return
	}

	existing, err := c.repo.Get(r.Context(), coll.Name, id)
	if err != nil {
		writeError(w, r, err)

		return
	}

	conv := c.converterFor(coll)

	if err := checkPrecondition(r, conv.ToItemResource(existing)); err != nil {
		writeError(w, r, err)

		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: failed to read patch body: %v", types.ErrInvalidRequest, err))

		return
	}

	patched, err := applyPatch(existing, mediaType(r), body)
	if err != nil {
		writeError(w, r, err)

		return
	}

	record := storetypes.NewRecord(coll.Name, id, patched)
	record.VersionVal = existing.Version()

	c.stampPrincipal(r, record)

	saved, err := c.repo.Save(r.Context(), record)
	if err != nil {
		writeError(w, r, err)

		return
	}

	c.indexRecord(r.Context(), saved)

	res := conv.ToFullResource(saved)

	if c.omitBodyOnUpdate {
		writeResource(w, http.StatusOK, c.assembler.PrepareHeaders(res), nil)

		return
	}

	writeResource(w, http.StatusOK, c.assembler.PrepareHeaders(res), res)
}

// handleDelete removes a record, honoring the If-Match header.
func (c *Controller) handleDelete(w http.ResponseWriter, r *http.Request) {
	itemLogger.Debug("Called record controller's Delete method")

	coll, id, err := c.itemTarget(r)
	if err != nil {
		writeError(w, r, err)

		return
	}

	existing, err := c.repo.Get(r.Context(), coll.Name, id)
	if err != nil {
		writeError(w, r, err)

		return
	}

	if err := checkPrecondition(r, c.converterFor(coll).ToItemResource(existing)); err != nil {
		writeError(w, r, err)

		return
	}

	if err := c.repo.Delete(r.Context(), coll.Name, id); err != nil {
		writeError(w, r, err)

		return
	}

	c.deindexRecord(r.Context(), existing)

	w.WriteHeader(http.StatusNoContent)
}

// notModified evaluates the conditional read headers against the
// resource. If-None-Match takes precedence over If-Modified-Since.
func (c *Controller) notModified(r *http.Request, res *hal.Resource) bool {
	if r.Header.Get("If-None-Match") != "" {
		return etag.FromResource(res).IfNoneMatch(r)
	}

	since, err := http.ParseTime(r.Header.Get("If-Modified-Since"))
	if err != nil {
		return false
	}

	wrapper, ok := c.assembler.AuditWrapper(res.Content)
	if !ok {
		return false
	}

	at, ok := wrapper.LastModified()
	if !ok {
		return false
	}

	// Header dates carry second resolution.
	return !at.UTC().Truncate(time.Second).After(since)
}

// checkPrecondition enforces the If-Match header against the stored
// representation.
func checkPrecondition(r *http.Request, res *hal.Resource) error {
	if etag.FromResource(res).IfMatch(r) {
		return nil
	}

	return fmt.Errorf("%w: entity tag does not match", types.ErrPreconditionFailed)
}

// applyPatch applies the request body to the record's document and
// returns the patched document.
func applyPatch(record types.Record, contentType string, body []byte) (map[string]any, error) {
	doc := record.Doc()
	if doc == nil {
		doc = map[string]any{}
	}

	current, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	var next []byte

	switch contentType {
	case "application/json-patch+json":
		next, err = applyJSONPatch(current, body)
	case "application/merge-patch+json", "application/json", hal.MediaType:
		next, err = jsonpatch.MergePatch(current, body)
		if err != nil {
			err = fmt.Errorf("%w: invalid merge patch: %v", types.ErrInvalidRequest, err)
		}
	default:
		err = fmt.Errorf("%w: %s", types.ErrUnsupportedMediaType, contentType)
	}

	if err != nil {
		return nil, err
	}

	var patched map[string]any
	if err := json.Unmarshal(next, &patched); err != nil {
		return nil, fmt.Errorf("%w: patch must produce an object", types.ErrInvalidRequest)
	}

	return patched, nil
}

func applyJSONPatch(current, body []byte) ([]byte, error) {
	patch, err := jsonpatch.DecodePatch(body)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JSON patch: %v", types.ErrInvalidRequest, err)
	}

	next, err := patch.Apply(current)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to apply patch: %v", types.ErrInvalidRequest, err)
	}

	return next, nil
}
