// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/datarest/datarest/api/hal"
	"github.com/datarest/datarest/server/assembler"
	"github.com/datarest/datarest/server/metadata"
	"github.com/datarest/datarest/server/middleware"
	storetypes "github.com/datarest/datarest/server/store/types"
	"github.com/datarest/datarest/server/types"
	"github.com/datarest/datarest/utils/logging"
	"github.com/gorilla/mux"
)

var logger = logging.Logger("controller")

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// maxBodyBytes bounds request document sizes.
	maxBodyBytes = 4 << 20
)

// Deps carries the collaborators shared by the record controllers.
type Deps struct {
	Repo      types.RepositoryAPI
	Search    types.SearchAPI
	Registry  *metadata.Registry
	Assembler *assembler.Assembler

	// BaseURL is the absolute URL records are linked under, without a
	// trailing slash. Empty yields relative links.
	BaseURL string

	// DefaultPageSize and MaxPageSize bound listing sizes.
	DefaultPageSize int
	MaxPageSize     int

	// OmitBodyOnCreate and OmitBodyOnUpdate reduce write responses to
	// their headers.
	OmitBodyOnCreate bool
	OmitBodyOnUpdate bool
}

// Controller serves the record resources over HTTP. Search may be nil,
// which disables the search route.
type Controller struct {
	repo      types.RepositoryAPI
	search    types.SearchAPI
	registry  *metadata.Registry
	assembler *assembler.Assembler

	baseURL         string
	defaultPageSize int
	maxPageSize     int

	omitBodyOnCreate bool
	omitBodyOnUpdate bool
}

// New creates a record controller from its dependencies.
func New(deps Deps) (*Controller, error) {
	if deps.Repo == nil {
		return nil, errors.New("repository is required")
	}

	if deps.Registry == nil {
		return nil, errors.New("collection registry is required")
	}

	if deps.Assembler == nil {
		return nil, errors.New("assembler is required")
	}

	if deps.DefaultPageSize <= 0 {
		deps.DefaultPageSize = defaultPageSize
	}

	if deps.MaxPageSize <= 0 {
		deps.MaxPageSize = maxPageSize
	}

	if deps.MaxPageSize < deps.DefaultPageSize {
		deps.MaxPageSize = deps.DefaultPageSize
	}

	return &Controller{
		repo:             deps.Repo,
		search:           deps.Search,
		registry:         deps.Registry,
		assembler:        deps.Assembler,
		baseURL:          strings.TrimSuffix(deps.BaseURL, "/"),
		defaultPageSize:  deps.DefaultPageSize,
		maxPageSize:      deps.MaxPageSize,
		omitBodyOnCreate: deps.OmitBodyOnCreate,
		omitBodyOnUpdate: deps.OmitBodyOnUpdate,
	}, nil
}

// Register mounts all record routes on the router. The search route
// must come before the item route so the literal segment wins.
func (c *Controller) Register(router *mux.Router) {
	router.HandleFunc("/", c.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/{collection}", c.handleList).Methods(http.MethodGet)
	router.HandleFunc("/{collection}", c.handleCreate).Methods(http.MethodPost)
	router.HandleFunc("/{collection}/search", c.handleSearch).Methods(http.MethodGet)
	router.HandleFunc("/{collection}/{id}", c.handleGet).Methods(http.MethodGet)
	router.HandleFunc("/{collection}/{id}", c.handleUpdate).Methods(http.MethodPut)
	router.HandleFunc("/{collection}/{id}", c.handlePatch).Methods(http.MethodPatch)
	router.HandleFunc("/{collection}/{id}", c.handleDelete).Methods(http.MethodDelete)
}

func (c *Controller) converterFor(coll *metadata.Collection) *assembler.RecordConverter {
	return assembler.NewRecordConverter(c.registry, coll, c.baseURL)
}

func (c *Controller) itemTarget(r *http.Request) (*metadata.Collection, string, error) {
	vars := mux.Vars(r)

	coll, err := c.registry.ByPath(vars["collection"])
	if err != nil {
		return nil, "", err
	}

	id := vars["id"]
	if id == "" {
		return nil, "", fmt.Errorf("%w: missing record id", types.ErrInvalidRequest)
	}

	return coll, id, nil
}

// stampPrincipal records the authenticated caller on the record.
func (c *Controller) stampPrincipal(r *http.Request, record *storetypes.Record) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return
	}

	if record.CreatedByVal == "" {
		record.CreatedByVal = principal
	}

	record.UpdatedByVal = principal
}

// indexRecord updates the search index, best effort.
func (c *Controller) indexRecord(ctx context.Context, record types.Record) {
	if c.search == nil {
		return
	}

	if err := c.search.Index(ctx, record); err != nil {
		logger.Error("failed to index record",
			"collection", record.Collection(), "id", record.ID(), "error", err)
	}
}

// deindexRecord drops the record from the search index, best effort.
func (c *Controller) deindexRecord(ctx context.Context, record types.Record) {
	if c.search == nil {
		return
	}

	if err := c.search.Deindex(ctx, record); err != nil {
		logger.Error("failed to deindex record",
			"collection", record.Collection(), "id", record.ID(), "error", err)
	}
}

// decodeDocument reads a JSON object request body. Other JSON shapes
// and content types are rejected.
func decodeDocument(r *http.Request) (map[string]any, error) {
	switch mediaType(r) {
	case "application/json", hal.MediaType:
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedMediaType, r.Header.Get("Content-Type"))
	}

	var doc map[string]any
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON document: %v", types.ErrInvalidRequest, err)
	}

	return doc, nil
}

// mediaType returns the request content type without parameters.
// A missing content type counts as plain JSON.
func mediaType(r *http.Request) string {
	value := r.Header.Get("Content-Type")
	if value == "" {
		return "application/json"
	}

	parsed, _, err := mime.ParseMediaType(value)
	if err != nil {
		return value
	}

	return parsed
}

func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

// writeResource renders a response body as HAL. A nil body writes the
// status and headers only.
func writeResource(w http.ResponseWriter, status int, headers http.Header, body any) {
	copyHeaders(w.Header(), headers)

	if body == nil {
		w.WriteHeader(status)

		return
	}

	w.Header().Set("Content-Type", hal.MediaType)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP statuses. Unclassified
// errors are logged and reported as a plain internal error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	message := err.Error()

	if status == http.StatusInternalServerError {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)

		message = "internal error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(errorBody{Error: message})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound), errors.Is(err, types.ErrUnknownCollection):
		return http.StatusNotFound
	case errors.Is(err, types.ErrPreconditionFailed):
		return http.StatusPreconditionFailed
	case errors.Is(err, types.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}
