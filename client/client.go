// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/datarest/datarest/api/hal"
	"github.com/datarest/datarest/utils/logging"
	"github.com/spiffe/go-spiffe/v2/spiffeid"
	"github.com/spiffe/go-spiffe/v2/spiffetls/tlsconfig"
	"github.com/spiffe/go-spiffe/v2/workloadapi"
)

var logger = logging.Logger("client")

// Errors mapped from response statuses.
var (
	ErrNotFound           = errors.New("record not found")
	ErrPreconditionFailed = errors.New("entity tag does not match")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrUnauthorized       = errors.New("unauthorized")

	// ErrNotModified reports that a conditional read matched and no
	// representation was returned.
	ErrNotModified = errors.New("not modified")
)

// Record is a fetched record together with its caching metadata.
type Record struct {
	// ID of the record, derived from its self link.
	ID string

	// Document holds the record's content properties.
	Document map[string]any

	// ETag is the unquoted entity tag of the representation.
	ETag string

	// LastModified carries the raw Last-Modified header when present.
	LastModified string

	// Links are the hypermedia links of the resource.
	Links []hal.Link
}

// ListOptions selects a listing page.
type ListOptions struct {
	Page int
	Size int
	Sort []string
}

// cacheEntry keeps the validators and raw body of the last
// representation seen for a record URL.
type cacheEntry struct {
	etag         string
	lastModified string
	body         []byte
}

type options struct {
	config *Config
}

type Option func(*options) error

// WithConfig supplies an explicit client configuration.
func WithConfig(config *Config) Option {
	return func(o *options) error {
		if config == nil {
			return errors.New("config must be set")
		}

		o.config = config

		return nil
	}
}

// WithEnvConfig loads the configuration from the environment.
func WithEnvConfig() Option {
	return func(o *options) error {
		config, err := LoadConfig()
		if err != nil {
			return err
		}

		o.config = config

		return nil
	}
}

// Client talks to a record server. Its zero value is not usable, use
// New.
type Client struct {
	config *Config
	httpc  *http.Client
	base   string

	x509Source *workloadapi.X509Source

	// cache holds the last representation seen per record URL. Reads
	// without an explicit entity tag revalidate against it, so a
	// cached copy is only ever served after the server confirmed it.
	mu    sync.Mutex
	cache map[string]cacheEntry
}

// New creates a client. Without options the default configuration is
// used. A configured SPIFFE workload socket switches the transport to
// mTLS.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := DefaultConfig
	o := &options{config: &cfg}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	logger.Debug("Creating client with config", "config", o.config)

	timeout := o.config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	client := &Client{
		config: o.config,
		httpc:  &http.Client{Timeout: timeout},
		base:   strings.TrimSuffix(o.config.ServerAddress, "/"),
		cache:  map[string]cacheEntry{},
	}

	if o.config.SpiffeSocketPath != "" {
		if err := client.useWorkloadIdentity(ctx); err != nil {
			return nil, err
		}
	}

	return client, nil
}

// useWorkloadIdentity swaps the transport for SPIFFE mTLS.
func (c *Client) useWorkloadIdentity(ctx context.Context) error {
	source, err := workloadapi.NewX509Source(ctx,
		workloadapi.WithClientOptions(workloadapi.WithAddr(c.config.SpiffeSocketPath)))
	if err != nil {
		return fmt.Errorf("failed to create X509 source: %w", err)
	}

	authorizer := tlsconfig.AuthorizeAny()

	if c.config.SpiffeTrustDomain != "" {
		domain, err := spiffeid.TrustDomainFromString(c.config.SpiffeTrustDomain)
		if err != nil {
			_ = source.Close()

			return fmt.Errorf("failed to parse trust domain: %w", err)
		}

		authorizer = tlsconfig.AuthorizeMemberOf(domain)
	}

	c.x509Source = source
	c.httpc.Transport = &http.Transport{
		TLSClientConfig: tlsconfig.MTLSClientConfig(source, source, authorizer),
	}

	return nil
}

// Close releases the workload identity source, if any.
func (c *Client) Close() error {
	if c.x509Source == nil {
		return nil
	}

	if err := c.x509Source.Close(); err != nil {
		return fmt.Errorf("failed to close X509 source: %w", err)
	}

	return nil
}

// Index fetches the API root resource listing the collections.
func (c *Client) Index(ctx context.Context) (*hal.Resource, error) {
	resp, err := c.do(ctx, http.MethodGet, "/", nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	res := &hal.Resource{}
	if _, err := res.LoadFromReader(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to parse index resource: %w", err)
	}

	return res, nil
}

// List fetches one page of a collection.
func (c *Client) List(ctx context.Context, collection string, opts ListOptions) (*hal.CollectionResource, error) {
	return c.listPath(ctx, "/"+url.PathEscape(collection), listQuery(opts, nil))
}

// Search fetches records whose indexed field matches the value.
func (c *Client) Search(ctx context.Context, collection, field, value string, opts ListOptions) (*hal.CollectionResource, error) {
	query := url.Values{}
	query.Set("field", field)
	query.Set("value", value)

	return c.listPath(ctx, "/"+url.PathEscape(collection)+"/search", listQuery(opts, query))
}

// Get fetches one record. A non-empty etag makes the read conditional:
// ErrNotModified reports that the caller's copy is still fresh. Without
// an etag the client revalidates its own cached copy instead and
// returns it when the server confirms freshness.
func (c *Client) Get(ctx context.Context, collection, id, etag string) (*Record, error) {
	target := recordPath(collection, id)
	cached, revalidate := c.cachedEntry(target)

	headers := http.Header{}

	switch {
	case etag != "":
		headers.Set("If-None-Match", quoteETag(etag))
	case revalidate:
		headers.Set("If-None-Match", quoteETag(cached.etag))
	}

	resp, err := c.do(ctx, http.MethodGet, target, headers, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return c.parseRecord(collection, id, resp)
	case http.StatusNotModified:
		if etag != "" || !revalidate {
			return nil, ErrNotModified
		}

		logger.Debug("Serving record from revalidated cache", "path", target)

		record, err := recordFromData(cached.body, cached.etag, cached.lastModified)
		if err != nil {
			return nil, err
		}

		if record.ID == "" {
			record.ID = id
		}

		return record, nil
	default:
		return nil, statusError(resp)
	}
}

// Create stores a new record under a server-assigned id.
func (c *Client) Create(ctx context.Context, collection string, doc map[string]any) (*Record, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(collection), jsonHeaders(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, statusError(resp)
	}

	return c.parseRecord(collection, "", resp)
}

// Update replaces a record's document, creating the record when it
// does not exist. A non-empty etag guards against lost updates.
func (c *Client) Update(ctx context.Context, collection, id string, doc map[string]any, etag string) (*Record, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	headers := jsonHeaders()
	if etag != "" {
		headers.Set("If-Match", quoteETag(etag))
	}

	resp, err := c.do(ctx, http.MethodPut, recordPath(collection, id), headers, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, statusError(resp)
	}

	return c.parseRecord(collection, id, resp)
}

// Patch applies a merge patch to a record's document. Null properties
// remove fields. A non-empty etag guards against lost updates.
func (c *Client) Patch(ctx context.Context, collection, id string, patch map[string]any, etag string) (*Record, error) {
	body, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode patch: %w", err)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/merge-patch+json")

	if etag != "" {
		headers.Set("If-Match", quoteETag(etag))
	}

	resp, err := c.do(ctx, http.MethodPatch, recordPath(collection, id), headers, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	return c.parseRecord(collection, id, resp)
}

// Delete removes a record. A non-empty etag guards the delete.
func (c *Client) Delete(ctx context.Context, collection, id, etag string) error {
	target := recordPath(collection, id)

	headers := http.Header{}
	if etag != "" {
		headers.Set("If-Match", quoteETag(etag))
	}

	resp, err := c.do(ctx, http.MethodDelete, target, headers, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return statusError(resp)
	}

	c.dropEntry(target)

	return nil
}

func (c *Client) listPath(ctx context.Context, target string, query url.Values) (*hal.CollectionResource, error) {
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	resp, err := c.do(ctx, http.MethodGet, target, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing: %w", err)
	}

	coll := &hal.CollectionResource{}
	if err := json.Unmarshal(data, coll); err != nil {
		return nil, fmt.Errorf("failed to parse listing: %w", err)
	}

	return coll, nil
}

func (c *Client) do(ctx context.Context, method, target string, headers http.Header, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	if c.config.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.AuthToken)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

func (c *Client) cachedEntry(target string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache[target]

	return entry, ok
}

func (c *Client) storeEntry(target string, record *Record, body []byte) {
	// Without an entity tag there is nothing to revalidate with.
	if record.ETag == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[target] = cacheEntry{etag: record.ETag, lastModified: record.LastModified, body: body}
}

func (c *Client) dropEntry(target string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.cache, target)
}

func recordPath(collection, id string) string {
	return "/" + url.PathEscape(collection) + "/" + url.PathEscape(id)
}

func listQuery(opts ListOptions, query url.Values) url.Values {
	if query == nil {
		query = url.Values{}
	}

	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}

	if opts.Size > 0 {
		query.Set("size", strconv.Itoa(opts.Size))
	}

	for _, sort := range opts.Sort {
		query.Add("sort", sort)
	}

	return query
}

func jsonHeaders() http.Header {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	return headers
}

func quoteETag(etag string) string {
	if strings.HasPrefix(etag, `"`) {
		return etag
	}

	return `"` + etag + `"`
}

// parseRecord reads a record response and refreshes the cache entry
// for the record's canonical URL. The fallback id covers responses
// whose body does not name the record itself.
func (c *Client) parseRecord(collection, id string, resp *http.Response) (*Record, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	etag := strings.Trim(resp.Header.Get("ETag"), `"`)
	lastModified := resp.Header.Get("Last-Modified")

	if location := resp.Header.Get("Location"); location != "" && id == "" {
		if parsed, err := url.PathUnescape(path.Base(location)); err == nil {
			id = parsed
		}
	}

	// Servers may reduce write responses to their headers.
	if len(bytes.TrimSpace(data)) == 0 {
		return &Record{ID: id, ETag: etag, LastModified: lastModified}, nil
	}

	record, err := recordFromData(data, etag, lastModified)
	if err != nil {
		return nil, err
	}

	if record.ID == "" {
		record.ID = id
	}

	if record.ID != "" {
		c.storeEntry(recordPath(collection, record.ID), record, data)
	}

	return record, nil
}

// recordFromData builds a record from a raw resource body and its
// validators. Each call decodes the body afresh, so records never
// share document maps.
func recordFromData(data []byte, etag, lastModified string) (*Record, error) {
	res := &hal.Resource{}
	if _, err := res.LoadFromReader(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to parse record resource: %w", err)
	}

	record := &Record{
		ETag:         etag,
		LastModified: lastModified,
		Links:        res.Links,
	}

	if doc, ok := res.Content.(map[string]any); ok {
		record.Document = doc
	}

	if self, ok := res.Link(hal.RelSelf); ok {
		if id, err := url.PathUnescape(path.Base(self.Href)); err == nil {
			record.ID = id
		}
	}

	return record, nil
}

// statusError maps an error response onto a client error, keeping the
// server's message.
func statusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}

	message := resp.Status
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		message = body.Error
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, message)
	case http.StatusPreconditionFailed:
		return fmt.Errorf("%w: %s", ErrPreconditionFailed, message)
	case http.StatusBadRequest, http.StatusUnsupportedMediaType:
		return fmt.Errorf("%w: %s", ErrInvalidRequest, message)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, message)
	default:
		return fmt.Errorf("server returned %s: %s", resp.Status, message)
	}
}
