// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

//nolint:testifylint
package client

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/datarest/datarest/server"
	"github.com/datarest/datarest/server/config"
	storeconfig "github.com/datarest/datarest/server/store/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func newTestServerConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig
	cfg.Store.Provider = storeconfig.ProviderLocalFS
	cfg.Store.LocalFS.Dir = t.TempDir()
	cfg.Search.Enabled = true
	cfg.Collections = []string{"books"}

	return &cfg
}

func newTestClient(t *testing.T, cfg *config.Config, clientConfig *Config) *Client {
	t.Helper()

	srv, err := server.New(cfg)
	assert.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	if clientConfig == nil {
		clientConfig = &Config{}
	}

	clientConfig.ServerAddress = ts.URL

	c, err := New(t.Context(), WithConfig(clientConfig))
	assert.NoError(t, err)

	return c
}

func TestClientLifecycle(t *testing.T) {
	c := newTestClient(t, newTestServerConfig(t), nil)
	ctx := t.Context()

	// Create a record
	created, err := c.Create(ctx, "books", map[string]any{"title": "Moby Dick"})
	assert.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "1", created.ETag)
	assert.Equal(t, "Moby Dick", created.Document["title"])

	// Conditional read against a fresh copy
	_, err = c.Get(ctx, "books", created.ID, created.ETag)
	assert.ErrorIs(t, err, ErrNotModified)

	// Unconditional read
	fetched, err := c.Get(ctx, "books", created.ID, "")
	assert.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.NotEmpty(t, fetched.LastModified)

	// Guarded update
	updated, err := c.Update(ctx, "books", created.ID, map[string]any{"title": "The Whale"}, created.ETag)
	assert.NoError(t, err)
	assert.Equal(t, "2", updated.ETag)

	// Stale guard loses
	_, err = c.Update(ctx, "books", created.ID, map[string]any{"title": "Typee"}, created.ETag)
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	// Merge patch keeps untouched fields
	patched, err := c.Patch(ctx, "books", created.ID, map[string]any{"pages": 635}, updated.ETag)
	assert.NoError(t, err)
	assert.Equal(t, float64(635), patched.Document["pages"])
	assert.Equal(t, "The Whale", patched.Document["title"])

	// List
	page, err := c.List(ctx, "books", ListOptions{Size: 10})
	assert.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, int64(1), page.Page.TotalElements)

	// Search finds the indexed record
	results, err := c.Search(ctx, "books", "title", "the whale", ListOptions{})
	assert.NoError(t, err)
	assert.Len(t, results.Items, 1)

	// Delete
	assert.NoError(t, c.Delete(ctx, "books", created.ID, patched.ETag))

	_, err = c.Get(ctx, "books", created.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

// statusServer runs a record server and reports the status code of the
// most recent response.
func statusServer(t *testing.T) (string, func() int) {
	t.Helper()

	srv, err := server.New(newTestServerConfig(t))
	assert.NoError(t, err)

	var (
		mu   sync.Mutex
		last int
	)

	handler := srv.Handler()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(&statusWriter{ResponseWriter: w, mu: &mu, last: &last}, r)
	}))
	t.Cleanup(ts.Close)

	return ts.URL, func() int {
		mu.Lock()
		defer mu.Unlock()

		return last
	}
}

type statusWriter struct {
	http.ResponseWriter
	mu   *sync.Mutex
	last *int
}

func (w *statusWriter) WriteHeader(status int) {
	w.mu.Lock()
	*w.last = status
	w.mu.Unlock()

	w.ResponseWriter.WriteHeader(status)
}

func TestClientCachesRecords(t *testing.T) {
	ctx := t.Context()
	address, lastStatus := statusServer(t)

	c, err := New(ctx, WithConfig(&Config{ServerAddress: address}))
	assert.NoError(t, err)

	created, err := c.Create(ctx, "books", map[string]any{"title": "Moby Dick"})
	assert.NoError(t, err)

	// A plain read revalidates the copy cached by the create
	fetched, err := c.Get(ctx, "books", created.ID, "")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotModified, lastStatus())
	assert.Equal(t, "Moby Dick", fetched.Document["title"])
	assert.Equal(t, created.ID, fetched.ID)
	assert.NotEmpty(t, fetched.LastModified)

	// Callers own their documents
	fetched.Document["title"] = "scribbled over"

	again, err := c.Get(ctx, "books", created.ID, "")
	assert.NoError(t, err)
	assert.Equal(t, "Moby Dick", again.Document["title"])

	// Writes refresh the cached copy
	_, err = c.Update(ctx, "books", created.ID, map[string]any{"title": "The Whale"}, "")
	assert.NoError(t, err)

	fetched, err = c.Get(ctx, "books", created.ID, "")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotModified, lastStatus())
	assert.Equal(t, "The Whale", fetched.Document["title"])

	// A change made elsewhere misses the cache and refetches
	other, err := New(ctx, WithConfig(&Config{ServerAddress: address}))
	assert.NoError(t, err)

	_, err = other.Update(ctx, "books", created.ID, map[string]any{"title": "Typee"}, "")
	assert.NoError(t, err)

	fetched, err = c.Get(ctx, "books", created.ID, "")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, lastStatus())
	assert.Equal(t, "Typee", fetched.Document["title"])
}

func TestClientTimeouts(t *testing.T) {
	c, err := New(t.Context(), WithConfig(&Config{ServerAddress: DefaultServerAddress, Timeout: 5 * time.Second}))
	assert.NoError(t, err)
	assert.Equal(t, 5*time.Second, c.httpc.Timeout)

	// Unset timeouts fall back to the default
	c, err = New(t.Context(), WithConfig(&Config{ServerAddress: DefaultServerAddress}))
	assert.NoError(t, err)
	assert.Equal(t, DefaultTimeout, c.httpc.Timeout)
}

func TestClientUpdateCreates(t *testing.T) {
	c := newTestClient(t, newTestServerConfig(t), nil)

	created, err := c.Update(t.Context(), "books", "moby-dick", map[string]any{"title": "Moby Dick"}, "")
	assert.NoError(t, err)
	assert.Equal(t, "moby-dick", created.ID)
	assert.Equal(t, "1", created.ETag)
}

func TestClientIndex(t *testing.T) {
	c := newTestClient(t, newTestServerConfig(t), nil)

	index, err := c.Index(t.Context())
	assert.NoError(t, err)

	_, ok := index.Link("books")
	assert.True(t, ok)
}

func TestClientErrors(t *testing.T) {
	c := newTestClient(t, newTestServerConfig(t), nil)
	ctx := t.Context()

	_, err := c.List(ctx, "shelves", ListOptions{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Search(ctx, "books", "title", "", ListOptions{})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = c.Get(ctx, "books", "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientAuth(t *testing.T) {
	cfg := newTestServerConfig(t)
	cfg.AuthSecret = "opensesame"

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "ishmael",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(cfg.AuthSecret))
	assert.NoError(t, err)

	c := newTestClient(t, cfg, &Config{AuthToken: token})

	index, err := c.Index(t.Context())
	assert.NoError(t, err)
	assert.NotNil(t, index)

	// Anonymous requests bounce
	c.config.AuthToken = ""

	_, err = c.Index(t.Context())
	assert.ErrorIs(t, err, ErrUnauthorized)
}
