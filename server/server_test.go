// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

//nolint:testifylint
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/datarest/datarest/api/hal"
	"github.com/datarest/datarest/server/config"
	storeconfig "github.com/datarest/datarest/server/store/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig
	cfg.Store.Provider = storeconfig.ProviderLocalFS
	cfg.Store.LocalFS.Dir = t.TempDir()
	cfg.Search.Enabled = true
	cfg.Collections = []string{"books"}

	return &cfg
}

func TestServerServesRecords(t *testing.T) {
	srv, err := New(newTestConfig(t))
	assert.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	// Create a record through the full middleware chain
	resp, err := http.Post(ts.URL+"/books", "application/json", strings.NewReader(`{"title": "Moby Dick"}`))
	assert.NoError(t, err)

	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
	assert.NotEmpty(t, resp.Header.Get("ETag"))
	assert.NotEmpty(t, resp.Header.Get("Location"))

	// The record comes back through the listing
	listResp, err := http.Get(ts.URL + "/books")
	assert.NoError(t, err)

	defer listResp.Body.Close()

	assert.Equal(t, http.StatusOK, listResp.StatusCode)

	data, err := io.ReadAll(listResp.Body)
	assert.NoError(t, err)

	coll := &hal.CollectionResource{}
	assert.NoError(t, json.Unmarshal(data, coll))
	assert.Len(t, coll.Items, 1)
	assert.Equal(t, int64(1), coll.Page.TotalElements)

	// Unknown routes still carry a request id
	missResp, err := http.Get(ts.URL + "/books/nope")
	assert.NoError(t, err)

	defer missResp.Body.Close()

	assert.Equal(t, http.StatusNotFound, missResp.StatusCode)
	assert.NotEmpty(t, missResp.Header.Get("X-Request-Id"))
}

func TestServerRequiresToken(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.AuthSecret = "opensesame"

	srv, err := New(cfg)
	assert.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	// No token
	resp, err := http.Get(ts.URL + "/")
	assert.NoError(t, err)

	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Signed token
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "ishmael",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(cfg.AuthSecret))
	assert.NoError(t, err)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, ts.URL+"/", nil)
	assert.NoError(t, err)

	req.Header.Set("Authorization", "Bearer "+token)

	authResp, err := http.DefaultClient.Do(req)
	assert.NoError(t, err)

	defer authResp.Body.Close()

	assert.Equal(t, http.StatusOK, authResp.StatusCode)
}

func TestServerRunStopsOnCancel(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.ListenAddress = "127.0.0.1:0"

	srv, err := New(cfg)
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())

	done := make(chan error, 1)

	go func() {
		done <- srv.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
