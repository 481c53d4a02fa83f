// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/datarest/datarest/server/assembler"
	"github.com/datarest/datarest/server/auditing"
	"github.com/datarest/datarest/server/config"
	"github.com/datarest/datarest/server/controller"
	"github.com/datarest/datarest/server/datastore"
	"github.com/datarest/datarest/server/metadata"
	"github.com/datarest/datarest/server/middleware"
	"github.com/datarest/datarest/server/pager"
	"github.com/datarest/datarest/server/search"
	"github.com/datarest/datarest/server/store"
	"github.com/datarest/datarest/server/types"
	"github.com/datarest/datarest/utils/logging"
	"github.com/gorilla/mux"
	"github.com/spiffe/go-spiffe/v2/spiffeid"
	"github.com/spiffe/go-spiffe/v2/spiffetls/tlsconfig"
	"github.com/spiffe/go-spiffe/v2/workloadapi"
	"golang.org/x/sync/errgroup"
)

var logger = logging.Logger("server")

const shutdownTimeout = 5 * time.Second

// Server wires the record stack behind one HTTP listener.
type Server struct {
	cfg     *config.Config
	handler http.Handler
}

// New assembles the server from its configuration.
func New(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	logger.Debug("Creating server with config", "config", cfg)

	repo, err := store.New(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	searchAPI, err := newSearch(cfg.Search.Enabled, cfg.Search.Dir)
	if err != nil {
		return nil, err
	}

	collections, err := cfg.LoadCollections()
	if err != nil {
		return nil, err
	}

	registry, err := metadata.New(collections...)
	if err != nil {
		return nil, fmt.Errorf("failed to build collection registry: %w", err)
	}

	asm, err := assembler.New(pager.New(), auditing.New())
	if err != nil {
		return nil, fmt.Errorf("failed to create assembler: %w", err)
	}

	ctlr, err := controller.New(controller.Deps{
		Repo:             repo,
		Search:           searchAPI,
		Registry:         registry,
		Assembler:        asm,
		BaseURL:          cfg.BaseURL,
		DefaultPageSize:  cfg.DefaultPageSize,
		MaxPageSize:      cfg.MaxPageSize,
		OmitBodyOnCreate: !cfg.ReturnBodyOnCreate,
		OmitBodyOnUpdate: !cfg.ReturnBodyOnUpdate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create controller: %w", err)
	}

	router := mux.NewRouter()
	ctlr.Register(router)

	// Outermost first so every request carries an id into the logs.
	var handler http.Handler = router
	handler = middleware.BearerAuth(cfg.AuthSecret)(handler)
	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)

	return &Server{cfg: cfg, handler: handler}, nil
}

func newSearch(enabled bool, dir string) (types.SearchAPI, error) {
	if !enabled {
		return nil, nil
	}

	var opts []datastore.Option
	if dir != "" {
		opts = append(opts, datastore.WithFsProvider(dir))
	}

	dstore, err := datastore.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create search datastore: %w", err)
	}

	index, err := search.New(dstore)
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}

	return index, nil
}

// Handler returns the root HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until the context is canceled, then drains in-flight
// requests.
func (s *Server) Run(ctx context.Context) error {
	tlsConfig, closeSource, err := s.serverTLS(ctx)
	if err != nil {
		return err
	}

	if closeSource != nil {
		defer closeSource()
	}

	httpServer := &http.Server{
		Addr:              s.cfg.ListenAddress,
		Handler:           s.handler,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("Serving records", "address", s.cfg.ListenAddress, "mtls", tlsConfig != nil)

		var err error
		if tlsConfig != nil {
			// Certificates come from the TLS config.
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}

		return nil
	})

	return group.Wait() //nolint:wrapcheck
}

// serverTLS builds the SPIFFE mTLS configuration when a workload
// socket is configured. Client certificates are accepted from the
// configured trust domain, or from any trusted domain without one.
func (s *Server) serverTLS(ctx context.Context) (*tls.Config, func(), error) {
	if s.cfg.SpiffeSocketPath == "" {
		return nil, nil, nil
	}

	source, err := workloadapi.NewX509Source(ctx,
		workloadapi.WithClientOptions(workloadapi.WithAddr(s.cfg.SpiffeSocketPath)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create X509 source: %w", err)
	}

	authorizer := tlsconfig.AuthorizeAny()

	if s.cfg.SpiffeTrustDomain != "" {
		domain, err := spiffeid.TrustDomainFromString(s.cfg.SpiffeTrustDomain)
		if err != nil {
			_ = source.Close()

			return nil, nil, fmt.Errorf("failed to parse trust domain: %w", err)
		}

		authorizer = tlsconfig.AuthorizeMemberOf(domain)
	}

	closeSource := func() {
		if err := source.Close(); err != nil {
			logger.Error("failed to close X509 source", "error", err)
		}
	}

	return tlsconfig.MTLSServerConfig(source, source, authorizer), closeSource, nil
}
