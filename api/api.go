// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"
)

const DefaultListenAddress = ":8080"

// APIConfig holds the listener settings of the API server
type APIConfig struct {
	ListenAddress string
	// CorsOrigins lists the browser origins allowed to call the API. An
	// empty list allows any origin.
	CorsOrigins []string
	// MaxRequestsPerIP caps concurrent requests per client address, zero
	// disables the limit
	MaxRequestsPerIP int
}

// API is the REST query and command surface of the ledger
type API struct {
	config     APIConfig
	logger     *slog.Logger
	ledger     Ledger
	httpServer *http.Server
	limiter    *ipLimiter
	mu         sync.Mutex
}

// New creates a new API server instance
func New(
	cfg APIConfig,
	ledger Ledger,
	logger *slog.Logger,
) *API {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	a := &API{
		config: cfg,
		logger: logger,
		ledger: ledger,
	}
	if cfg.MaxRequestsPerIP > 0 {
		a.limiter = newIPLimiter(cfg.MaxRequestsPerIP)
	}
	return a
}

// Handler returns the HTTP handler serving every route, wrapped with
// request ID, logging, per-address limit and CORS middleware
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", a.handleRoot)
	mux.HandleFunc("GET /health", a.handleHealth)

	// Queries
	mux.HandleFunc("GET /api/v0/projects", a.handleListProjects)
	mux.HandleFunc("GET /api/v0/projects/{id}", a.handleGetProject)
	mux.HandleFunc(
		"GET /api/v0/projects/{id}/proposals",
		a.handleProjectProposals,
	)
	mux.HandleFunc(
		"GET /api/v0/projects/{id}/activities",
		a.handleProjectActivities,
	)
	mux.HandleFunc(
		"GET /api/v0/projects/{id}/stakers",
		a.handleProjectStakers,
	)
	mux.HandleFunc(
		"GET /api/v0/projects/{id}/stakes/{holder}",
		a.handleUserStake,
	)
	mux.HandleFunc("GET /api/v0/projects/{id}/audit", a.handleAudit)
	mux.HandleFunc("GET /api/v0/proposals/{id}", a.handleGetProposal)
	mux.HandleFunc(
		"GET /api/v0/proposals/{id}/votes",
		a.handleListVotes,
	)
	mux.HandleFunc(
		"GET /api/v0/proposals/{id}/votes/{voter}",
		a.handleHasVoted,
	)

	// Commands
	mux.HandleFunc("POST /api/v0/projects", a.handleCreateProject)
	mux.HandleFunc(
		"POST /api/v0/projects/{id}/active",
		a.handleSetProjectActive,
	)
	mux.HandleFunc("POST /api/v0/projects/{id}/stake", a.handleStake)
	mux.HandleFunc(
		"POST /api/v0/projects/{id}/unstake",
		a.handleRequestUnstake,
	)
	mux.HandleFunc(
		"POST /api/v0/projects/{id}/unstake/complete",
		a.handleCompleteUnstake,
	)
	mux.HandleFunc(
		"POST /api/v0/projects/{id}/proposals",
		a.handleCreateProposal,
	)
	mux.HandleFunc("POST /api/v0/proposals/{id}/vote", a.handleVote)
	mux.HandleFunc(
		"POST /api/v0/proposals/{id}/finalize",
		a.handleFinalize,
	)
	mux.HandleFunc(
		"POST /api/v0/proposals/{id}/execute",
		a.handleExecute,
	)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: a.config.CorsOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Content-Type",
			CallerHeader,
			RequestIDHeader,
		},
		ExposedHeaders: []string{
			RequestIDHeader,
			"X-Pagination-Count-Total",
			"X-Pagination-Page-Total",
		},
	})
	return corsHandler.Handler(a.withRequestLogging(a.withIPLimit(mux)))
}

// Start starts the HTTP server in a background goroutine
func (a *API) Start(
	ctx context.Context,
) error {
	a.mu.Lock()
	if a.httpServer != nil {
		a.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr:              a.config.ListenAddress,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	a.httpServer = server
	a.mu.Unlock()

	// Bind first so port conflicts are reported immediately
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		a.mu.Lock()
		a.httpServer = nil
		a.mu.Unlock()
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			a.logger.Error(
				"API server error",
				"error", err,
			)
		}
	}()

	a.logger.Info(
		"API listener started",
		"address", ln.Addr().String(),
	)

	// Monitor context for cancellation
	go func() {
		<-ctx.Done()
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			30*time.Second,
		)
		defer cancel()
		//nolint:contextcheck
		if err := a.Stop(shutdownCtx); err != nil {
			a.logger.Error(
				"failed to shutdown API server on context cancellation",
				"error", err,
			)
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server
func (a *API) Stop(
	ctx context.Context,
) error {
	a.mu.Lock()
	srv := a.httpServer
	a.httpServer = nil
	a.mu.Unlock()

	if srv != nil {
		a.logger.Debug("shutting down API server")
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown API server: %w", err)
		}
	}
	return nil
}
