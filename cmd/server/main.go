// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

// Package main is the entry point for the Quartermaster server.
//
// Quartermaster is the data-access core of a multi-tenant asset
// tracking service. It fronts a hosted PostgREST-style backend with an
// offline-tolerant facade: reads mirror confirmed rows into a local
// BadgerDB snapshot, and when the backend is unreachable the same
// reads are served from that snapshot instead of failing.
//
// # Application Architecture
//
// Initialization order:
//
//  1. Configuration: Koanf v2 layered sources (defaults, config.yaml,
//     QM_-prefixed environment variables)
//  2. Local cache: BadgerDB snapshot store (optional, on by default)
//  3. Gateway: HTTP row client for the hosted backend, wrapped in a
//     circuit breaker
//  4. Stores: generic offline-tolerant facades for assets,
//     assignments and inspections, plus the check-out service
//  5. Audit: fire-and-forget trail writer on a Watermill in-process bus
//  6. HTTP API: chi router with JWT verification, rate limiting,
//     CORS and Prometheus metrics
//  7. Supervision: Suture tree running the audit writer and the HTTP
//     server in separate layers
//
// # Configuration
//
// The mandatory settings are the backend coordinates:
//
//	export QM_GATEWAY_URL=https://xyzcompany.example.co
//	export QM_GATEWAY_API_KEY=your-api-key
//	export QM_SECURITY_JWT_SECRET=$(openssl rand -base64 32)
//	./quartermaster
//
// For development without tokens:
//
//	export QM_SECURITY_AUTH_DISABLED=true
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger a graceful shutdown: the HTTP server
// drains in-flight requests, the audit writer flushes its queue, and
// the cache store closes its value log.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/quartermasterhq/quartermaster/internal/api"
	"github.com/quartermasterhq/quartermaster/internal/audit"
	"github.com/quartermasterhq/quartermaster/internal/cache"
	"github.com/quartermasterhq/quartermaster/internal/config"
	"github.com/quartermasterhq/quartermaster/internal/gateway"
	"github.com/quartermasterhq/quartermaster/internal/logging"
	"github.com/quartermasterhq/quartermaster/internal/models"
	"github.com/quartermasterhq/quartermaster/internal/store"
	"github.com/quartermasterhq/quartermaster/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config is not available yet, so this uses the default logger.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("gateway_url", cfg.Gateway.URL).
		Bool("cache_enabled", cfg.Cache.Enabled).
		Bool("breaker", cfg.Gateway.Breaker).
		Bool("auth_disabled", cfg.Security.AuthDisabled).
		Msg("Configuration loaded")

	// Local snapshot store. Opening is lazy, so a bad path degrades to
	// remote-only operation instead of refusing to start.
	var snapshots store.Cache
	var cacheStore *cache.Store
	if cfg.Cache.Enabled {
		cacheStore = cache.NewStore(cfg.Cache.Path)
		snapshots = cacheStore
		defer func() {
			if err := cacheStore.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing cache store")
			}
		}()
	} else {
		logging.Info().Msg("Local cache disabled, reads fail when the gateway does")
	}

	// Gateway row client, circuit-broken unless disabled.
	var rows gateway.RowClient = gateway.NewClient(&cfg.Gateway)
	if cfg.Gateway.Breaker {
		rows = gateway.NewBreaker("gateway", rows)
	}

	assets := store.New[models.Asset](rows, snapshots, "assets")
	assignments := store.New[models.Assignment](rows, snapshots, "assignments")
	inspections := store.New[models.Inspection](rows, snapshots, "inspections")
	directory := store.NewDirectory(
		store.New[models.User](rows, snapshots, "users"),
		store.New[models.Company](rows, snapshots, "companies"),
	)

	// Audit trail. When disabled, entries stay in a bounded in-memory
	// ring so the recent-activity endpoint still works.
	var trail audit.Store
	if cfg.Audit.Enabled {
		trail = audit.NewGatewayStore(rows, cfg.Audit.Table)
	} else {
		trail = audit.NewMemoryStore(cfg.Audit.BufferSize)
	}
	writer := audit.NewWriter(trail, cfg.Audit.BufferSize)
	defer func() {
		if err := writer.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing audit writer")
		}
	}()

	service := store.NewAssetService(assets, assignments, writer)

	handlers := api.NewHandlers(assets, service, assignments, inspections, trail, directory, cfg.Scanner)
	router := api.NewRouter(handlers, cfg.Server, cfg.Security)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddWorker(writer)
	tree.AddAPIService(supervisor.NewHTTPService(httpServer, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", httpServer.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for services to stop")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain until the supervisor finishes.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped gracefully")
}
