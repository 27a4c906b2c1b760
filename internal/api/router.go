// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quartermasterhq/quartermaster/internal/config"
	"github.com/quartermasterhq/quartermaster/internal/middleware"
)

// Router assembles the HTTP surface from the handler set and server
// configuration.
type Router struct {
	handlers *Handlers
	server   config.ServerConfig
	security config.SecurityConfig
}

// NewRouter creates a router over the given handlers.
func NewRouter(handlers *Handlers, server config.ServerConfig, security config.SecurityConfig) *Router {
	return &Router{handlers: handlers, server: server, security: security}
}

// Setup builds the route tree with the full middleware stack.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/api/v1/health", rt.handlers.Health)

	// Data endpoints: rate limited, instrumented, authenticated.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(rt.server.RateLimitReqs, rt.server.RateLimitWindow))
		r.Use(middleware.PrometheusMetrics)
		r.Use(middleware.Auth(rt.security.JWTSecret, rt.security.AuthDisabled))

		r.Route("/assets", func(r chi.Router) {
			r.Get("/", rt.handlers.ListAssets)
			r.Post("/", rt.handlers.CreateAsset)
			r.Get("/code/{code}", rt.handlers.GetAssetByCode)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", rt.handlers.GetAsset)
				r.Put("/", rt.handlers.UpdateAsset)
				r.Delete("/", rt.handlers.DeleteAsset)
				r.Post("/checkout", rt.handlers.CheckOutAsset)
				r.Post("/checkin", rt.handlers.CheckInAsset)
			})
		})

		r.Get("/assignments", rt.handlers.ListAssignments)

		r.Route("/inspections", func(r chi.Router) {
			r.Get("/", rt.handlers.ListInspections)
			r.Post("/", rt.handlers.CreateInspection)
			r.Get("/summary", rt.handlers.InspectionSummary)
		})

		r.Get("/audit/recent", rt.handlers.RecentAudit)

		r.Get("/users", rt.handlers.ListUsers)
		r.Get("/companies", rt.handlers.ListCompanies)

		r.Post("/scan/resolve", rt.handlers.ResolveScan)
		r.Post("/scan/decode", rt.handlers.DecodeScan)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
