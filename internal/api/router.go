// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

// Package api serves recommendations over HTTP using the Chi router.
//
// Routes:
//
//	GET  /api/v1/health/live
//	GET  /api/v1/health/ready
//	GET  /api/v1/recommendations/{userID}?n=5
//	GET  /api/v1/predictions/{userID}/{itemID}
//	POST /api/v1/model/train
//	GET  /api/v1/model/status
//	GET  /metrics
//
// Every JSON response uses the models.APIResponse envelope.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/filmrec/internal/middleware"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	timeout       time.Duration
}

// NewRouter creates a router. A zero timeout disables the per-request deadline.
func NewRouter(handler *Handler, mw *ChiMiddleware, timeout time.Duration) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw, timeout: timeout}
}

// SetupChi builds the HTTP handler with all routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogging())
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", nil)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(chimiddleware.Compress(5, "application/json"))
		if router.timeout > 0 {
			r.Use(chimiddleware.Timeout(router.timeout))
		}

		r.Get("/recommendations/{userID}", router.handler.Recommendations)
		r.Get("/predictions/{userID}/{itemID}", router.handler.Prediction)
		r.Post("/model/train", router.handler.TrainModel)
		r.Get("/model/status", router.handler.ModelStatus)
	})

	return r
}
