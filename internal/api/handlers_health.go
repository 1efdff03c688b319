// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/filmrec/internal/models"
)

const readinessPingTimeout = 2 * time.Second

// HealthLive reports that the process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"status":         "alive",
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	}, time.Now())
}

// HealthReady reports ready once the store answers and a model is published.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	dbOK := true
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessPingTimeout)
		dbOK = h.db.Ping(ctx) == nil
		cancel()
	}

	status := h.engine.Status()
	health := models.HealthStatus{
		Status:       "ready",
		Database:     dbOK,
		ModelTrained: h.engine.IsTrained(),
		ModelVersion: status.ModelVersion,
	}

	code := http.StatusOK
	if !health.Database || !health.ModelTrained {
		health.Status = "not_ready"
		code = http.StatusServiceUnavailable
	}
	respondSuccess(w, code, health, start)
}
