// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package api

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/filmrec/internal/config"
	"github.com/tomtom215/filmrec/internal/recommend"
)

// Pinger reports whether the rating store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Trainer schedules a background retrain. Trigger returns false when a
// retrain is already pending.
type Trainer interface {
	Trigger() bool
}

// Handler serves the recommendation API.
type Handler struct {
	engine       *recommend.Engine
	db           Pinger
	trainer      Trainer
	trainLimiter *rate.Limiter
	startTime    time.Time
}

// NewHandler creates a handler. db and trainer may be nil; without a trainer
// the retrain endpoint reports the service as unavailable.
func NewHandler(engine *recommend.Engine, db Pinger, trainer Trainer, cfg *config.APIConfig) *Handler {
	limit := rate.Inf
	burst := 1
	if cfg != nil && cfg.TrainRateWindow > 0 {
		limit = rate.Every(cfg.TrainRateWindow)
		if cfg.TrainBurst > 0 {
			burst = cfg.TrainBurst
		}
	}

	return &Handler{
		engine:       engine,
		db:           db,
		trainer:      trainer,
		trainLimiter: rate.NewLimiter(limit, burst),
		startTime:    time.Now(),
	}
}
