// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package recommend

import (
	"context"
	"math"
	"time"
)

// Rating is a single explicit (user, item, value) observation.
type Rating struct {
	UserID int64   `json:"user_id"`
	ItemID int64   `json:"item_id"`
	Value  float64 `json:"rating"`
}

// Scale is the closed interval that every rating and prediction lies in.
type Scale struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the scale bounds.
func (s Scale) Contains(v float64) bool {
	return v >= s.Min && v <= s.Max
}

// Clip clamps v to the scale bounds. NaN maps to Min so a result is always
// inside the scale and orders below every real score.
func (s Scale) Clip(v float64) float64 {
	if math.IsNaN(v) || v < s.Min {
		return s.Min
	}
	if v > s.Max {
		return s.Max
	}
	return v
}

// CatalogEntry decorates an item id with its display title.
// It carries no weight in prediction.
type CatalogEntry struct {
	ItemID int64  `json:"item_id"`
	Title  string `json:"title"`
}

// Recommendation is an item with its unrounded predicted rating.
type Recommendation struct {
	ItemID int64   `json:"item_id"`
	Title  string  `json:"title"`
	Score  float64 `json:"score"`
}

// RatingSource supplies the training data and catalog.
// The database package provides the production implementation.
type RatingSource interface {
	// Ratings returns every known rating triple.
	Ratings(ctx context.Context) ([]Rating, error)

	// Catalog returns all items with their titles, in a stable order.
	Catalog(ctx context.Context) ([]CatalogEntry, error)

	// RatedItems returns the ids of items the user has already rated.
	RatedItems(ctx context.Context, userID int64) ([]int64, error)
}

// Request describes a recommendation query.
type Request struct {
	// UserID is the target user.
	UserID int64 `json:"user_id"`

	// N is the number of items to return. Zero means the configured default.
	N int `json:"n"`

	// RequestID is propagated to logs.
	RequestID string `json:"request_id,omitempty"`
}

// Response contains a ranked recommendation list.
type Response struct {
	UserID       int64            `json:"user_id"`
	Items        []Recommendation `json:"items"`
	ModelVersion int              `json:"model_version"`
	ModelID      string           `json:"model_id"`
	GeneratedAt  time.Time        `json:"generated_at"`
	LatencyMS    int64            `json:"latency_ms"`
	RequestID    string           `json:"request_id,omitempty"`
}

// Prediction is a single clipped rating estimate and the model behind it.
type Prediction struct {
	UserID       int64   `json:"user_id"`
	ItemID       int64   `json:"item_id"`
	Score        float64 `json:"score"`
	ModelVersion int     `json:"model_version"`
	ModelID      string  `json:"model_id"`
}

// TrainingStatus reports the state of the most recent training run.
type TrainingStatus struct {
	// IsTraining indicates whether a run is active.
	IsTraining bool `json:"is_training"`

	// ModelVersion is the sequence number of the published model.
	ModelVersion int `json:"model_version"`

	// ModelID uniquely identifies the published model across restarts.
	ModelID string `json:"model_id,omitempty"`

	// LastTrainedAt is when the published model finished training.
	LastTrainedAt time.Time `json:"last_trained_at,omitempty"`

	// LastDuration is the wall time of the last successful run.
	LastDuration time.Duration `json:"last_duration"`

	// RatingCount is the number of matrix entries trained on.
	RatingCount int `json:"rating_count"`

	// SkippedCount is the number of malformed ratings dropped.
	SkippedCount int `json:"skipped_count"`

	// UserCount and ItemCount size the factor arrays.
	UserCount int `json:"user_count"`
	ItemCount int `json:"item_count"`

	// TrainRMSE is the root mean squared error over the final epoch.
	TrainRMSE float64 `json:"train_rmse"`

	// LastError is the error from the last failed run, if any.
	LastError string `json:"last_error,omitempty"`
}
