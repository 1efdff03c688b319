// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/filmrec/internal/logging"
	"github.com/tomtom215/filmrec/internal/metrics"
	"github.com/tomtom215/filmrec/internal/models"
	"github.com/tomtom215/filmrec/internal/recommend"
)

// ModelStatusResponse is the payload of GET /model/status.
type ModelStatusResponse struct {
	recommend.TrainingStatus
	Trained  bool  `json:"trained"`
	Requests int64 `json:"requests"`
	Errors   int64 `json:"errors"`
}

// Recommendations handles GET /api/v1/recommendations/{userID}?n=5.
// The model is trained on demand if none is published yet.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, perr := parseRecommendationsRequest(r)
	if perr != nil {
		metrics.RecordRecommendation("bad_request")
		respondError(w, http.StatusBadRequest, perr.code, perr.message, perr.err)
		return
	}
	if apiErr := validateRequest(req); apiErr != nil {
		metrics.RecordRecommendation("bad_request")
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	resp, err := h.engine.Recommend(r.Context(), recommend.Request{
		UserID:    req.UserID,
		N:         req.N,
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
	if err != nil {
		metrics.RecordRecommendation(respondEngineError(w, err))
		return
	}

	metrics.RecordRecommendation(metrics.ResultSuccess)
	respondSuccess(w, http.StatusOK, resp, start)
}

// Prediction handles GET /api/v1/predictions/{userID}/{itemID}.
func (h *Handler) Prediction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, perr := parsePredictionRequest(r)
	if perr != nil {
		metrics.RecordPredictionError("bad_request")
		respondError(w, http.StatusBadRequest, perr.code, perr.message, perr.err)
		return
	}

	pred, err := h.engine.Predict(r.Context(), req.UserID, req.ItemID)
	if err != nil {
		metrics.RecordPredictionError(respondEngineError(w, err))
		return
	}

	respondSuccess(w, http.StatusOK, models.PredictionResponse{
		UserID:       pred.UserID,
		ItemID:       pred.ItemID,
		Rating:       pred.Score,
		ModelVersion: pred.ModelVersion,
		ModelID:      pred.ModelID,
	}, start)
}

// TrainModel handles POST /api/v1/model/train. The retrain runs in the
// background; 202 means it was scheduled, not that it succeeded.
func (h *Handler) TrainModel(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.trainer == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Training service is not running", nil)
		return
	}
	if h.engine.Status().IsTraining {
		respondError(w, http.StatusConflict, ErrCodeTrainingInProgress, "A training run is already in progress", nil)
		return
	}
	if !h.trainLimiter.Allow() {
		respondError(w, http.StatusTooManyRequests, ErrCodeTooManyRequests, "Retrain requested too recently", nil)
		return
	}
	if !h.trainer.Trigger() {
		respondError(w, http.StatusConflict, ErrCodeTrainingInProgress, "A retrain is already scheduled", nil)
		return
	}

	logging.Ctx(r.Context()).Info().Msg("Manual retrain scheduled")
	respondSuccess(w, http.StatusAccepted, models.TrainAccepted{Message: "Retrain scheduled"}, start)
}

// ModelStatus handles GET /api/v1/model/status.
func (h *Handler) ModelStatus(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	respondSuccess(w, http.StatusOK, ModelStatusResponse{
		TrainingStatus: h.engine.Status(),
		Trained:        h.engine.IsTrained(),
		Requests:       h.engine.RequestCount(),
		Errors:         h.engine.ErrorCount(),
	}, start)
}
