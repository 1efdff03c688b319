// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/filmrec/internal/recommend"
)

// engineError is the HTTP rendering of an engine failure. Kind is the
// metrics label for the failure.
type engineError struct {
	Status  int
	Code    string
	Message string
	Kind    string
}

func classifyEngineError(err error) engineError {
	switch {
	case errors.Is(err, recommend.ErrUnknownUser):
		return engineError{http.StatusNotFound, ErrCodeUnknownUser, "User has no ratings in the trained model", "unknown_user"}
	case errors.Is(err, recommend.ErrColdStart):
		return engineError{http.StatusNotFound, ErrCodeColdStart, coldStartMessage(err), "cold_start"}
	case errors.Is(err, recommend.ErrTrainingInProgress):
		return engineError{http.StatusConflict, ErrCodeTrainingInProgress, "A training run is already in progress", "training_in_progress"}
	case errors.Is(err, recommend.ErrNotTrained):
		return engineError{http.StatusConflict, ErrCodeNotTrained, "No model has been trained yet", "not_trained"}
	case errors.Is(err, recommend.ErrEmptyTrainingSet):
		return engineError{http.StatusConflict, ErrCodeNoTrainingData, "The rating store is empty", "no_training_data"}
	case errors.Is(err, recommend.ErrEmptyCatalog):
		return engineError{http.StatusConflict, ErrCodeEmptyCatalog, "The movie catalog is empty", "empty_catalog"}
	case errors.Is(err, recommend.ErrTrainingDiverged):
		return engineError{http.StatusInternalServerError, ErrCodeTrainingFailed, "Training diverged; lower the learning rate", "training_diverged"}
	case errors.Is(err, recommend.ErrMalformedRating):
		return engineError{http.StatusInternalServerError, ErrCodeTrainingFailed, "Training data contains an out-of-scale rating", "malformed_rating"}
	case errors.Is(err, context.DeadlineExceeded):
		return engineError{http.StatusGatewayTimeout, ErrCodeTimeout, "Request timed out", "timeout"}
	case errors.Is(err, context.Canceled):
		return engineError{http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Request canceled", "canceled"}
	default:
		return engineError{http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", "internal"}
	}
}

func coldStartMessage(err error) string {
	var cs *recommend.ColdStartError
	if errors.As(err, &cs) {
		switch {
		case cs.UnknownUser && cs.UnknownItem:
			return "Neither the user nor the item is in the trained model"
		case cs.UnknownUser:
			return "User is not in the trained model"
		case cs.UnknownItem:
			return "Item is not in the trained model"
		}
	}
	return "User or item is not in the trained model"
}

// respondEngineError renders err and returns its metrics kind.
func respondEngineError(w http.ResponseWriter, err error) string {
	e := classifyEngineError(err)
	respondError(w, e.Status, e.Code, e.Message, err)
	return e.Kind
}
