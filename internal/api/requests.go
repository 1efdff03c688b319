// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/filmrec/internal/models"
	"github.com/tomtom215/filmrec/internal/validation"
)

// RecommendationsRequest is the parsed input of GET /recommendations/{userID}.
// N of zero selects the engine default; the engine also clamps N to its MaxN.
type RecommendationsRequest struct {
	UserID int64 `json:"user_id"`
	N      int   `json:"n" validate:"omitempty,min=1,max=1000"`
}

// PredictionRequest is the parsed input of GET /predictions/{userID}/{itemID}.
type PredictionRequest struct {
	UserID int64 `json:"user_id"`
	ItemID int64 `json:"item_id"`
}

// paramError is a malformed path or query parameter.
type paramError struct {
	code    string
	message string
	err     error
}

func pathInt64(r *http.Request, name, code string) (int64, *paramError) {
	raw := chi.URLParam(r, name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &paramError{code: code, message: "Invalid " + name + ": " + strconv.Quote(raw), err: err}
	}
	return v, nil
}

func parseRecommendationsRequest(r *http.Request) (*RecommendationsRequest, *paramError) {
	userID, perr := pathInt64(r, "userID", ErrCodeInvalidUserID)
	if perr != nil {
		return nil, perr
	}
	req := &RecommendationsRequest{UserID: userID}
	if raw := r.URL.Query().Get("n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &paramError{code: validation.ErrorCode, message: "n must be an integer", err: err}
		}
		req.N = n
	}
	return req, nil
}

func parsePredictionRequest(r *http.Request) (*PredictionRequest, *paramError) {
	userID, perr := pathInt64(r, "userID", ErrCodeInvalidUserID)
	if perr != nil {
		return nil, perr
	}
	itemID, perr := pathInt64(r, "itemID", ErrCodeInvalidItemID)
	if perr != nil {
		return nil, perr
	}
	return &PredictionRequest{UserID: userID, ItemID: itemID}, nil
}

// validateRequest returns nil or the API error for a failed struct validation.
func validateRequest(v interface{}) *models.APIError {
	if verr := validation.ValidateStruct(v); verr != nil {
		return verr.ToAPIError()
	}
	return nil
}
