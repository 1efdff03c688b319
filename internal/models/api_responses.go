// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package models

import "time"

// APIResponse is the envelope for every JSON API response.
//
// Success:
//
//	{"status":"success","data":{...},"metadata":{"timestamp":"...","query_time_ms":3}}
//
// Failure:
//
//	{"status":"error","data":null,"metadata":{...},"error":{"code":"UNKNOWN_USER","message":"..."}}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries timing information for a response.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError is a machine-readable code plus a human-readable message.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// PredictionResponse is the payload of the prediction endpoint.
type PredictionResponse struct {
	UserID       int64   `json:"user_id"`
	ItemID       int64   `json:"item_id"`
	Rating       float64 `json:"predicted_rating"`
	ModelVersion int     `json:"model_version"`
	ModelID      string  `json:"model_id"`
}

// HealthStatus is the payload of the readiness endpoint.
type HealthStatus struct {
	Status       string `json:"status"`
	Database     bool   `json:"database"`
	ModelTrained bool   `json:"model_trained"`
	ModelVersion int    `json:"model_version,omitempty"`
}

// TrainAccepted is returned when a manual retrain has been started.
type TrainAccepted struct {
	Message string `json:"message"`
}
