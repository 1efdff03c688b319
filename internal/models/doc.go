// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

// Package models defines data structures shared across packages: the joined
// rating rows written by ingest and read by the database, and the JSON
// envelope returned by the HTTP API.
package models
