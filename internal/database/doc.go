// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

// Package database is the DuckDB-backed rating store.
//
// The store holds a single denormalized table, user_movie_summary, with one
// row per (user, movie) rating joined with the movie title and genres. It is
// rebuilt wholesale by ReplaceSummary from the CSV ingest and read by the
// recommendation engine through the recommend.RatingSource methods Ratings,
// Catalog and RatedItems.
//
// Ratings are stored as DECIMAL(3,1), so values are kept to one decimal place.
//
// Queries without a caller deadline are bounded by a 30 second timeout.
package database
