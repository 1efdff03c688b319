// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package models

import "time"

// SummaryRow is one rating joined with its movie metadata. It is the row
// shape of the user_movie_summary table.
type SummaryRow struct {
	UserID    int64     `json:"user_id"`
	MovieID   int64     `json:"movie_id"`
	Rating    float64   `json:"rating"`
	Timestamp time.Time `json:"rated_at"`
	Title     string    `json:"title"`
	Genres    string    `json:"genres"`
}

// SummaryStats describes the contents of the rating store.
type SummaryStats struct {
	Ratings     int64     `json:"ratings"`
	Users       int64     `json:"users"`
	Movies      int64     `json:"movies"`
	MeanRating  float64   `json:"mean_rating"`
	FirstRating time.Time `json:"first_rating,omitempty"`
	LastRating  time.Time `json:"last_rating,omitempty"`
}
