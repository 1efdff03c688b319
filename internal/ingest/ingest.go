// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

// Package ingest loads MovieLens-style CSV files into the rating store.
//
// movies.csv and ratings.csv are matched by header name, inner-joined on
// movieId and written through a SummaryWriter in one replace operation.
// Ratings whose movie is missing from movies.csv are dropped and counted.
package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tomtom215/filmrec/internal/logging"
	"github.com/tomtom215/filmrec/internal/metrics"
	"github.com/tomtom215/filmrec/internal/models"
)

// SummaryWriter replaces the contents of the rating store.
type SummaryWriter interface {
	ReplaceSummary(ctx context.Context, rows []models.SummaryRow) (int, error)
}

// Result reports what an ingest run did.
type Result struct {
	Movies   int
	Ratings  int
	Written  int
	Dropped  int
	Duration time.Duration
}

// Join inner-joins ratings with movies, preserving rating order. It returns
// the joined rows and the number of ratings without a matching movie.
func Join(ratings []RawRating, movies map[int64]Movie) ([]models.SummaryRow, int) {
	rows := make([]models.SummaryRow, 0, len(ratings))
	dropped := 0
	for _, r := range ratings {
		m, ok := movies[r.MovieID]
		if !ok {
			dropped++
			continue
		}
		rows = append(rows, models.SummaryRow{
			UserID:    r.UserID,
			MovieID:   r.MovieID,
			Rating:    r.Rating,
			Timestamp: r.Timestamp,
			Title:     m.Title,
			Genres:    m.Genres,
		})
	}
	return rows, dropped
}

// Files reads both CSV files, joins them and replaces the store contents.
func Files(ctx context.Context, w SummaryWriter, moviesPath, ratingsPath string) (*Result, error) {
	start := time.Now()

	movies, err := readFile(ctx, moviesPath, ReadMovies)
	if err != nil {
		return nil, err
	}
	ratings, err := readFile(ctx, ratingsPath, ReadRatings)
	if err != nil {
		return nil, err
	}

	rows, dropped := Join(ratings, movies)
	if dropped > 0 {
		logging.Warn().
			Int("dropped", dropped).
			Str("ratings_csv", ratingsPath).
			Msg("Ratings reference movies missing from movies.csv")
	}

	written, err := w.ReplaceSummary(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}
	metrics.RecordIngest(written, dropped)

	res := &Result{
		Movies:   len(movies),
		Ratings:  len(ratings),
		Written:  written,
		Dropped:  dropped,
		Duration: time.Since(start),
	}
	logging.Info().
		Int("movies", res.Movies).
		Int("ratings", res.Ratings).
		Int("written", res.Written).
		Dur("duration", res.Duration).
		Msg("CSV ingest complete")
	return res, nil
}

func readFile[T any](ctx context.Context, path string, parse func(context.Context, io.Reader, string) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return zero, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logging.Warn().Err(cerr).Str("path", path).Msg("Failed to close file")
		}
	}()
	return parse(ctx, f, path)
}
