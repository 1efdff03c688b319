// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/filmrec/internal/logging"
	"github.com/tomtom215/filmrec/internal/metrics"
	"github.com/tomtom215/filmrec/internal/models"
	"github.com/tomtom215/filmrec/internal/recommend"
)

var _ recommend.RatingSource = (*DB)(nil)

// ReplaceSummary swaps the table contents for rows in a single transaction.
// On failure the previous contents are left untouched.
func (db *DB) ReplaceSummary(ctx context.Context, rows []models.SummaryRow) (written int, err error) {
	defer observe("replace_summary", time.Now(), &err)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().
					Err(rbErr).
					AnErr("original_error", err).
					Msg("Transaction rollback failed")
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM "+SummaryTable); err != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", SummaryTable, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO user_movie_summary
		(user_id, movie_id, rating, rated_at, title, genres)
		VALUES (?, ?, CAST(? AS DOUBLE), ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	for i := range rows {
		r := &rows[i]
		var ratedAt interface{}
		if !r.Timestamp.IsZero() {
			ratedAt = r.Timestamp
		}
		if _, err = stmt.ExecContext(ctx, r.UserID, r.MovieID, r.Rating, ratedAt, r.Title, r.Genres); err != nil {
			return written, fmt.Errorf("failed to insert rating (user %d, movie %d): %w", r.UserID, r.MovieID, err)
		}
		written++
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return written, nil
}

// Ratings returns every rating in a stable order.
func (db *DB) Ratings(ctx context.Context) (_ []recommend.Rating, err error) {
	defer observe("ratings", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT user_id, movie_id, CAST(rating AS DOUBLE)
		FROM user_movie_summary
		ORDER BY rated_at NULLS LAST, user_id, movie_id`)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer closeWithLog(rows, "ratings rows")

	var ratings []recommend.Rating
	for rows.Next() {
		var r recommend.Rating
		if err := rows.Scan(&r.UserID, &r.ItemID, &r.Value); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return ratings, nil
}

// Catalog returns each distinct movie once, ordered by movie id.
func (db *DB) Catalog(ctx context.Context) (_ []recommend.CatalogEntry, err error) {
	defer observe("catalog", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT DISTINCT ON (movie_id) movie_id, title
		FROM user_movie_summary
		ORDER BY movie_id`)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer closeWithLog(rows, "catalog rows")

	var catalog []recommend.CatalogEntry
	for rows.Next() {
		var e recommend.CatalogEntry
		if err := rows.Scan(&e.ItemID, &e.Title); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		catalog = append(catalog, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog: %w", err)
	}
	return catalog, nil
}

// RatedItems returns the movies a user has rated.
func (db *DB) RatedItems(ctx context.Context, userID int64) (_ []int64, err error) {
	defer observe("rated_items", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT DISTINCT movie_id
		FROM user_movie_summary
		WHERE user_id = ?
		ORDER BY movie_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query rated items: %w", err)
	}
	defer closeWithLog(rows, "rated item rows")

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan rated item: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rated items: %w", err)
	}
	return ids, nil
}

// Stats summarizes the rating store.
func (db *DB) Stats(ctx context.Context) (_ *models.SummaryStats, err error) {
	defer observe("stats", time.Now(), &err)
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var (
		stats       models.SummaryStats
		mean        sql.NullFloat64
		first, last sql.NullTime
	)
	err = db.conn.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(DISTINCT user_id),
			COUNT(DISTINCT movie_id),
			AVG(CAST(rating AS DOUBLE)),
			MIN(rated_at),
			MAX(rated_at)
		FROM user_movie_summary`).Scan(&stats.Ratings, &stats.Users, &stats.Movies, &mean, &first, &last)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	stats.MeanRating = mean.Float64
	if first.Valid {
		stats.FirstRating = first.Time
	}
	if last.Valid {
		stats.LastRating = last.Time
	}
	return &stats, nil
}

// observe records the duration and outcome of a query into metrics.
func observe(operation string, start time.Time, err *error) {
	metrics.RecordDBQuery(operation, time.Since(start), *err)
}
