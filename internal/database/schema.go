// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package database

import (
	"context"
	"fmt"
)

// SummaryTable holds one row per rating joined with its movie.
const SummaryTable = "user_movie_summary"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS user_movie_summary (
		user_id  INTEGER NOT NULL,
		movie_id INTEGER NOT NULL,
		rating   DECIMAL(3,1) NOT NULL,
		rated_at TIMESTAMPTZ,
		title    TEXT NOT NULL,
		genres   TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_summary_user ON user_movie_summary (user_id)`,
}

// InitSchema creates the rating store tables if they do not exist.
func (db *DB) InitSchema(ctx context.Context) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
