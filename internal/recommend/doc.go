// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

// Package recommend implements latent-factor rating prediction and top-N
// selection for explicit ratings.
//
// # Architecture
//
// Three pieces form the core, each usable on its own:
//
//   - BuildMatrix turns a flat rating sequence into a sparse RatingMatrix with
//     dense first-seen indices for users and items.
//   - Train fits a biased matrix factorization model by stochastic gradient
//     descent: r̂(u,i) = μ + b_u + b_i + p_u·q_i.
//   - Select scores every catalog item a user has not rated and returns the
//     N best, highest first.
//
// Engine wraps the core for long-running use: it loads data through a
// RatingSource, publishes trained models atomically, caches responses per
// user and optionally persists snapshots through the storage package.
//
// # Determinism
//
// Training is sequential. Initialization and the per-epoch shuffle both draw
// from one math/rand source seeded with TrainParams.Seed, so identical input
// order, hyperparameters and seed always yield identical parameters.
//
// # Errors
//
// Every failure is local to the call that produced it and never mutates a
// trained model:
//
//   - *MalformedRatingError (ErrMalformedRating): rating outside the scale
//   - *ColdStartError (ErrColdStart): prediction for an unseen user or item
//   - *UnknownUserError (ErrUnknownUser): recommendations for an unseen user
//   - ErrEmptyTrainingSet, ErrEmptyCatalog: nothing to train on or choose from
//
// # Usage
//
//	m, err := recommend.BuildMatrix(ratings, recommend.Scale{Min: 1, Max: 5})
//	if err != nil {
//	    return err
//	}
//	model, err := recommend.Train(m, recommend.DefaultTrainParams())
//	if err != nil {
//	    return err
//	}
//	top, err := recommend.Select(model, userID, catalog, recommend.RatedSet(rated), 5)
//
// # Thread Safety
//
// A *Model returned by Train is immutable and may be shared by concurrent
// readers without locking. The Engine is safe for concurrent use.
package recommend
