// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package recommend

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below match them through errors.Is.
var (
	// ErrMalformedRating indicates a rating outside the configured scale.
	ErrMalformedRating = errors.New("malformed rating")

	// ErrColdStart indicates a prediction for a user or item never seen in training.
	ErrColdStart = errors.New("cold start")

	// ErrUnknownUser indicates a recommendation request for a user absent from the model.
	ErrUnknownUser = errors.New("unknown user")

	// ErrEmptyTrainingSet indicates training was invoked with no ratings.
	ErrEmptyTrainingSet = errors.New("empty training set")

	// ErrEmptyCatalog indicates selection was invoked with no catalog items.
	ErrEmptyCatalog = errors.New("empty catalog")

	// ErrNoSource indicates the engine has no rating source configured.
	ErrNoSource = errors.New("no rating source configured")

	// ErrNotTrained indicates no model has been published yet.
	ErrNotTrained = errors.New("model not trained")

	// ErrTrainingDiverged indicates SGD produced non-finite parameters.
	ErrTrainingDiverged = errors.New("training diverged")

	// ErrTrainingInProgress is returned when Train is called while another run is active.
	ErrTrainingInProgress = errors.New("training already in progress")
)

// MalformedRatingError reports the offending rating and the scale it violated.
type MalformedRatingError struct {
	Rating Rating
	Scale  Scale
	// Position is the zero-based index of the rating in the input sequence.
	Position int
}

func (e *MalformedRatingError) Error() string {
	return fmt.Sprintf("malformed rating at position %d: user %d item %d value %g outside [%g, %g]",
		e.Position, e.Rating.UserID, e.Rating.ItemID, e.Rating.Value, e.Scale.Min, e.Scale.Max)
}

// Is reports whether target is ErrMalformedRating.
func (e *MalformedRatingError) Is(target error) bool {
	return target == ErrMalformedRating
}

// ColdStartError reports which side of a (user, item) pair is unknown to the model.
type ColdStartError struct {
	UserID      int64
	ItemID      int64
	UnknownUser bool
	UnknownItem bool
}

func (e *ColdStartError) Error() string {
	switch {
	case e.UnknownUser && e.UnknownItem:
		return fmt.Sprintf("cold start: user %d and item %d not in model", e.UserID, e.ItemID)
	case e.UnknownUser:
		return fmt.Sprintf("cold start: user %d not in model", e.UserID)
	default:
		return fmt.Sprintf("cold start: item %d not in model", e.ItemID)
	}
}

// Is reports whether target is ErrColdStart.
func (e *ColdStartError) Is(target error) bool {
	return target == ErrColdStart
}

// UnknownUserError is returned by the selector when the target user has no factors.
type UnknownUserError struct {
	UserID int64
}

func (e *UnknownUserError) Error() string {
	return fmt.Sprintf("unknown user %d: no ratings in the trained model", e.UserID)
}

// Is reports whether target is ErrUnknownUser.
func (e *UnknownUserError) Is(target error) bool {
	return target == ErrUnknownUser
}

// DivergenceError reports the epoch at which training stopped producing
// finite parameters. Lowering the learning rate usually fixes it.
type DivergenceError struct {
	Epoch int
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("training diverged at epoch %d: non-finite parameters, lower the learning rate", e.Epoch)
}

// Is reports whether target is ErrTrainingDiverged.
func (e *DivergenceError) Is(target error) bool {
	return target == ErrTrainingDiverged
}
