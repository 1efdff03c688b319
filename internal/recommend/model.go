// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package recommend

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Model is a biased matrix factorization model:
//
//	r̂(u,i) = μ + b_u + b_i + p_u·q_i
//
// A Model returned by Train is never mutated again and is safe for concurrent
// use by any number of readers.
type Model struct {
	scale  Scale
	params TrainParams

	mean        float64
	userBias    []float64
	itemBias    []float64
	userFactors [][]float64
	itemFactors [][]float64

	userIndex map[int64]int
	itemIndex map[int64]int

	ratingCount int
	trainRMSE   float64
}

// Train fits a Model to the matrix with sequential stochastic gradient descent.
//
// Factors start from a seeded normal distribution and biases from zero. Each
// epoch visits every entry once in an order shuffled by the same seeded source.
// Updates are strictly sequential; the same matrix, params and seed always
// produce identical parameters.
//
// Train fails with a *DivergenceError when the parameters stop being finite,
// e.g. because the learning rate is too large.
//
//nolint:gocritic // params passed by value so callers cannot mutate a run in flight
func Train(m *RatingMatrix, params TrainParams) (*Model, error) {
	return TrainContext(context.Background(), m, params)
}

// TrainContext is Train with cancellation checked between epochs. An epoch
// in progress always runs to completion.
//
//nolint:gocritic // params passed by value so callers cannot mutate a run in flight
func TrainContext(ctx context.Context, m *RatingMatrix, params TrainParams) (*Model, error) {
	if m == nil || m.Len() == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid train params: %w", err)
	}

	k := params.Factors
	rng := rand.New(rand.NewSource(params.Seed)) //nolint:gosec // deterministic training, not security

	model := &Model{
		scale:       m.scale,
		params:      params,
		mean:        m.Mean(),
		userBias:    make([]float64, m.NumUsers()),
		itemBias:    make([]float64, m.NumItems()),
		userFactors: initFactors(rng, m.NumUsers(), k, params.InitStdDev),
		itemFactors: initFactors(rng, m.NumItems(), k, params.InitStdDev),
		userIndex:   copyIndex(m.userIndex),
		itemIndex:   copyIndex(m.itemIndex),
		ratingCount: m.Len(),
	}
	model.params.OnEpoch = nil

	order := m.Entries()
	lr := params.LearningRate
	reg := params.Regularization
	decay := 1 - lr*reg
	puOld := make([]float64, k)

	for epoch := 1; epoch <= params.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rng.Shuffle(len(order), func(a, b int) {
			order[a], order[b] = order[b], order[a]
		})

		var sqErr float64
		for _, e := range order {
			pu := model.userFactors[e.User]
			qi := model.itemFactors[e.Item]

			residual := e.Value - model.estimate(e.User, e.Item)
			sqErr += residual * residual

			bu := model.userBias[e.User]
			bi := model.itemBias[e.Item]
			model.userBias[e.User] = bu + lr*(residual-reg*bu)
			model.itemBias[e.Item] = bi + lr*(residual-reg*bi)

			// Both vectors read their pre-update values.
			copy(puOld, pu)
			floats.Scale(decay, pu)
			floats.AddScaled(pu, lr*residual, qi)
			floats.Scale(decay, qi)
			floats.AddScaled(qi, lr*residual, puOld)
		}

		if !isFinite(sqErr) {
			return nil, &DivergenceError{Epoch: epoch}
		}
		model.trainRMSE = math.Sqrt(sqErr / float64(len(order)))
		if params.OnEpoch != nil {
			params.OnEpoch(epoch, model.trainRMSE)
		}
	}

	// The last epoch's updates are not covered by its error sum.
	if !model.finite() {
		return nil, &DivergenceError{Epoch: params.Epochs}
	}
	return model, nil
}

func initFactors(rng *rand.Rand, n, k int, stdDev float64) [][]float64 {
	factors := make([][]float64, n)
	for i := range factors {
		vec := make([]float64, k)
		for f := range vec {
			vec[f] = rng.NormFloat64()
		}
		floats.Scale(stdDev, vec)
		factors[i] = vec
	}
	return factors
}

func copyIndex(src map[int64]int) map[int64]int {
	dst := make(map[int64]int, len(src))
	for id, idx := range src {
		dst[id] = idx
	}
	return dst
}

// estimate returns the unclipped prediction for dense indices.
func (m *Model) estimate(u, i int) float64 {
	return m.mean + m.userBias[u] + m.itemBias[i] + floats.Dot(m.userFactors[u], m.itemFactors[i])
}

// finite reports whether every bias and factor is a finite number.
func (m *Model) finite() bool {
	if !isFinite(floats.Sum(m.userBias)) || !isFinite(floats.Sum(m.itemBias)) {
		return false
	}
	for _, vecs := range [][][]float64{m.userFactors, m.itemFactors} {
		for _, v := range vecs {
			if !isFinite(floats.Dot(v, v)) {
				return false
			}
		}
	}
	return true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Predict returns the predicted rating for a (user, item) pair, clipped to the
// rating scale. It fails with a *ColdStartError when either id was not seen in
// training.
func (m *Model) Predict(userID, itemID int64) (float64, error) {
	u, userOK := m.userIndex[userID]
	i, itemOK := m.itemIndex[itemID]
	if !userOK || !itemOK {
		return 0, &ColdStartError{
			UserID:      userID,
			ItemID:      itemID,
			UnknownUser: !userOK,
			UnknownItem: !itemOK,
		}
	}
	return m.scale.Clip(m.estimate(u, i)), nil
}

// HasUser reports whether the user has factors in the model.
func (m *Model) HasUser(userID int64) bool {
	_, ok := m.userIndex[userID]
	return ok
}

// HasItem reports whether the item has factors in the model.
func (m *Model) HasItem(itemID int64) bool {
	_, ok := m.itemIndex[itemID]
	return ok
}

// Scale returns the rating scale predictions are clipped to.
func (m *Model) Scale() Scale { return m.scale }

// Params returns the hyperparameters the model was trained with.
func (m *Model) Params() TrainParams { return m.params }

// GlobalMean returns μ.
func (m *Model) GlobalMean() float64 { return m.mean }

// NumUsers returns the number of users with factors.
func (m *Model) NumUsers() int { return len(m.userFactors) }

// NumItems returns the number of items with factors.
func (m *Model) NumItems() int { return len(m.itemFactors) }

// RatingCount returns the number of ratings the model was fit on.
func (m *Model) RatingCount() int { return m.ratingCount }

// TrainRMSE returns the training error over the final epoch.
func (m *Model) TrainRMSE() float64 { return m.trainRMSE }

// UserFactors returns a copy of a user's bias and factor vector.
func (m *Model) UserFactors(userID int64) (bias float64, factors []float64, ok bool) {
	u, ok := m.userIndex[userID]
	if !ok {
		return 0, nil, false
	}
	return m.userBias[u], append([]float64(nil), m.userFactors[u]...), true
}

// ItemFactors returns a copy of an item's bias and factor vector.
func (m *Model) ItemFactors(itemID int64) (bias float64, factors []float64, ok bool) {
	i, ok := m.itemIndex[itemID]
	if !ok {
		return 0, nil, false
	}
	return m.itemBias[i], append([]float64(nil), m.itemFactors[i]...), true
}
