// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package recommend

import "fmt"

// Snapshot is the serializable state of a trained Model.
// Index maps are stored as id slices ordered by dense index.
type Snapshot struct {
	Scale          Scale
	Factors        int
	Epochs         int
	LearningRate   float64
	Regularization float64
	InitStdDev     float64
	Seed           int64

	Mean        float64
	UserIDs     []int64
	ItemIDs     []int64
	UserBias    []float64
	ItemBias    []float64
	UserFactors [][]float64
	ItemFactors [][]float64

	RatingCount int
	TrainRMSE   float64
}

// Snapshot captures the model state for persistence.
func (m *Model) Snapshot() *Snapshot {
	return &Snapshot{
		Scale:          m.scale,
		Factors:        m.params.Factors,
		Epochs:         m.params.Epochs,
		LearningRate:   m.params.LearningRate,
		Regularization: m.params.Regularization,
		InitStdDev:     m.params.InitStdDev,
		Seed:           m.params.Seed,
		Mean:           m.mean,
		UserIDs:        orderedIDs(m.userIndex),
		ItemIDs:        orderedIDs(m.itemIndex),
		UserBias:       append([]float64(nil), m.userBias...),
		ItemBias:       append([]float64(nil), m.itemBias...),
		UserFactors:    copyFactors(m.userFactors),
		ItemFactors:    copyFactors(m.itemFactors),
		RatingCount:    m.ratingCount,
		TrainRMSE:      m.trainRMSE,
	}
}

// ModelFromSnapshot rebuilds a Model from persisted state.
func ModelFromSnapshot(s *Snapshot) (*Model, error) {
	if s == nil {
		return nil, fmt.Errorf("nil snapshot")
	}
	if len(s.UserIDs) != len(s.UserBias) || len(s.UserIDs) != len(s.UserFactors) {
		return nil, fmt.Errorf("snapshot user arrays disagree: %d ids, %d biases, %d vectors",
			len(s.UserIDs), len(s.UserBias), len(s.UserFactors))
	}
	if len(s.ItemIDs) != len(s.ItemBias) || len(s.ItemIDs) != len(s.ItemFactors) {
		return nil, fmt.Errorf("snapshot item arrays disagree: %d ids, %d biases, %d vectors",
			len(s.ItemIDs), len(s.ItemBias), len(s.ItemFactors))
	}
	for _, vecs := range [][][]float64{s.UserFactors, s.ItemFactors} {
		for _, v := range vecs {
			if len(v) != s.Factors {
				return nil, fmt.Errorf("snapshot factor vector has length %d, want %d", len(v), s.Factors)
			}
		}
	}

	m := &Model{
		scale: s.Scale,
		params: TrainParams{
			Factors:        s.Factors,
			Epochs:         s.Epochs,
			LearningRate:   s.LearningRate,
			Regularization: s.Regularization,
			InitStdDev:     s.InitStdDev,
			Seed:           s.Seed,
		},
		mean:        s.Mean,
		userBias:    append([]float64(nil), s.UserBias...),
		itemBias:    append([]float64(nil), s.ItemBias...),
		userFactors: copyFactors(s.UserFactors),
		itemFactors: copyFactors(s.ItemFactors),
		userIndex:   make(map[int64]int, len(s.UserIDs)),
		itemIndex:   make(map[int64]int, len(s.ItemIDs)),
		ratingCount: s.RatingCount,
		trainRMSE:   s.TrainRMSE,
	}
	for idx, id := range s.UserIDs {
		m.userIndex[id] = idx
	}
	for idx, id := range s.ItemIDs {
		m.itemIndex[id] = idx
	}
	return m, nil
}

func orderedIDs(index map[int64]int) []int64 {
	ids := make([]int64, len(index))
	for id, idx := range index {
		ids[idx] = id
	}
	return ids
}

func copyFactors(src [][]float64) [][]float64 {
	dst := make([][]float64, len(src))
	for i, v := range src {
		dst[i] = append([]float64(nil), v...)
	}
	return dst
}
