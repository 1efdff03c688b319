// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package recommend

import (
	"fmt"
	"sort"
)

type selectOptions struct {
	strictCatalog bool
}

// SelectOption configures Select.
type SelectOption func(*selectOptions)

// WithStrictCatalog makes Select fail with a *ColdStartError when a catalog
// item has no factors, instead of skipping it.
func WithStrictCatalog() SelectOption {
	return func(o *selectOptions) { o.strictCatalog = true }
}

// Select scores every catalog item the user has not rated and returns the n
// highest, best first. Ties keep catalog order. The model is only read.
func Select(model *Model, userID int64, catalog []CatalogEntry, rated map[int64]struct{}, n int, opts ...SelectOption) ([]Recommendation, error) {
	var o selectOptions
	for _, opt := range opts {
		opt(&o)
	}

	if n < 1 {
		return nil, fmt.Errorf("n must be positive, got %d", n)
	}
	if !model.HasUser(userID) {
		return nil, &UnknownUserError{UserID: userID}
	}
	if len(catalog) == 0 {
		return nil, ErrEmptyCatalog
	}

	scored := make([]Recommendation, 0, len(catalog))
	listed := make(map[int64]struct{}, len(catalog))
	for _, entry := range catalog {
		if _, done := rated[entry.ItemID]; done {
			continue
		}
		// First title wins for a repeated item id.
		if _, dup := listed[entry.ItemID]; dup {
			continue
		}
		listed[entry.ItemID] = struct{}{}
		if !model.HasItem(entry.ItemID) && !o.strictCatalog {
			continue
		}
		score, err := model.Predict(userID, entry.ItemID)
		if err != nil {
			return nil, err
		}
		scored = append(scored, Recommendation{
			ItemID: entry.ItemID,
			Title:  entry.Title,
			Score:  score,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > n {
		scored = scored[:n]
	}
	return scored, nil
}

// RatedSet builds a lookup set from a list of item ids.
func RatedSet(itemIDs []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		set[id] = struct{}{}
	}
	return set
}
