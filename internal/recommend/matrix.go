// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package recommend

// Entry is one known rating addressed by dense user and item indices.
type Entry struct {
	User  int
	Item  int
	Value float64
}

// RatingMatrix is the sparse training representation of a rating sequence.
// It is immutable once built.
type RatingMatrix struct {
	scale   Scale
	entries []Entry

	userIndex map[int64]int
	itemIndex map[int64]int
	userIDs   []int64
	itemIDs   []int64

	skipped int
}

type matrixOptions struct {
	skipMalformed bool
}

// MatrixOption configures BuildMatrix.
type MatrixOption func(*matrixOptions)

// WithSkipMalformed drops out-of-scale ratings instead of failing the build.
// Dropped rows are counted in Skipped.
func WithSkipMalformed() MatrixOption {
	return func(o *matrixOptions) { o.skipMalformed = true }
}

// BuildMatrix converts a rating sequence into a RatingMatrix.
//
// Users and items receive dense zero-based indices in first-seen order, so the
// same input sequence always yields the same assignment. A repeated
// (user, item) pair keeps the position of its first occurrence and the value of
// its last.
func BuildMatrix(ratings []Rating, scale Scale, opts ...MatrixOption) (*RatingMatrix, error) {
	var o matrixOptions
	for _, opt := range opts {
		opt(&o)
	}

	if len(ratings) == 0 {
		return nil, ErrEmptyTrainingSet
	}

	m := &RatingMatrix{
		scale:     scale,
		entries:   make([]Entry, 0, len(ratings)),
		userIndex: make(map[int64]int),
		itemIndex: make(map[int64]int),
	}
	seen := make(map[[2]int]int, len(ratings))

	for pos, r := range ratings {
		if !scale.Contains(r.Value) {
			if o.skipMalformed {
				m.skipped++
				continue
			}
			return nil, &MalformedRatingError{Rating: r, Scale: scale, Position: pos}
		}

		u := m.indexUser(r.UserID)
		i := m.indexItem(r.ItemID)
		key := [2]int{u, i}
		if at, dup := seen[key]; dup {
			m.entries[at].Value = r.Value
			continue
		}
		seen[key] = len(m.entries)
		m.entries = append(m.entries, Entry{User: u, Item: i, Value: r.Value})
	}

	if len(m.entries) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	return m, nil
}

func (m *RatingMatrix) indexUser(id int64) int {
	if idx, ok := m.userIndex[id]; ok {
		return idx
	}
	idx := len(m.userIDs)
	m.userIndex[id] = idx
	m.userIDs = append(m.userIDs, id)
	return idx
}

func (m *RatingMatrix) indexItem(id int64) int {
	if idx, ok := m.itemIndex[id]; ok {
		return idx
	}
	idx := len(m.itemIDs)
	m.itemIndex[id] = idx
	m.itemIDs = append(m.itemIDs, id)
	return idx
}

// Len returns the number of distinct (user, item) entries.
func (m *RatingMatrix) Len() int { return len(m.entries) }

// NumUsers returns the number of distinct users.
func (m *RatingMatrix) NumUsers() int { return len(m.userIDs) }

// NumItems returns the number of distinct items.
func (m *RatingMatrix) NumItems() int { return len(m.itemIDs) }

// Skipped returns how many malformed ratings were dropped.
func (m *RatingMatrix) Skipped() int { return m.skipped }

// Scale returns the scale the matrix was validated against.
func (m *RatingMatrix) Scale() Scale { return m.scale }

// Entries returns a copy of the sparse entries in build order.
func (m *RatingMatrix) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// UserIDs returns the raw user ids ordered by dense index.
func (m *RatingMatrix) UserIDs() []int64 {
	out := make([]int64, len(m.userIDs))
	copy(out, m.userIDs)
	return out
}

// ItemIDs returns the raw item ids ordered by dense index.
func (m *RatingMatrix) ItemIDs() []int64 {
	out := make([]int64, len(m.itemIDs))
	copy(out, m.itemIDs)
	return out
}

// UserIndex returns the dense index of a raw user id.
func (m *RatingMatrix) UserIndex(id int64) (int, bool) {
	idx, ok := m.userIndex[id]
	return idx, ok
}

// ItemIndex returns the dense index of a raw item id.
func (m *RatingMatrix) ItemIndex(id int64) (int, bool) {
	idx, ok := m.itemIndex[id]
	return idx, ok
}

// Get returns the rating for a raw (user, item) pair.
func (m *RatingMatrix) Get(userID, itemID int64) (float64, bool) {
	u, ok := m.userIndex[userID]
	if !ok {
		return 0, false
	}
	i, ok := m.itemIndex[itemID]
	if !ok {
		return 0, false
	}
	for _, e := range m.entries {
		if e.User == u && e.Item == i {
			return e.Value, true
		}
	}
	return 0, false
}

// Mean returns the mean of all entry values.
func (m *RatingMatrix) Mean() float64 {
	var sum float64
	for _, e := range m.entries {
		sum += e.Value
	}
	return sum / float64(len(m.entries))
}
