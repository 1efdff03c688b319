// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package recommend

import (
	"errors"
	"reflect"
	"testing"
)

var fiveStar = Scale{Min: 1, Max: 5}

func TestBuildMatrix(t *testing.T) {
	tests := []struct {
		name      string
		ratings   []Rating
		opts      []MatrixOption
		wantErr   error
		wantLen   int
		wantUsers []int64
		wantItems []int64
		wantSkip  int
	}{
		{
			name:    "empty input",
			ratings: nil,
			wantErr: ErrEmptyTrainingSet,
		},
		{
			name: "first-seen index order",
			ratings: []Rating{
				{UserID: 7, ItemID: 30, Value: 4},
				{UserID: 3, ItemID: 10, Value: 2},
				{UserID: 7, ItemID: 10, Value: 5},
			},
			wantLen:   3,
			wantUsers: []int64{7, 3},
			wantItems: []int64{30, 10},
		},
		{
			name: "scale bounds are inclusive",
			ratings: []Rating{
				{UserID: 1, ItemID: 1, Value: 1},
				{UserID: 1, ItemID: 2, Value: 5},
			},
			wantLen:   2,
			wantUsers: []int64{1},
			wantItems: []int64{1, 2},
		},
		{
			name: "below scale",
			ratings: []Rating{
				{UserID: 1, ItemID: 1, Value: 3},
				{UserID: 1, ItemID: 2, Value: 0.5},
			},
			wantErr: ErrMalformedRating,
		},
		{
			name: "above scale",
			ratings: []Rating{
				{UserID: 1, ItemID: 1, Value: 5.5},
			},
			wantErr: ErrMalformedRating,
		},
		{
			name: "skip malformed keeps valid rows",
			ratings: []Rating{
				{UserID: 1, ItemID: 1, Value: 9},
				{UserID: 2, ItemID: 2, Value: 3},
			},
			opts:      []MatrixOption{WithSkipMalformed()},
			wantLen:   1,
			wantUsers: []int64{2},
			wantItems: []int64{2},
			wantSkip:  1,
		},
		{
			name: "skip malformed with nothing left",
			ratings: []Rating{
				{UserID: 1, ItemID: 1, Value: 0},
			},
			opts:    []MatrixOption{WithSkipMalformed()},
			wantErr: ErrEmptyTrainingSet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := BuildMatrix(tt.ratings, fiveStar, tt.opts...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("BuildMatrix() error = %v, want %v", err, tt.wantErr)
				}
				if m != nil {
					t.Error("BuildMatrix() returned a matrix alongside an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildMatrix() error = %v", err)
			}
			if m.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", m.Len(), tt.wantLen)
			}
			if !reflect.DeepEqual(m.UserIDs(), tt.wantUsers) {
				t.Errorf("UserIDs() = %v, want %v", m.UserIDs(), tt.wantUsers)
			}
			if !reflect.DeepEqual(m.ItemIDs(), tt.wantItems) {
				t.Errorf("ItemIDs() = %v, want %v", m.ItemIDs(), tt.wantItems)
			}
			if m.Skipped() != tt.wantSkip {
				t.Errorf("Skipped() = %d, want %d", m.Skipped(), tt.wantSkip)
			}
		})
	}
}

func TestBuildMatrix_MalformedDetails(t *testing.T) {
	ratings := []Rating{
		{UserID: 1, ItemID: 1, Value: 3},
		{UserID: 4, ItemID: 9, Value: 6},
	}
	_, err := BuildMatrix(ratings, fiveStar)

	var malformed *MalformedRatingError
	if !errors.As(err, &malformed) {
		t.Fatalf("error = %v, want *MalformedRatingError", err)
	}
	if malformed.Position != 1 {
		t.Errorf("Position = %d, want 1", malformed.Position)
	}
	if malformed.Rating != ratings[1] {
		t.Errorf("Rating = %+v, want %+v", malformed.Rating, ratings[1])
	}
	if malformed.Scale != fiveStar {
		t.Errorf("Scale = %+v, want %+v", malformed.Scale, fiveStar)
	}
}

func TestBuildMatrix_DuplicateLastWriteWins(t *testing.T) {
	ratings := []Rating{
		{UserID: 1, ItemID: 10, Value: 2},
		{UserID: 1, ItemID: 20, Value: 3},
		{UserID: 1, ItemID: 10, Value: 5},
	}
	m, err := BuildMatrix(ratings, fiveStar)
	if err != nil {
		t.Fatalf("BuildMatrix() error = %v", err)
	}

	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}
	if v, ok := m.Get(1, 10); !ok || v != 5 {
		t.Errorf("Get(1, 10) = %v, %v, want 5, true", v, ok)
	}
	// The repeated pair keeps its first position.
	want := []Entry{{User: 0, Item: 0, Value: 5}, {User: 0, Item: 1, Value: 3}}
	if got := m.Entries(); !reflect.DeepEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
	if m.Mean() != 4 {
		t.Errorf("Mean() = %v, want 4", m.Mean())
	}
}

func TestBuildMatrix_Idempotent(t *testing.T) {
	ratings := []Rating{
		{UserID: 5, ItemID: 100, Value: 4},
		{UserID: 2, ItemID: 300, Value: 1.5},
		{UserID: 5, ItemID: 200, Value: 3},
		{UserID: 9, ItemID: 100, Value: 5},
		{UserID: 2, ItemID: 100, Value: 2},
	}

	first, err := BuildMatrix(ratings, fiveStar)
	if err != nil {
		t.Fatalf("BuildMatrix() error = %v", err)
	}
	second, err := BuildMatrix(ratings, fiveStar)
	if err != nil {
		t.Fatalf("BuildMatrix() error = %v", err)
	}

	if !reflect.DeepEqual(first.Entries(), second.Entries()) {
		t.Error("entries differ between builds")
	}
	if !reflect.DeepEqual(first.UserIDs(), second.UserIDs()) {
		t.Error("user index assignment differs between builds")
	}
	if !reflect.DeepEqual(first.ItemIDs(), second.ItemIDs()) {
		t.Error("item index assignment differs between builds")
	}
	for _, r := range ratings {
		u1, _ := first.UserIndex(r.UserID)
		u2, _ := second.UserIndex(r.UserID)
		i1, _ := first.ItemIndex(r.ItemID)
		i2, _ := second.ItemIndex(r.ItemID)
		if u1 != u2 || i1 != i2 {
			t.Errorf("rating %+v indexed (%d,%d) then (%d,%d)", r, u1, i1, u2, i2)
		}
	}
}

func TestRatingMatrix_Accessors(t *testing.T) {
	m, err := BuildMatrix([]Rating{
		{UserID: 1, ItemID: 10, Value: 4},
		{UserID: 2, ItemID: 20, Value: 2},
	}, fiveStar)
	if err != nil {
		t.Fatalf("BuildMatrix() error = %v", err)
	}

	if m.NumUsers() != 2 || m.NumItems() != 2 {
		t.Errorf("NumUsers/NumItems = %d/%d, want 2/2", m.NumUsers(), m.NumItems())
	}
	if m.Scale() != fiveStar {
		t.Errorf("Scale() = %+v", m.Scale())
	}
	if _, ok := m.Get(1, 20); ok {
		t.Error("Get(1, 20) should report no rating")
	}
	if _, ok := m.Get(3, 10); ok {
		t.Error("Get(3, 10) should report no rating for an unknown user")
	}
	if _, ok := m.UserIndex(3); ok {
		t.Error("UserIndex(3) should be absent")
	}

	// Returned slices are copies.
	ids := m.UserIDs()
	ids[0] = 99
	if m.UserIDs()[0] != 1 {
		t.Error("UserIDs() exposed internal state")
	}
}
