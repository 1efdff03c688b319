// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// factorState mirrors the shape of a factor model snapshot.
type factorState struct {
	Mean        float64
	UserIDs     []int64
	UserFactors [][]float64
	Seed        int64
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr bool
	}{
		{
			name: "creates directory if not exists",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "new_dir")
			},
		},
		{
			name: "uses existing directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
		},
		{
			name: "fails when path is a file",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "file")
				if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
					t.Fatal(err)
				}
				return path
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(tt.setup(t))
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewStore() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && store == nil {
				t.Error("NewStore() returned nil store without error")
			}
		})
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()

	data := factorState{
		Mean:        3.5,
		UserIDs:     []int64{1, 2},
		UserFactors: [][]float64{{0.1, -0.2}, {0.3, 0.4}},
		Seed:        42,
	}
	trainedAt := time.Now().Add(-time.Minute)
	meta := ModelMetadata{
		ModelID:     "abc",
		TrainedAt:   trainedAt,
		RatingCount: 1000,
		UserCount:   2,
		ItemCount:   10,
		TrainRMSE:   0.8,
	}

	if err := store.Save(ctx, "svd", 1, data, meta); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var loaded factorState
	loadedMeta, err := store.Load(ctx, "svd", 1, &loaded)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loadedMeta.Name != "svd" || loadedMeta.Version != 1 {
		t.Errorf("identity = %s v%d, want svd v1", loadedMeta.Name, loadedMeta.Version)
	}
	if loadedMeta.ModelID != "abc" {
		t.Errorf("ModelID = %q, want abc", loadedMeta.ModelID)
	}
	if loadedMeta.RatingCount != 1000 {
		t.Errorf("RatingCount = %d, want 1000", loadedMeta.RatingCount)
	}
	if !loadedMeta.TrainedAt.Equal(trainedAt) {
		t.Errorf("TrainedAt = %v, want %v", loadedMeta.TrainedAt, trainedAt)
	}
	if loadedMeta.Checksum == "" {
		t.Error("Checksum should not be empty")
	}
	if loadedMeta.SizeBytes == 0 {
		t.Error("SizeBytes should not be zero")
	}

	if loaded.Mean != 3.5 || loaded.Seed != 42 {
		t.Errorf("loaded = %+v", loaded)
	}
	if len(loaded.UserFactors) != 2 || loaded.UserFactors[1][1] != 0.4 {
		t.Errorf("UserFactors = %v", loaded.UserFactors)
	}
}

func TestStore_LoadLatest(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()

	for v := 1; v <= 3; v++ {
		if err := store.Save(ctx, "svd", v, factorState{Mean: float64(v)}, ModelMetadata{}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	var loaded factorState
	meta, err := store.Load(ctx, "svd", 0, &loaded)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if meta.Version != 3 {
		t.Errorf("Version = %d, want 3 (latest)", meta.Version)
	}
	if loaded.Mean != 3 {
		t.Errorf("Mean = %f, want 3", loaded.Mean)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		name    string
		version int
	}{
		{"latest of unknown name", 0},
		{"explicit missing version", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var loaded factorState
			_, err := store.Load(ctx, "svd", tt.version, &loaded)
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("Load() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_ScanExisting(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	for _, v := range []int{2, 9, 4} {
		if err := first.Save(ctx, "svd", v, factorState{}, ModelMetadata{}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	// Unrelated files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	version, ok := reopened.GetLatestVersion("svd")
	if !ok || version != 9 {
		t.Errorf("GetLatestVersion() = %d, %v, want 9, true", version, ok)
	}
}

func TestStore_SaveRejectsBadInput(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		ctx     context.Context
		model   string
		version int
	}{
		{"empty name", context.Background(), "", 1},
		{"path separator", context.Background(), "../svd", 1},
		{"zero version", context.Background(), "svd", 0},
		{"cancelled context", cancelled, "svd", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.Save(tt.ctx, tt.model, tt.version, factorState{}, ModelMetadata{}); err == nil {
				t.Error("Save() should fail")
			}
		})
	}
}

func TestStore_ListModels(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()

	for _, name := range []string{"svd", "svd-small"} {
		for v := 1; v <= 2; v++ {
			if err := store.Save(ctx, name, v, factorState{}, ModelMetadata{RatingCount: 100}); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
		}
	}

	models, err := store.ListModels(ctx)
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(models) != 4 {
		t.Fatalf("len(models) = %d, want 4", len(models))
	}
	if models[0].Name != "svd" || models[0].Version != 2 {
		t.Errorf("first entry = %s v%d, want svd v2", models[0].Name, models[0].Version)
	}
}

func TestStore_Delete(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()

	for v := 1; v <= 2; v++ {
		if err := store.Save(ctx, "svd", v, factorState{}, ModelMetadata{}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	if err := store.Delete(ctx, "svd", 2); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if version, ok := store.GetLatestVersion("svd"); !ok || version != 1 {
		t.Errorf("GetLatestVersion() = %d, %v, want 1, true", version, ok)
	}

	if err := store.Delete(ctx, "svd", 1); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := store.GetLatestVersion("svd"); ok {
		t.Error("model should not exist after deleting every version")
	}

	var loaded factorState
	if _, err := store.Load(ctx, "svd", 1, &loaded); err == nil {
		t.Error("Load() should fail after delete")
	}
}

func TestStore_Prune(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()

	for v := 1; v <= 5; v++ {
		if err := store.Save(ctx, "svd", v, factorState{Mean: float64(v)}, ModelMetadata{}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	if err := store.Prune(ctx, "svd", 2); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}

	if version, ok := store.GetLatestVersion("svd"); !ok || version != 5 {
		t.Errorf("GetLatestVersion() = %d, %v, want 5, true", version, ok)
	}

	var loaded factorState
	for v := 1; v <= 3; v++ {
		if _, err := store.Load(ctx, "svd", v, &loaded); err == nil {
			t.Errorf("version %d should have been pruned", v)
		}
	}
	for v := 4; v <= 5; v++ {
		if _, err := store.Load(ctx, "svd", v, &loaded); err != nil {
			t.Errorf("version %d should still exist: %v", v, err)
		}
	}
}

func TestStore_ChecksumValidation(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()

	data := factorState{UserFactors: [][]float64{{1, 2, 3}, {4, 5, 6}}}
	if err := store.Save(ctx, "svd", 1, data, ModelMetadata{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	filename := filepath.Join(dir, "svd_v1.gob.gz")
	raw, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	// The gzip trailer sits near the end of the compressed payload.
	for i := len(raw) - 8; i < len(raw)-2; i++ {
		raw[i] ^= 0xFF
	}
	if err := os.WriteFile(filename, raw, 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	var loaded factorState
	if _, err := store.Load(ctx, "svd", 1, &loaded); err == nil {
		t.Error("Load() should fail with corrupted data")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			if err := store.Save(ctx, "svd", v, factorState{Mean: float64(v)}, ModelMetadata{}); err != nil {
				t.Errorf("Save(v%d) error = %v", v, err)
			}
		}(i)
	}
	wg.Wait()

	version, ok := store.GetLatestVersion("svd")
	if !ok || version != 10 {
		t.Errorf("GetLatestVersion() = %d, %v, want 10, true", version, ok)
	}

	var loaded factorState
	if _, err := store.Load(ctx, "svd", 0, &loaded); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Mean != 10 {
		t.Errorf("Mean = %f, want 10", loaded.Mean)
	}
}
