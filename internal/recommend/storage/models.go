// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNotFound is returned when no snapshot exists for a name.
var ErrNotFound = errors.New("model snapshot not found")

const fileSuffix = ".gob.gz"

// ModelMetadata contains information about a stored model.
type ModelMetadata struct {
	// Name is the snapshot family (e.g., "svd").
	Name string `json:"name"`

	// Version is the model version (monotonically increasing).
	Version int `json:"version"`

	// ModelID is the unique id assigned when the model was trained.
	ModelID string `json:"model_id"`

	// TrainedAt is when the model was trained.
	TrainedAt time.Time `json:"trained_at"`

	// SavedAt is when the model was saved.
	SavedAt time.Time `json:"saved_at"`

	// RatingCount is the number of ratings used for training.
	RatingCount int `json:"rating_count"`

	// UserCount and ItemCount size the factor arrays.
	UserCount int `json:"user_count"`
	ItemCount int `json:"item_count"`

	// TrainRMSE is the training error over the final epoch.
	TrainRMSE float64 `json:"train_rmse"`

	// Checksum is the SHA-256 checksum of the uncompressed model data.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed model size in bytes.
	SizeBytes int64 `json:"size_bytes"`

	// TrainingDurationMS is how long training took.
	TrainingDurationMS int64 `json:"training_duration_ms"`
}

// Store manages model snapshot files in a single directory.
// All methods are safe for concurrent use.
type Store struct {
	baseDir string
	mu      sync.RWMutex

	// latest version per name
	versions map[string]int
}

// storedFile is the on-disk format for model files.
type storedFile struct {
	Metadata       ModelMetadata
	CompressedData []byte
}

// NewStore creates a new model store at the given directory.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	s := &Store{
		baseDir:  baseDir,
		versions: make(map[string]int),
	}
	if err := s.scanModels(); err != nil {
		return nil, fmt.Errorf("scan existing models: %w", err)
	}
	return s, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string { return s.baseDir }

// scanModels records the latest version of every snapshot already on disk.
func (s *Store) scanModels() error {
	found, err := s.listVersions()
	if err != nil {
		return err
	}
	for name, versions := range found {
		s.versions[name] = versions[0]
	}
	return nil
}

// listVersions returns every version per name, newest first.
func (s *Store) listVersions() (map[string][]int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}

	found := make(map[string][]int)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		name, version := parseModelFilename(strings.TrimSuffix(entry.Name(), fileSuffix))
		if name == "" {
			continue
		}
		found[name] = append(found[name], version)
	}
	for _, versions := range found {
		sort.Sort(sort.Reverse(sort.IntSlice(versions)))
	}
	return found, nil
}

// parseModelFilename splits "svd_v3" into ("svd", 3).
func parseModelFilename(base string) (name string, version int) {
	idx := strings.LastIndex(base, "_v")
	if idx < 1 {
		return "", 0
	}
	if _, err := fmt.Sscanf(base[idx+2:], "%d", &version); err != nil || version < 1 {
		return "", 0
	}
	return base[:idx], version
}

// Save stores a model snapshot under name and version.
// The file is written to a temporary path and renamed into place.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *Store) Save(ctx context.Context, name string, version int, data interface{}, meta ModelMetadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid model name %q", name)
	}
	if version < 1 {
		return fmt.Errorf("model version must be positive, got %d", version)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(data); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}

	hash := sha256.Sum256(raw.Bytes())
	meta.Checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return fmt.Errorf("compress model: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}

	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = time.Now()
	meta.Name = name
	meta.Version = version

	final := s.modelPath(name, version)
	tmp, err := os.CreateTemp(s.baseDir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() //nolint:errcheck // no-op after a successful rename

	if err := gob.NewEncoder(tmp).Encode(storedFile{Metadata: meta, CompressedData: compressed.Bytes()}); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("write model file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		return fmt.Errorf("rename model file: %w", err)
	}

	if current, ok := s.versions[name]; !ok || version > current {
		s.versions[name] = version
	}
	return nil
}

// Load decodes a snapshot into target. Version 0 loads the latest version.
func (s *Store) Load(ctx context.Context, name string, version int, target interface{}) (*ModelMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if version == 0 {
		var ok bool
		version, ok = s.versions[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
	}

	sf, err := readStoredFile(s.modelPath(name, version))
	if err != nil {
		return nil, err
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("decompress model: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	rawData, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(rawData)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Metadata.Checksum {
		return nil, fmt.Errorf("checksum mismatch: expected %s, got %s", sf.Metadata.Checksum, checksum)
	}

	if err := gob.NewDecoder(bytes.NewReader(rawData)).Decode(target); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &sf.Metadata, nil
}

func readStoredFile(path string) (*storedFile, error) {
	f, err := os.Open(path) //nolint:gosec // path is built from a validated name
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
		}
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // error on close after read is not actionable

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return &sf, nil
}

// GetLatestVersion returns the latest version number for a model.
func (s *Store) GetLatestVersion(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	version, ok := s.versions[name]
	return version, ok
}

// ListModels returns metadata for every stored snapshot, newest first per name.
func (s *Store) ListModels(ctx context.Context) ([]ModelMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	found, err := s.listVersions()
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)

	var models []ModelMetadata
	for _, name := range names {
		for _, version := range found[name] {
			sf, err := readStoredFile(s.modelPath(name, version))
			if err != nil {
				continue
			}
			models = append(models, sf.Metadata)
		}
	}
	return models, nil
}

// Delete removes a specific model version.
func (s *Store) Delete(ctx context.Context, name string, version int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.modelPath(name, version)); err != nil {
		return fmt.Errorf("delete model: %w", err)
	}
	return s.refreshLatestLocked(name)
}

// Prune removes old versions of a model, keeping the newest keepVersions.
func (s *Store) Prune(ctx context.Context, name string, keepVersions int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if keepVersions < 1 {
		keepVersions = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	found, err := s.listVersions()
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}

	versions := found[name]
	for i := keepVersions; i < len(versions); i++ {
		if err := os.Remove(s.modelPath(name, versions[i])); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("prune %s v%d: %w", name, versions[i], err)
		}
	}
	return s.refreshLatestLocked(name)
}

// refreshLatestLocked recomputes the latest version of name. Must be called with mu held.
func (s *Store) refreshLatestLocked(name string) error {
	found, err := s.listVersions()
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}
	if versions := found[name]; len(versions) > 0 {
		s.versions[name] = versions[0]
	} else {
		delete(s.versions, name)
	}
	return nil
}

// modelPath returns the file path for a model.
func (s *Store) modelPath(name string, version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d%s", name, version, fileSuffix))
}
