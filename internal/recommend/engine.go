// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/filmrec/internal/cache"
	"github.com/tomtom215/filmrec/internal/recommend/storage"
)

// Engine owns the published factor model and serves queries against it.
// It is safe for concurrent use.
//
// Training builds a fresh model off to the side and swaps it in atomically; a
// published model is never mutated, so readers take no locks.
type Engine struct {
	config *Config
	logger zerolog.Logger

	source RatingSource
	store  *storage.Store

	current atomic.Pointer[published]

	// trainMu serializes training runs; TryLock rejects overlapping calls.
	trainMu  sync.Mutex
	statusMu sync.RWMutex
	status   TrainingStatus
	version  atomic.Int32

	// cache holds recent lists per (user, n, model version); nil when caching is disabled.
	cache *cache.LRU[cacheKey, []Recommendation]

	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// published pairs a model with its identity.
type published struct {
	model     *Model
	version   int
	id        string
	trainedAt time.Time
}

// cacheKey includes the model version so a list computed against a model
// that was replaced mid-request is never served for the new one.
type cacheKey struct {
	userID  int64
	n       int
	version int
}

// NewEngine creates a new recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		config: cfg.Clone(),
		logger: logger.With().Str("component", "recommend").Logger(),
	}
	if cfg.Cache.Enabled {
		e.cache = cache.New[cacheKey, []Recommendation](cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}
	return e, nil
}

// SetSource sets the rating source used for training and selection.
func (e *Engine) SetSource(src RatingSource) {
	e.source = src
}

// SetStore enables snapshot persistence after each training run.
func (e *Engine) SetStore(store *storage.Store) {
	e.store = store
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// Model returns the published model, or nil before the first training run.
func (e *Engine) Model() *Model {
	if p := e.current.Load(); p != nil {
		return p.model
	}
	return nil
}

// IsTrained reports whether a model has been published.
func (e *Engine) IsTrained() bool {
	return e.current.Load() != nil
}

// Train loads every rating from the source, fits a new model and publishes it.
// It returns ErrTrainingInProgress if another run holds the training lock.
// A failed run leaves the previously published model in place.
func (e *Engine) Train(ctx context.Context) error {
	if !e.trainMu.TryLock() {
		return ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	if e.source == nil {
		return ErrNoSource
	}

	start := time.Now()
	e.setTraining(true)
	e.logger.Info().Msg("starting model training")

	model, matrix, err := e.fit(ctx)
	if err != nil {
		e.finishStatus(func(s *TrainingStatus) { s.LastError = err.Error() })
		e.logger.Error().Err(err).Msg("model training failed")
		return err
	}

	p := &published{
		model:     model,
		version:   int(e.version.Add(1)),
		id:        uuid.New().String(),
		trainedAt: time.Now(),
	}
	e.current.Store(p)
	e.clearCache()

	duration := time.Since(start)
	e.finishStatus(func(s *TrainingStatus) {
		s.ModelVersion = p.version
		s.ModelID = p.id
		s.LastTrainedAt = p.trainedAt
		s.LastDuration = duration
		s.RatingCount = matrix.Len()
		s.SkippedCount = matrix.Skipped()
		s.UserCount = matrix.NumUsers()
		s.ItemCount = matrix.NumItems()
		s.TrainRMSE = model.TrainRMSE()
		s.LastError = ""
	})

	e.logger.Info().
		Int("version", p.version).
		Str("model_id", p.id).
		Int("ratings", matrix.Len()).
		Int("skipped", matrix.Skipped()).
		Int("users", matrix.NumUsers()).
		Int("items", matrix.NumItems()).
		Float64("train_rmse", model.TrainRMSE()).
		Dur("duration", duration).
		Msg("model training complete")

	if e.store != nil {
		if err := e.saveSnapshot(ctx, p, duration); err != nil {
			// The model is already published; a failed save only loses persistence.
			e.logger.Warn().Err(err).Int("version", p.version).Msg("failed to save model snapshot")
		}
	}

	return nil
}

// fit loads the ratings and trains a model without publishing it.
func (e *Engine) fit(ctx context.Context) (*Model, *RatingMatrix, error) {
	loadCtx, cancel := context.WithTimeout(ctx, e.config.TrainTimeout)
	defer cancel()

	ratings, err := e.source.Ratings(loadCtx)
	if err != nil {
		return nil, nil, fmt.Errorf("load ratings: %w", err)
	}
	e.logger.Info().Int("ratings", len(ratings)).Msg("loaded training data")

	var opts []MatrixOption
	if e.config.SkipMalformed {
		opts = append(opts, WithSkipMalformed())
	}
	matrix, err := BuildMatrix(ratings, e.config.Scale, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("build rating matrix: %w", err)
	}
	if matrix.Skipped() > 0 {
		e.logger.Warn().Int("skipped", matrix.Skipped()).Msg("dropped ratings outside the rating scale")
	}

	params := e.config.Model
	params.OnEpoch = func(epoch int, rmse float64) {
		e.logger.Debug().Int("epoch", epoch).Float64("rmse", rmse).Msg("epoch complete")
	}
	model, err := TrainContext(ctx, matrix, params)
	if err != nil {
		return nil, nil, fmt.Errorf("train model: %w", err)
	}
	return model, matrix, nil
}

func (e *Engine) saveSnapshot(ctx context.Context, p *published, duration time.Duration) error {
	meta := storage.ModelMetadata{
		ModelID:            p.id,
		TrainedAt:          p.trainedAt,
		RatingCount:        p.model.RatingCount(),
		UserCount:          p.model.NumUsers(),
		ItemCount:          p.model.NumItems(),
		TrainRMSE:          p.model.TrainRMSE(),
		TrainingDurationMS: duration.Milliseconds(),
	}
	if err := e.store.Save(ctx, e.config.SnapshotName, p.version, p.model.Snapshot(), meta); err != nil {
		return err
	}
	return e.store.Prune(ctx, e.config.SnapshotName, e.config.RetainSnapshots)
}

// Restore publishes the latest snapshot from the store, if any.
// It returns false when the store holds no snapshot.
func (e *Engine) Restore(ctx context.Context) (bool, error) {
	if e.store == nil {
		return false, nil
	}
	if _, ok := e.store.GetLatestVersion(e.config.SnapshotName); !ok {
		return false, nil
	}

	var snap Snapshot
	meta, err := e.store.Load(ctx, e.config.SnapshotName, 0, &snap)
	if err != nil {
		return false, fmt.Errorf("load snapshot: %w", err)
	}
	model, err := ModelFromSnapshot(&snap)
	if err != nil {
		return false, fmt.Errorf("rebuild model: %w", err)
	}
	if model.Scale() != e.config.Scale {
		return false, fmt.Errorf("snapshot scale [%g, %g] does not match configured [%g, %g]",
			model.Scale().Min, model.Scale().Max, e.config.Scale.Min, e.config.Scale.Max)
	}

	e.version.Store(int32(meta.Version)) //nolint:gosec // versions stay far below int32 range
	p := &published{
		model:     model,
		version:   meta.Version,
		id:        meta.ModelID,
		trainedAt: meta.TrainedAt,
	}
	e.current.Store(p)
	e.clearCache()
	e.finishStatus(func(s *TrainingStatus) {
		s.ModelVersion = p.version
		s.ModelID = p.id
		s.LastTrainedAt = p.trainedAt
		s.LastDuration = time.Duration(meta.TrainingDurationMS) * time.Millisecond
		s.RatingCount = meta.RatingCount
		s.UserCount = meta.UserCount
		s.ItemCount = meta.ItemCount
		s.TrainRMSE = meta.TrainRMSE
	})

	e.logger.Info().
		Int("version", p.version).
		Str("model_id", p.id).
		Time("trained_at", p.trainedAt).
		Msg("restored model snapshot")
	return true, nil
}

// Recommend returns the top-N unrated items for a user.
// If no model is published yet, one is trained first.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)

	n := req.N
	if n <= 0 {
		n = e.config.TopN
	}
	if n > e.config.MaxN {
		n = e.config.MaxN
	}

	logger := e.logger.With().
		Int64("user_id", req.UserID).
		Int("n", n).
		Str("request_id", req.RequestID).
		Logger()

	p, err := e.ensureModel(ctx)
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}

	items, cached := e.checkCache(p.version, req.UserID, n)
	if !cached {
		items, err = e.selectFor(ctx, p.model, req.UserID, n)
		if err != nil {
			e.errorCount.Add(1)
			logger.Debug().Err(err).Msg("recommendation failed")
			return nil, err
		}
		e.storeCache(p.version, req.UserID, n, items)
	}

	resp := &Response{
		UserID:       req.UserID,
		Items:        items,
		ModelVersion: p.version,
		ModelID:      p.id,
		GeneratedAt:  time.Now(),
		LatencyMS:    time.Since(start).Milliseconds(),
		RequestID:    req.RequestID,
	}

	logger.Debug().
		Int("returned", len(items)).
		Bool("cached", cached).
		Int64("latency_ms", resp.LatencyMS).
		Msg("recommendation complete")

	return resp, nil
}

func (e *Engine) selectFor(ctx context.Context, model *Model, userID int64, n int) ([]Recommendation, error) {
	if e.source == nil {
		return nil, ErrNoSource
	}
	// Unknown users fail before any catalog round-trip.
	if !model.HasUser(userID) {
		return nil, &UnknownUserError{UserID: userID}
	}

	catalog, err := e.source.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	rated, err := e.source.RatedItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load rated items: %w", err)
	}

	var opts []SelectOption
	if e.config.StrictCatalog {
		opts = append(opts, WithStrictCatalog())
	}
	return Select(model, userID, catalog, RatedSet(rated), n, opts...)
}

// Predict returns the model's clipped rating estimate for a (user, item) pair
// together with the identity of the model that produced it.
func (e *Engine) Predict(ctx context.Context, userID, itemID int64) (*Prediction, error) {
	p, err := e.ensureModel(ctx)
	if err != nil {
		return nil, err
	}
	score, err := p.model.Predict(userID, itemID)
	if err != nil {
		return nil, err
	}
	return &Prediction{
		UserID:       userID,
		ItemID:       itemID,
		Score:        score,
		ModelVersion: p.version,
		ModelID:      p.id,
	}, nil
}

// ensureModel returns the published model, training one on demand.
func (e *Engine) ensureModel(ctx context.Context) (*published, error) {
	if p := e.current.Load(); p != nil {
		return p, nil
	}
	if err := e.Train(ctx); err != nil {
		if errors.Is(err, ErrTrainingInProgress) {
			return nil, ErrNotTrained
		}
		return nil, err
	}
	return e.current.Load(), nil
}

// Status returns the current training status.
func (e *Engine) Status() TrainingStatus {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status
}

// RequestCount returns the number of Recommend calls served.
func (e *Engine) RequestCount() int64 { return e.requestCount.Load() }

// ErrorCount returns the number of failed Recommend calls.
func (e *Engine) ErrorCount() int64 { return e.errorCount.Load() }

func (e *Engine) setTraining(active bool) {
	e.statusMu.Lock()
	e.status.IsTraining = active
	e.statusMu.Unlock()
}

func (e *Engine) finishStatus(update func(*TrainingStatus)) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.status.IsTraining = false
	update(&e.status)
}

// checkCache returns a copy of a live cached list for the user.
func (e *Engine) checkCache(version int, userID int64, n int) ([]Recommendation, bool) {
	if e.cache == nil {
		return nil, false
	}
	items, ok := e.cache.Get(cacheKey{userID: userID, n: n, version: version})
	if !ok {
		return nil, false
	}
	return append([]Recommendation(nil), items...), true
}

func (e *Engine) storeCache(version int, userID int64, n int, items []Recommendation) {
	if e.cache == nil {
		return
	}
	e.cache.Add(cacheKey{userID: userID, n: n, version: version}, append([]Recommendation(nil), items...))
}

// InvalidateCache drops all cached lists, e.g. after the rating store changed.
func (e *Engine) InvalidateCache() {
	e.clearCache()
}

func (e *Engine) clearCache() {
	if e.cache != nil {
		e.cache.Clear()
	}
}
