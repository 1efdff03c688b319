// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/filmrec/internal/metrics"
	"github.com/tomtom215/filmrec/internal/recommend"
)

// TrainingEngine is the part of *recommend.Engine the training service drives.
type TrainingEngine interface {
	Train(ctx context.Context) error
	Restore(ctx context.Context) (bool, error)
	IsTrained() bool
	Status() recommend.TrainingStatus
}

// TrainingServiceConfig controls when training runs.
type TrainingServiceConfig struct {
	// TrainOnStartup trains before serving. When false, or when the startup
	// run fails, the latest snapshot is restored instead.
	TrainOnStartup bool

	// Interval between scheduled retrains. Zero disables the schedule.
	Interval time.Duration

	// Timeout bounds one training run.
	Timeout time.Duration

	// BreakerMaxFailures consecutive failed runs open the breaker; it stays
	// open for BreakerTimeout before allowing a trial run.
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
}

// TrainingService owns the training lifecycle: startup train or restore,
// scheduled retrains and on-demand retrains from Trigger. Runs go through a
// circuit breaker so a failing rating store is not hammered.
type TrainingService struct {
	engine  TrainingEngine
	config  TrainingServiceConfig
	breaker *gobreaker.CircuitBreaker[struct{}]
	trigger chan struct{}
	logger  zerolog.Logger
	name    string
}

// NewTrainingService creates the service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainingService(engine TrainingEngine, cfg TrainingServiceConfig, logger zerolog.Logger) *TrainingService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = 3
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 5 * time.Minute
	}

	s := &TrainingService{
		engine:  engine,
		config:  cfg,
		trigger: make(chan struct{}, 1),
		logger:  logger.With().Str("service", "training").Logger(),
		name:    "training-service",
	}

	metrics.TrainingBreakerState.Set(0)
	s.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "model-training",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		// An overlapping run is not a store failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, recommend.ErrTrainingInProgress)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			s.logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("Training circuit breaker state change")
			metrics.TrainingBreakerState.Set(stateToFloat(to))
		},
	})
	return s
}

// Trigger schedules a retrain. It returns false if one is already pending.
func (s *TrainingService) Trigger() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// BreakerState reports the circuit breaker state.
func (s *TrainingService) BreakerState() gobreaker.State {
	return s.breaker.State()
}

// Serve implements suture.Service. Training failures are logged, never
// returned; only cancellation ends the loop.
func (s *TrainingService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("interval", s.config.Interval).
		Msg("Training service starting")

	s.startup(ctx)

	var tick <-chan time.Time
	if s.config.Interval > 0 {
		ticker := time.NewTicker(s.config.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Training service stopping")
			return ctx.Err()
		case <-tick:
			s.logger.Debug().Msg("Scheduled retrain")
			_ = s.train(ctx)
		case <-s.trigger:
			s.logger.Info().Msg("Manual retrain")
			_ = s.train(ctx)
		}
	}
}

// startup brings a model online, or leaves the engine to train on demand.
func (s *TrainingService) startup(ctx context.Context) {
	if s.engine.IsTrained() {
		return
	}
	if s.config.TrainOnStartup && s.train(ctx) == nil {
		return
	}

	restored, err := s.engine.Restore(ctx)
	switch {
	case err != nil:
		s.logger.Warn().Err(err).Msg("Snapshot restore failed")
	case restored:
		st := s.engine.Status()
		metrics.SetModel(sampleOf(st))
		s.logger.Info().Int("model_version", st.ModelVersion).Msg("Serving restored model")
	default:
		s.logger.Info().Msg("No snapshot to restore; the first request will train")
	}
}

// train runs one breaker-guarded training run and records metrics.
func (s *TrainingService) train(ctx context.Context) error {
	trainCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.engine.Train(trainCtx)
	})
	duration := time.Since(start)

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		s.logger.Warn().Err(err).Msg("Training skipped: circuit breaker open")
		return err
	case errors.Is(err, recommend.ErrTrainingInProgress):
		s.logger.Debug().Msg("Training skipped: a run is already in progress")
		return err
	case err != nil:
		metrics.RecordTraining(duration, metrics.ModelSample{}, err)
		s.logger.Error().Err(err).Dur("duration", duration).Msg("Training failed")
		return err
	}

	st := s.engine.Status()
	metrics.RecordTraining(duration, sampleOf(st), nil)
	s.logger.Info().
		Int("model_version", st.ModelVersion).
		Int("ratings", st.RatingCount).
		Float64("train_rmse", st.TrainRMSE).
		Dur("duration", duration).
		Msg("Training complete")
	return nil
}

// String names the service in suture events.
func (s *TrainingService) String() string {
	return s.name
}

func sampleOf(st recommend.TrainingStatus) metrics.ModelSample {
	return metrics.ModelSample{
		Version: st.ModelVersion,
		Ratings: st.RatingCount,
		Users:   st.UserCount,
		Items:   st.ItemCount,
		RMSE:    st.TrainRMSE,
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
