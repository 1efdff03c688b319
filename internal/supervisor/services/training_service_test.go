// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/filmrec/internal/recommend"
)

var _ suture.Service = (*TrainingService)(nil)

type mockEngine struct {
	mu           sync.Mutex
	trainCalls   int
	restoreCalls int
	trainErr     error
	restoreOK    bool
	restoreErr   error
	trained      bool
	trainedCh    chan struct{}
}

func newMockEngine() *mockEngine {
	return &mockEngine{trainedCh: make(chan struct{}, 16)}
}

func (m *mockEngine) Train(context.Context) error {
	m.mu.Lock()
	m.trainCalls++
	err := m.trainErr
	if err == nil {
		m.trained = true
	}
	m.mu.Unlock()
	m.trainedCh <- struct{}{}
	return err
}

func (m *mockEngine) Restore(context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restoreCalls++
	if m.restoreOK {
		m.trained = true
	}
	return m.restoreOK, m.restoreErr
}

func (m *mockEngine) IsTrained() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trained
}

func (m *mockEngine) Status() recommend.TrainingStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return recommend.TrainingStatus{ModelVersion: m.trainCalls, RatingCount: 10}
}

func (m *mockEngine) calls() (train, restore int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trainCalls, m.restoreCalls
}

func (m *mockEngine) waitTrain(t *testing.T) {
	t.Helper()
	select {
	case <-m.trainedCh:
	case <-time.After(2 * time.Second):
		t.Fatal("Train was not called")
	}
}

// runService starts Serve and returns a stop function that waits for exit.
func runService(t *testing.T, svc *TrainingService) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()
	return func() {
		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not stop")
		}
	}
}

func TestTrainingService_Startup(t *testing.T) {
	tests := []struct {
		name        string
		onStartup   bool
		trainErr    error
		restoreOK   bool
		wantTrain   int
		wantRestore int
	}{
		{"train on startup", true, nil, false, 1, 0},
		{"failed startup train falls back to snapshot", true, errors.New("store down"), true, 1, 1},
		{"restore without startup train", false, nil, true, 0, 1},
		{"nothing to restore", false, nil, false, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newMockEngine()
			engine.trainErr = tt.trainErr
			engine.restoreOK = tt.restoreOK

			svc := NewTrainingService(engine, TrainingServiceConfig{TrainOnStartup: tt.onStartup}, zerolog.Nop())
			svc.startup(context.Background())

			train, restore := engine.calls()
			if train != tt.wantTrain || restore != tt.wantRestore {
				t.Errorf("train=%d restore=%d, want %d/%d", train, restore, tt.wantTrain, tt.wantRestore)
			}
		})
	}
}

func TestTrainingService_Trigger(t *testing.T) {
	engine := newMockEngine()
	svc := NewTrainingService(engine, TrainingServiceConfig{}, zerolog.Nop())

	if !svc.Trigger() {
		t.Fatal("first Trigger() = false, want true")
	}
	if svc.Trigger() {
		t.Error("second Trigger() with one pending = true, want false")
	}

	stop := runService(t, svc)
	engine.waitTrain(t)
	stop()

	if train, _ := engine.calls(); train != 1 {
		t.Errorf("train calls = %d, want 1", train)
	}
}

func TestTrainingService_Schedule(t *testing.T) {
	engine := newMockEngine()
	engine.trained = true
	svc := NewTrainingService(engine, TrainingServiceConfig{Interval: 20 * time.Millisecond}, zerolog.Nop())

	stop := runService(t, svc)
	engine.waitTrain(t)
	engine.waitTrain(t)
	stop()
}

func TestTrainingService_BreakerOpens(t *testing.T) {
	engine := newMockEngine()
	engine.trainErr = errors.New("rating store unavailable")
	svc := NewTrainingService(engine, TrainingServiceConfig{
		BreakerMaxFailures: 2,
		BreakerTimeout:     time.Hour,
	}, zerolog.Nop())

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := svc.train(ctx); !errors.Is(err, engine.trainErr) {
			t.Fatalf("run %d: err = %v, want store error", i, err)
		}
	}
	if svc.BreakerState() != gobreaker.StateOpen {
		t.Fatalf("state = %v, want open", svc.BreakerState())
	}

	if err := svc.train(ctx); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("err = %v, want ErrOpenState", err)
	}
	if train, _ := engine.calls(); train != 2 {
		t.Errorf("train calls = %d, want 2 (third rejected by breaker)", train)
	}
}

func TestTrainingService_InProgressDoesNotTrip(t *testing.T) {
	engine := newMockEngine()
	engine.trainErr = recommend.ErrTrainingInProgress
	svc := NewTrainingService(engine, TrainingServiceConfig{BreakerMaxFailures: 1}, zerolog.Nop())

	for i := 0; i < 3; i++ {
		_ = svc.train(context.Background())
	}
	if svc.BreakerState() != gobreaker.StateClosed {
		t.Errorf("state = %v, want closed", svc.BreakerState())
	}
}

func TestTrainingService_Defaults(t *testing.T) {
	svc := NewTrainingService(newMockEngine(), TrainingServiceConfig{}, zerolog.Nop())
	if svc.config.Timeout != 30*time.Minute || svc.config.BreakerMaxFailures != 3 || svc.config.BreakerTimeout != 5*time.Minute {
		t.Errorf("config = %+v", svc.config)
	}
	if svc.String() != "training-service" {
		t.Errorf("String() = %q", svc.String())
	}
}
