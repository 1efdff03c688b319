// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/filmrec/internal/logging"
)

func testLogger() *slog.Logger {
	return slog.New(logging.NewSlogHandlerWithLogger(zerolog.Nop()))
}

func TestNewSupervisorTree(t *testing.T) {
	t.Run("explicit config", func(t *testing.T) {
		tree, err := NewSupervisorTree(testLogger(), TreeConfig{
			FailureThreshold: 3,
			FailureBackoff:   time.Second,
			ShutdownTimeout:  2 * time.Second,
		})
		if err != nil {
			t.Fatalf("NewSupervisorTree() error = %v", err)
		}
		if tree.Root() == nil {
			t.Fatal("root supervisor should not be nil")
		}
		if tree.config.FailureThreshold != 3 || tree.config.FailureDecay != 30 {
			t.Errorf("config = %+v, want threshold 3 and default decay", tree.config)
		}
	})

	t.Run("zero config takes defaults", func(t *testing.T) {
		tree, err := NewSupervisorTree(testLogger(), TreeConfig{})
		if err != nil {
			t.Fatalf("NewSupervisorTree() error = %v", err)
		}
		if tree.config != DefaultTreeConfig() {
			t.Errorf("config = %+v, want %+v", tree.config, DefaultTreeConfig())
		}
	})
}

func TestSupervisorTree_StartsBothLayers(t *testing.T) {
	tree, _ := NewSupervisorTree(testLogger(), TreeConfig{ShutdownTimeout: time.Second})

	dataSvc := NewMockService("training")
	apiSvc := NewMockService("http")
	tree.AddDataService(dataSvc)
	tree.AddAPIService(apiSvc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for (dataSvc.StartCount() < 1 || apiSvc.StartCount() < 1) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not shut down in time")
	}

	if dataSvc.StartCount() < 1 || apiSvc.StartCount() < 1 {
		t.Errorf("starts: data %d, api %d, want both >= 1", dataSvc.StartCount(), apiSvc.StartCount())
	}
	if report, err := tree.UnstoppedServiceReport(); err != nil || len(report) != 0 {
		t.Errorf("unstopped services = %v (err %v), want none", report, err)
	}
}

func TestSupervisorTree_RestartIsolation(t *testing.T) {
	tree, _ := NewSupervisorTree(testLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	failing := NewMockService("flaky-http")
	failing.SetFailCount(2)
	stable := NewMockService("training")

	tree.AddAPIService(failing)
	tree.AddDataService(stable)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go func() { _ = tree.Serve(ctx) }()

	deadline := time.Now().Add(time.Second)
	for failing.StartCount() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if failing.StartCount() < 3 {
		t.Errorf("failing service started %d times, want at least 3", failing.StartCount())
	}
	if got := stable.StartCount(); got != 1 {
		t.Errorf("stable service started %d times, want exactly 1", got)
	}
}
