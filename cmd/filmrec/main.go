// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

// Package main is the entry point for filmrec.
//
// Filmrec learns a biased latent factor model from explicit movie ratings and
// recommends unseen movies to a user. It runs either as a one-shot command that
// trains and prints a top-N list, or as a long-running HTTP service.
//
// # Startup Order
//
//  1. Configuration: defaults, config.yaml, then environment (Koanf v2)
//  2. Logging: zerolog with the configured level and format
//  3. Database: DuckDB rating store with the summary schema
//  4. Ingest: movies and ratings CSVs joined into the store, when configured
//  5. Engine: recommendation engine bound to the store and the snapshot directory
//  6. Mode: one-shot recommendations, or the supervisor tree with -serve
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (e.g. FACTORS, HTTP_PORT, DUCKDB_PATH)
//   - Config file (config.yaml, or the path given by -config)
//   - Built-in defaults
//
// # Signal Handling
//
// In serve mode SIGINT and SIGTERM cancel the supervisor tree. The HTTP server
// drains in-flight requests within HTTP_SHUTDOWN_TIMEOUT and an active
// training run is abandoned at its next epoch boundary.
//
// # Example Usage
//
//	filmrec -user 1 -n 10
//	MOVIES_CSV=movies.csv RATINGS_CSV=ratings.csv filmrec -serve
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/filmrec/internal/api"
	"github.com/tomtom215/filmrec/internal/config"
	"github.com/tomtom215/filmrec/internal/database"
	"github.com/tomtom215/filmrec/internal/ingest"
	"github.com/tomtom215/filmrec/internal/logging"
	"github.com/tomtom215/filmrec/internal/metrics"
	"github.com/tomtom215/filmrec/internal/recommend"
	"github.com/tomtom215/filmrec/internal/recommend/storage"
	"github.com/tomtom215/filmrec/internal/supervisor"
	"github.com/tomtom215/filmrec/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type options struct {
	configPath string
	serve      bool
	userID     int64
	n          int
}

// parseFlags reads command line options. Zero values for user and n fall
// back to configuration.
func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("filmrec", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "path to config file (default: search config.yaml)")
	fs.BoolVar(&opts.serve, "serve", false, "run the HTTP API instead of printing recommendations")
	fs.Int64Var(&opts.userID, "user", 0, "user to recommend for in one-shot mode (default: cli.user_id)")
	fs.IntVar(&opts.n, "n", 0, "number of recommendations (default: recommend.top_n)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.n < 0 {
		return nil, fmt.Errorf("-n must not be negative, got %d", opts.n)
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, os.Stdout); err != nil {
		logging.Error().Err(err).Msg("filmrec failed")
		stop()
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func run(ctx context.Context, cfg *config.Config, opts *options, stdout io.Writer) error {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	if err := db.InitSchema(ctx); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	if cfg.Ingest.Enabled() {
		if _, err := ingest.Files(ctx, db, cfg.Ingest.MoviesCSV, cfg.Ingest.RatingsCSV); err != nil {
			return fmt.Errorf("ingest: %w", err)
		}
	} else {
		logging.Info().Msg("No CSV inputs configured, using existing rating store")
	}

	engine, err := newEngine(cfg, db)
	if err != nil {
		return err
	}

	if opts.serve {
		return serve(ctx, cfg, engine, db)
	}
	return recommendOnce(ctx, cfg, engine, opts, stdout)
}

func newEngine(cfg *config.Config, db *database.DB) (*recommend.Engine, error) {
	engine, err := recommend.NewEngine(cfg.EngineConfig(), logging.WithComponent("recommend"))
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	engine.SetSource(db)

	if dir := cfg.Training.ModelDir; dir != "" {
		store, err := storage.NewStore(dir)
		if err != nil {
			return nil, fmt.Errorf("open model store: %w", err)
		}
		engine.SetStore(store)
		logging.Info().Str("dir", dir).Msg("Model snapshots enabled")
	}
	return engine, nil
}

// recommendOnce trains a fresh model and prints the top-N list for one user.
func recommendOnce(ctx context.Context, cfg *config.Config, engine *recommend.Engine, opts *options, stdout io.Writer) error {
	userID := opts.userID
	if userID == 0 {
		userID = cfg.CLI.UserID
	}
	n := opts.n
	if n == 0 {
		n = engine.Config().TopN
	}
	n = min(n, engine.Config().MaxN)

	if err := engine.Train(ctx); err != nil {
		return fmt.Errorf("train: %w", err)
	}

	resp, err := engine.Recommend(ctx, recommend.Request{UserID: userID, N: n})
	if err != nil {
		return fmt.Errorf("recommend for user %d: %w", userID, err)
	}
	return printRecommendations(stdout, userID, n, resp.Items)
}

// printRecommendations writes the ranked list with scores rounded to two places.
func printRecommendations(w io.Writer, userID int64, n int, items []recommend.Recommendation) error {
	if _, err := fmt.Fprintf(w, "\n--- Top %d Recommendations for User %d ---\n", n, userID); err != nil {
		return err
	}
	for i, item := range items {
		title := item.Title
		if title == "" {
			title = fmt.Sprintf("Movie %d", item.ItemID)
		}
		if _, err := fmt.Fprintf(w, "%d. %s (Predicted Rating: %.2f)\n", i+1, title, item.Score); err != nil {
			return err
		}
	}
	return nil
}

// serve runs the training service and HTTP API under the supervisor tree
// until ctx is canceled.
func serve(ctx context.Context, cfg *config.Config, engine *recommend.Engine, db *database.DB) error {
	metrics.SetAppInfo(version)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout + 5*time.Second,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	trainingSvc := services.NewTrainingService(engine, services.TrainingServiceConfig{
		TrainOnStartup:     cfg.Training.OnStartup,
		Interval:           cfg.Training.Interval,
		Timeout:            cfg.Recommend.TrainTimeout,
		BreakerMaxFailures: cfg.Training.BreakerMaxFailures,
		BreakerTimeout:     cfg.Training.BreakerTimeout,
	}, logging.WithComponent("supervisor"))
	tree.AddDataService(trainingSvc)

	handler := api.NewHandler(engine, db, trainingSvc, &cfg.API)
	mw := api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(&cfg.API))
	router := api.NewRouter(handler, mw, cfg.Server.Timeout)

	server := services.NewHTTPServer(&cfg.Server, router.SetupChi())
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout, logging.WithComponent("http")))
	logging.Info().Str("addr", server.Addr).Str("version", version).Msg("Starting supervisor tree")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Stopped gracefully")
	return nil
}
