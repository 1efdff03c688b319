// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

// Package metrics holds the Prometheus collectors for Filmrec.
//
// Collectors are registered on the default registry through promauto and
// exposed by the API at /metrics. The package imports nothing from Filmrec;
// callers classify their own errors into label values.
package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	// Database
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation"},
	)

	// Ingest
	IngestRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_rows_total",
			Help: "Rows processed by CSV ingest, by result (written, dropped)",
		},
		[]string{"result"},
	)

	// Training
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_training_runs_total",
			Help: "Total number of training runs by result",
		},
		[]string{"result"},
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "model_training_duration_seconds",
			Help:    "Wall time of training runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	TrainingLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_training_last_success_timestamp",
			Help: "Unix time of the last successful training run",
		},
	)

	ModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_version",
			Help: "Sequence number of the published model",
		},
	)

	ModelRMSE = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_train_rmse",
			Help: "Training RMSE of the published model over its final epoch",
		},
	)

	ModelRatings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_ratings",
			Help: "Number of ratings the published model was trained on",
		},
	)

	ModelUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_users",
			Help: "Number of users known to the published model",
		},
	)

	ModelItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_items",
			Help: "Number of items known to the published model",
		},
	)

	TrainingBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_training_breaker_state",
			Help: "Training circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// Serving
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	PredictionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prediction_errors_total",
			Help: "Total number of failed predictions by kind",
		},
		[]string{"kind"},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of in-flight API requests",
		},
	)

	// System
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordIngest counts rows written and dropped by one ingest run.
func RecordIngest(written, dropped int) {
	IngestRows.WithLabelValues("written").Add(float64(written))
	IngestRows.WithLabelValues("dropped").Add(float64(dropped))
}

// ModelSample describes a freshly published model.
type ModelSample struct {
	Version int
	Ratings int
	Users   int
	Items   int
	RMSE    float64
}

// RecordTraining records one training run. The model gauges are only
// updated on success, since a failed run leaves the old model published.
func RecordTraining(duration time.Duration, sample ModelSample, err error) {
	TrainingDuration.Observe(duration.Seconds())
	if err != nil {
		TrainingRuns.WithLabelValues(ResultError).Inc()
		return
	}
	TrainingRuns.WithLabelValues(ResultSuccess).Inc()
	TrainingLastSuccess.Set(float64(time.Now().Unix()))
	SetModel(sample)
}

// SetModel updates the published-model gauges, e.g. after a snapshot restore.
func SetModel(sample ModelSample) {
	ModelVersion.Set(float64(sample.Version))
	ModelRatings.Set(float64(sample.Ratings))
	ModelUsers.Set(float64(sample.Users))
	ModelItems.Set(float64(sample.Items))
	ModelRMSE.Set(sample.RMSE)
}

// RecordRecommendation counts a recommendation request by outcome.
func RecordRecommendation(outcome string) {
	RecommendationRequests.WithLabelValues(outcome).Inc()
}

// RecordPredictionError counts a failed prediction by kind.
func RecordPredictionError(kind string) {
	PredictionErrors.WithLabelValues(kind).Inc()
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// SetAppInfo publishes the build version.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}
