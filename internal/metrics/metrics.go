// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Training lifecycle metrics

	TrainingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "training_runs_total",
			Help: "Total number of training runs by model kind and outcome",
		},
		[]string{"kind", "outcome"}, // outcome: "succeeded", "failed", "skipped"
	)

	TrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "training_run_duration_seconds",
			Help:    "Duration of training runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 1800},
		},
		[]string{"kind"},
	)

	TrainingOverlapSkips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "training_overlap_skips_total",
			Help: "Scheduled or manual retrain triggers skipped because a run for the same kind was still executing",
		},
		[]string{"kind"},
	)

	// Artifact store metrics

	ArtifactPublishes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_publishes_total",
			Help: "Total number of artifact publishes by model kind",
		},
		[]string{"kind"},
	)

	ArtifactPersistenceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_persistence_failures_total",
			Help: "Durable artifact writes that failed after a successful in-memory publish",
		},
		[]string{"kind"},
	)

	ModelGeneration = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "model_generation",
			Help: "Currently published artifact generation per model kind",
		},
		[]string{"kind"},
	)

	ModelQuality = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "model_quality",
			Help: "Quality metric of the currently published artifact per model kind",
		},
		[]string{"kind"},
	)

	// Serving metrics

	ServingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serving_requests_total",
			Help: "Total serving requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"}, // outcome: "ok", "unavailable", "invalid"
	)

	ServingLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "serving_request_duration_seconds",
			Help:    "Serving request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Ingestion metrics

	EventsIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "behavior_events_ingested_total",
			Help: "Total behavioral events written to the event store",
		},
	)

	IngestBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_batch_size",
			Help:    "Number of events per ingest write batch",
			Buckets: []float64{1, 10, 50, 100, 250, 500, 1000},
		},
	)

	IngestErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_errors_total",
			Help: "Event store write failures in the ingest consumer",
		},
	)

	// Circuit breaker state per breaker name (0 closed, 1 half-open, 2 open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)
