// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

// Package main is the entry point for the Stellara pipeline server.
//
// The server trains behavioral models from ingested events and serves
// their predictions over HTTP. Components initialize in order:
//
//  1. Configuration: layered koanf load (defaults, YAML file, STELLARA_ env vars)
//  2. Event store: DuckDB file holding behavioral events
//  3. Artifact store: in-memory model slots backed by BadgerDB generations
//  4. Ingest pipeline: watermill pub/sub (in-process channel or NATS JetStream)
//  5. Retrain coordinator: per-kind training schedules with overlap skip
//  6. HTTP server: prediction, recommendation, ingest, and lifecycle endpoints
//
// On SIGINT/SIGTERM the supervisor tree shuts down the HTTP server,
// schedulers, and ingest consumer gracefully, then storage is closed.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/stellara/mlpipeline/internal/api"
	"github.com/stellara/mlpipeline/internal/config"
	"github.com/stellara/mlpipeline/internal/logging"
	"github.com/stellara/mlpipeline/internal/supervisor"
	"github.com/stellara/mlpipeline/internal/supervisor/services"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	importCSV := flag.String("import-csv", "", "import events from a CSV file and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("models_dir", cfg.Models.Dir).
		Float64("train_interval_hours", cfg.Training.IntervalHours).
		Msg("Starting Stellara pipeline server")

	store, err := initEventStore(cfg, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open event store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event store")
		}
	}()

	if *importCSV != "" {
		n, err := store.ImportCSV(context.Background(), *importCSV)
		if err != nil {
			logging.Fatal().Err(err).Str("path", *importCSV).Msg("CSV import failed")
		}
		logging.Info().Int("events", n).Str("path", *importCSV).Msg("CSV import complete")
		return
	}

	badgerDB, artifacts, err := initArtifactStore(cfg, logger)
	if err != nil {
		logging.Fatal().Err(err).Str("dir", cfg.Models.Dir).Msg("Failed to open model store")
	}
	defer func() {
		if err := badgerDB.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing model store")
		}
	}()

	pubsub, publisher, consumer, err := initIngest(cfg, store, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize ingest transport")
	}
	defer func() {
		if err := pubsub.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing ingest transport")
		}
	}()

	coordinator, facade := initModelPipeline(cfg, store, artifacts, logger)

	handler := api.NewHandler(facade, coordinator, publisher, artifacts)
	server := initHTTPServer(cfg, handler)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddDataService(services.NewIngestService(consumer))
	for _, kind := range coordinator.Kinds() {
		tree.AddModelService(services.NewRetrainService(coordinator, kind, services.RetrainConfig{
			Interval:  cfg.Training.Interval(),
			OnStartup: cfg.Training.OnStartup,
		}, logger))
	}
	tree.AddAPIService(services.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Supervisor tree starting")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
		os.Exit(1)
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within shutdown timeout")
		}
	}
	logging.Info().Msg("Shutdown complete")
}
