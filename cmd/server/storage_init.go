// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package main

import (
	"context"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/stellara/mlpipeline/internal/artifact"
	"github.com/stellara/mlpipeline/internal/config"
	"github.com/stellara/mlpipeline/internal/events"
	"github.com/stellara/mlpipeline/internal/logging"
)

// initEventStore opens the DuckDB event store and, when configured,
// seeds it with synthetic behavioral data so a fresh install can train
// immediately.
func initEventStore(cfg *config.Config, logger zerolog.Logger) (*events.Store, error) {
	store, err := events.Open(events.Config{
		Path:      cfg.Database.Path,
		MaxMemory: cfg.Database.MaxMemory,
		Threads:   cfg.Database.Threads,
	}, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Features.SeedIfEmpty {
		if err := seedIfEmpty(context.Background(), store, cfg.Features.SyntheticEvents, cfg.Training.Seed); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	return store, nil
}

// seedIfEmpty populates the event store with synthetic behavioral data
// when it holds no events.
func seedIfEmpty(ctx context.Context, store *events.Store, n int, seed int64) error {
	count, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logging.Debug().Int64("events", count).Msg("Event store already populated, skipping seed")
		return nil
	}
	if n <= 0 {
		n = 1000
	}
	logging.Info().Int("events", n).Msg("Seeding synthetic behavioral events")
	return store.SeedSynthetic(ctx, n, seed)
}

// initArtifactStore opens the BadgerDB generation store and restores
// the latest persisted artifact per kind into the in-memory slots.
func initArtifactStore(cfg *config.Config, logger zerolog.Logger) (*badger.DB, *artifact.Store, error) {
	badgerDB, err := badger.Open(
		badger.DefaultOptions(cfg.Models.Dir).
			WithLogger(nil),
	)
	if err != nil {
		return nil, nil, err
	}

	artifacts := artifact.NewStore(logger,
		artifact.WithPersister(artifact.NewBadgerPersister(badgerDB), cfg.Models.KeepGenerations))
	if err := artifacts.Restore(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("Artifact restore failed, starting from empty slots")
	}
	return badgerDB, artifacts, nil
}
