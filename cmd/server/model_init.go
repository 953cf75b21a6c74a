// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package main

import (
	"github.com/rs/zerolog"

	"github.com/stellara/mlpipeline/internal/artifact"
	"github.com/stellara/mlpipeline/internal/config"
	"github.com/stellara/mlpipeline/internal/events"
	"github.com/stellara/mlpipeline/internal/feature"
	"github.com/stellara/mlpipeline/internal/lifecycle"
	"github.com/stellara/mlpipeline/internal/serving"
	"github.com/stellara/mlpipeline/internal/training"
)

// initModelPipeline builds the training side: feature source, trainers,
// the retrain coordinator, and the serving facade reading the same
// artifact store the coordinator publishes to.
func initModelPipeline(cfg *config.Config, store *events.Store, artifacts *artifact.Store, logger zerolog.Logger) (*lifecycle.Coordinator, *serving.Facade) {
	source := feature.NewSource(store, feature.Config{
		EngagementThreshold: cfg.Features.EngagementThreshold,
	}, logger)

	trainers := []training.Trainer{
		training.NewEngagementTrainer(training.EngagementConfig{
			SplitRatio:   cfg.Training.SplitRatio,
			Seed:         cfg.Training.Seed,
			LearningRate: cfg.Training.LearningRate,
			Epochs:       cfg.Training.Epochs,
			L2:           training.DefaultEngagementConfig().L2,
		}, logger),
		training.NewRecommenderTrainer(logger),
	}

	coordinator := lifecycle.NewCoordinator(artifacts, source, trainers, lifecycle.Config{
		RunTimeout:  cfg.Training.Timeout,
		HistorySize: cfg.Training.HistorySize,
	}, logger)
	coordinator.BeginWarmup()

	facade := serving.NewFacade(artifacts, serving.Config{
		DefaultK: cfg.Models.DefaultK,
		MaxK:     cfg.Models.MaxK,
	}, logger)

	return coordinator, facade
}
