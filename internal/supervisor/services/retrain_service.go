// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/stellara/mlpipeline/internal/artifact"
)

// RetrainRunner is the coordinator surface the scheduler needs.
type RetrainRunner interface {
	RunOnce(ctx context.Context, kind artifact.Kind) error
	MarkWarm(kind artifact.Kind)
}

// RetrainConfig drives one kind's schedule.
type RetrainConfig struct {
	// Interval between scheduled runs.
	Interval time.Duration

	// OnStartup runs one training pass immediately when the service
	// starts, before the first tick.
	OnStartup bool
}

// RetrainService schedules periodic retraining for one model kind. One
// service instance per kind keeps schedules independent: a slow
// recommender run never delays the engagement model.
type RetrainService struct {
	runner RetrainRunner
	kind   artifact.Kind
	cfg    RetrainConfig
	logger zerolog.Logger
}

// NewRetrainService creates the scheduler for one kind.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRetrainService(runner RetrainRunner, kind artifact.Kind, cfg RetrainConfig, logger zerolog.Logger) *RetrainService {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	return &RetrainService{
		runner: runner,
		kind:   kind,
		cfg:    cfg,
		logger: logger.With().Str("component", "retrain").Str("kind", kind.String()).Logger(),
	}
}

// Serve implements suture.Service. Run failures (including overlap
// skips) are logged and never returned: a failed run must not crash
// the scheduler, the previous artifact stays servable until the next
// tick succeeds.
func (s *RetrainService) Serve(ctx context.Context) error {
	if s.cfg.OnStartup {
		if err := s.runner.RunOnce(ctx, s.kind); err != nil {
			s.logger.Warn().Err(err).Msg("startup training run failed")
		}
	}
	// Warm regardless of outcome: readiness means the startup pass has
	// been attempted, not that a model exists.
	s.runner.MarkWarm(s.kind)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.runner.RunOnce(ctx, s.kind); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled training run failed")
			}
		}
	}
}

// String identifies the service in supervisor logs.
func (s *RetrainService) String() string {
	return "retrain-" + s.kind.String()
}
