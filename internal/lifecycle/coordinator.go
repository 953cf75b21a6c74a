// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stellara/mlpipeline/internal/artifact"
	"github.com/stellara/mlpipeline/internal/metrics"
	"github.com/stellara/mlpipeline/internal/training"
)

// ErrRunInProgress indicates a retrain was requested while a run for the
// same kind was still executing. The request is discarded, not queued.
var ErrRunInProgress = errors.New("a training run for this kind is already in progress")

// State describes coordinator readiness.
type State int32

const (
	// StateUninitialized means Start has not been called.
	StateUninitialized State = iota
	// StateWarmingUp means the startup training pass is in flight.
	StateWarmingUp
	// StateReady means the startup pass completed for every kind.
	StateReady
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateWarmingUp:
		return "warming_up"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Config holds coordinator tuning.
type Config struct {
	// RunTimeout bounds one training run end to end.
	RunTimeout time.Duration

	// HistorySize bounds the retained job history.
	HistorySize int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		RunTimeout:  30 * time.Minute,
		HistorySize: 32,
	}
}

// Coordinator drives the model retrain lifecycle. It is the only writer
// of the artifact store.
type Coordinator struct {
	store    *artifact.Store
	source   training.FeatureSource
	trainers map[artifact.Kind]training.Trainer
	cfg      Config

	// One mutex per kind; TryLock is the overlap-skip discipline.
	locks map[artifact.Kind]*sync.Mutex

	state   atomic.Int32
	warm    map[artifact.Kind]bool
	warmMu  sync.Mutex
	history *jobHistory
	logger  zerolog.Logger
}

// NewCoordinator creates a retrain coordinator for the given trainers.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCoordinator(store *artifact.Store, source training.FeatureSource, trainers []training.Trainer, cfg Config, logger zerolog.Logger) *Coordinator {
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 30 * time.Minute
	}

	byKind := make(map[artifact.Kind]training.Trainer, len(trainers))
	locks := make(map[artifact.Kind]*sync.Mutex, len(trainers))
	for _, tr := range trainers {
		byKind[tr.Kind()] = tr
		locks[tr.Kind()] = &sync.Mutex{}
	}

	return &Coordinator{
		store:    store,
		source:   source,
		trainers: byKind,
		cfg:      cfg,
		locks:    locks,
		warm:     make(map[artifact.Kind]bool, len(trainers)),
		history:  newJobHistory(cfg.HistorySize),
		logger:   logger.With().Str("component", "lifecycle").Logger(),
	}
}

// Kinds returns the model kinds this coordinator manages, in fixed order.
func (c *Coordinator) Kinds() []artifact.Kind {
	kinds := make([]artifact.Kind, 0, len(c.trainers))
	for _, kind := range artifact.Kinds() {
		if _, ok := c.trainers[kind]; ok {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// State returns the readiness state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// History returns the retained job history, newest first.
func (c *Coordinator) History() []Job {
	return c.history.History()
}

// BeginWarmup moves the coordinator from Uninitialized to WarmingUp.
// Called once before the per-kind startup runs are launched.
func (c *Coordinator) BeginWarmup() {
	c.state.CompareAndSwap(int32(StateUninitialized), int32(StateWarmingUp))
}

// MarkWarm records that the startup pass for a kind has completed,
// whatever its outcome. When every kind has completed, the coordinator
// becomes Ready.
func (c *Coordinator) MarkWarm(kind artifact.Kind) {
	c.warmMu.Lock()
	defer c.warmMu.Unlock()

	c.warm[kind] = true
	for _, k := range c.Kinds() {
		if !c.warm[k] {
			return
		}
	}
	if c.state.CompareAndSwap(int32(StateWarmingUp), int32(StateReady)) {
		c.logger.Info().Msg("startup training pass complete, coordinator ready")
	}
}

// RunOnce executes one training run for a kind: feature source, trainer,
// publish. If a run for the same kind is already executing it returns
// ErrRunInProgress without queueing. A trainer or source failure leaves
// the published artifact untouched and is recorded as a failed job; the
// error is returned for the caller to log, never escalated further.
func (c *Coordinator) RunOnce(ctx context.Context, kind artifact.Kind) error {
	mu, ok := c.locks[kind]
	if !ok {
		return fmt.Errorf("no trainer registered for kind %q", kind)
	}

	if !mu.TryLock() {
		metrics.TrainingOverlapSkips.WithLabelValues(kind.String()).Inc()
		c.logger.Warn().
			Str("kind", kind.String()).
			Msg("retrain trigger skipped, previous run still executing")
		return ErrRunInProgress
	}
	defer mu.Unlock()

	return c.runLocked(ctx, kind, uuid.New().String())
}

// Trigger requests an immediate out-of-band retrain. It claims the
// per-kind lock synchronously (so callers can distinguish an accepted
// trigger from an overlap skip) and runs the training on its own
// goroutine. Returns the job ID of the accepted run.
func (c *Coordinator) Trigger(kind artifact.Kind) (string, error) {
	mu, ok := c.locks[kind]
	if !ok {
		return "", fmt.Errorf("no trainer registered for kind %q", kind)
	}

	if !mu.TryLock() {
		metrics.TrainingOverlapSkips.WithLabelValues(kind.String()).Inc()
		c.logger.Warn().
			Str("kind", kind.String()).
			Msg("manual trigger skipped, previous run still executing")
		return "", ErrRunInProgress
	}

	jobID := uuid.New().String()
	c.history.record(Job{
		ID:        jobID,
		Kind:      kind.String(),
		State:     JobPending.String(),
		StartedAt: time.Now().UTC(),
	})
	go func() {
		defer mu.Unlock()
		if err := c.runLocked(context.Background(), kind, jobID); err != nil {
			c.logger.Warn().Err(err).
				Str("kind", kind.String()).
				Msg("manually triggered training run failed")
		}
	}()

	return jobID, nil
}

// runLocked executes one run. Caller holds the per-kind lock.
func (c *Coordinator) runLocked(ctx context.Context, kind artifact.Kind, jobID string) error {
	runCtx, cancel := context.WithTimeout(ctx, c.cfg.RunTimeout)
	defer cancel()

	job := Job{
		ID:        jobID,
		Kind:      kind.String(),
		State:     JobRunning.String(),
		StartedAt: time.Now().UTC(),
	}
	c.history.record(job)

	logger := c.logger.With().Str("kind", kind.String()).Str("job_id", job.ID).Logger()
	logger.Info().Msg("training run started")

	err := c.train(runCtx, kind)
	elapsed := time.Since(job.StartedAt)
	job.DurationMS = elapsed.Milliseconds()
	metrics.TrainingDuration.WithLabelValues(kind.String()).Observe(elapsed.Seconds())

	switch {
	case errors.Is(err, training.ErrSkipped):
		job.State = JobSkipped.String()
		metrics.TrainingRunsTotal.WithLabelValues(kind.String(), "skipped").Inc()
		logger.Info().Dur("duration", elapsed).Msg("training skipped, insufficient data")
		err = nil
	case err != nil:
		job.State = JobFailed.String()
		job.Error = err.Error()
		metrics.TrainingRunsTotal.WithLabelValues(kind.String(), "failed").Inc()
		logger.Warn().Err(err).Dur("duration", elapsed).
			Msg("training run failed, previous artifact remains servable")
	default:
		job.State = JobSucceeded.String()
		metrics.TrainingRunsTotal.WithLabelValues(kind.String(), "succeeded").Inc()
		logger.Info().Dur("duration", elapsed).
			Uint64("generation", c.store.Generation(kind)).
			Msg("training run complete")
	}

	c.history.record(job)
	return err
}

// train performs the source-train-publish sequence for one kind.
func (c *Coordinator) train(ctx context.Context, kind artifact.Kind) error {
	trainer := c.trainers[kind]

	ds, err := c.source.Dataset(ctx)
	if err != nil {
		return fmt.Errorf("build dataset: %w", err)
	}

	art, err := trainer.Train(ctx, ds)
	if err != nil {
		return err
	}

	// Persistence failure does not undo the in-memory publish; the new
	// generation is servable either way.
	var perr *artifact.PersistenceError
	if err := c.store.Publish(ctx, art); err != nil {
		if errors.As(err, &perr) {
			c.logger.Error().Err(perr).
				Str("kind", kind.String()).
				Msg("artifact published in memory, durable copy failed")
			return nil
		}
		return fmt.Errorf("publish artifact: %w", err)
	}

	return nil
}
