// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

// Package lifecycle orchestrates model retraining. The Coordinator
// invokes the feature source and the per-kind trainer, publishes
// successful results to the artifact store, and contains every
// training-path failure: a failed run leaves the previously published
// artifact servable (serve-stale-on-failure) and surfaces only as a log
// event, a metric, and an entry in the bounded job history.
//
// At most one run per model kind executes at a time. A scheduled tick or
// manual trigger that arrives while a run for the same kind is still
// executing is skipped, not queued, so a trainer slower than the retrain
// interval cannot build an unbounded backlog. Kinds retrain on
// independent clocks and never block each other.
//
// Readiness is an explicit state machine (Uninitialized, WarmingUp,
// Ready) rather than a bare timer callback: the service reports Ready
// once the startup training pass has completed for every kind, whatever
// each pass's outcome.
package lifecycle
