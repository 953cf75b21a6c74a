// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

// Package artifact holds trained model artifacts and makes the current
// generation of each model kind available to concurrent readers.
//
// The Store is the single piece of shared mutable state in the service.
// It is written only by the retrain coordinator and read by the serving
// layer and diagnostic callers. A publish replaces the slot for a kind
// with one atomic pointer swap, so a reader always observes either no
// artifact or one complete, internally consistent artifact. Reads never
// block, regardless of an in-flight publish or retrain.
//
// Generation numbers are assigned by the Store and strictly increase per
// kind, letting callers detect how stale a served artifact is.
//
// Publishes are additionally copied to BadgerDB keyed by (kind,
// generation). A failed durable write is reported to the caller as a
// *PersistenceError but never rolls back the in-memory publish: serving
// availability takes priority over the durability of the historical copy.
package artifact
