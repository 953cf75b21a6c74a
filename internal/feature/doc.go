// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

// Package feature turns raw behavioral events into the ordered training
// dataset: the engagement label (session duration over a configured
// threshold), the hour-of-day feature and one-hot item category columns.
//
// The engagement threshold and the category universe are feature policy,
// not lifecycle behavior: the trained artifact self-describes its schema
// so that drift between feature policy and a published model is
// detectable rather than silently misaligned.
//
// Dataset construction is wrapped in a circuit breaker so a flapping
// event store trips fast instead of being hammered by every retrain
// tick.
package feature
