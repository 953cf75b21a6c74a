// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

// Package api provides the HTTP surface: prediction and recommendation
// endpoints, event ingestion, training triggers, and model status, all
// routed with chi and wrapped in a common JSON response envelope.
package api
