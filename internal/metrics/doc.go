// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

// Package metrics defines the Prometheus instrumentation for the
// pipeline: training run outcomes and durations, artifact generations,
// serving traffic and event ingestion throughput. Metrics are registered
// with the default registry via promauto and exposed on /metrics.
package metrics
