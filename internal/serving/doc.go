// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

// Package serving answers prediction and recommendation requests from
// the current artifact generation. It only reads the artifact store and
// never blocks on an in-progress retrain.
//
// A request arriving before any successful training run fails with
// ErrModelUnavailable; that is the only error a serving caller can see.
// Feature schema drift between caller and artifact is tolerated: a
// feature the artifact expects but the caller omits is treated as zero.
package serving
