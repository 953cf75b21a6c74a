// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

// Package supervisor assembles the suture supervision tree that keeps
// the ingest, training, and HTTP layers running and isolated from each
// other's failures.
package supervisor
