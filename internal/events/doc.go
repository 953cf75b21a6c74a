// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

// Package events stores behavioral event records in DuckDB. It is the
// source of truth the feature layer reads from on every training cycle.
// The store supports batch inserts from the ingest pipeline, CSV import
// and seeded synthetic generation for empty deployments.
package events
