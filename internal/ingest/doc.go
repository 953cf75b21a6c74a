// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

// Package ingest moves behavioral events from the HTTP surface into the
// event store through a Watermill pipeline, decoupling request handling
// from DuckDB write latency.
//
// The default transport is the in-process gochannel Pub/Sub. Setting an
// ingest NATS URL switches both ends to NATS JetStream, which survives
// restarts and lets producers live in other processes. The consumer
// batches inserts and rate-limits writes so an ingest burst cannot
// starve the store that training reads from.
package ingest
