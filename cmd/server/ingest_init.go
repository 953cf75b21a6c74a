// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package main

import (
	"github.com/rs/zerolog"

	"github.com/stellara/mlpipeline/internal/config"
	"github.com/stellara/mlpipeline/internal/events"
	"github.com/stellara/mlpipeline/internal/ingest"
)

// initIngest wires the event pipeline: transport (in-process channel or
// NATS JetStream), the publisher the HTTP handler writes to, and the
// batching consumer that drains into the event store.
func initIngest(cfg *config.Config, store *events.Store, logger zerolog.Logger) (*ingest.PubSub, *ingest.Publisher, *ingest.Consumer, error) {
	ingestCfg := ingest.Config{
		NATSURL:       cfg.Ingest.NATSURL,
		BatchSize:     cfg.Ingest.BatchSize,
		FlushInterval: cfg.Ingest.FlushInterval,
		RatePerSecond: float64(cfg.Ingest.RatePerSecond),
	}

	pubsub, err := ingest.NewPubSub(ingestCfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	publisher := ingest.NewPublisher(pubsub.Publisher)
	consumer := ingest.NewConsumer(pubsub.Subscriber, store, ingestCfg, logger)
	return pubsub, publisher, consumer, nil
}
