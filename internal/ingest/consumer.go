// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package ingest

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/stellara/mlpipeline/internal/events"
	"github.com/stellara/mlpipeline/internal/metrics"
)

// EventWriter persists batches of behavioral events.
type EventWriter interface {
	Insert(ctx context.Context, batch []events.Event) error
}

// Consumer drains the ingest topic and writes events to storage in
// batches. A batch is flushed when it reaches the configured size or
// when the flush interval elapses, whichever comes first.
type Consumer struct {
	sub     message.Subscriber
	writer  EventWriter
	cfg     Config
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewConsumer builds a consumer over an existing subscription transport.
func NewConsumer(sub message.Subscriber, writer EventWriter, cfg Config, logger zerolog.Logger) *Consumer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.BatchSize)
	}
	return &Consumer{
		sub:     sub,
		writer:  writer,
		cfg:     cfg,
		limiter: limiter,
		logger:  logger.With().Str("component", "ingest").Logger(),
	}
}

// Run consumes the ingest topic until the context is cancelled. Messages
// are acked only after their batch has been written, so a crash before
// the write causes redelivery rather than loss.
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.sub.Subscribe(ctx, TopicEvents)
	if err != nil {
		return err
	}

	batch := make([]events.Event, 0, c.cfg.BatchSize)
	pending := make([]*message.Message, 0, c.cfg.BatchSize)

	ticker := time.NewTicker(c.cfg.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := c.writer.Insert(ctx, batch); err != nil {
			metrics.IngestErrors.Inc()
			c.logger.Error().Err(err).Int("batch_size", len(batch)).Msg("Failed to write event batch")
			for _, m := range pending {
				m.Nack()
			}
		} else {
			metrics.EventsIngestedTotal.Add(float64(len(batch)))
			metrics.IngestBatchSize.Observe(float64(len(batch)))
			c.logger.Debug().Int("batch_size", len(batch)).Msg("Wrote event batch")
			for _, m := range pending {
				m.Ack()
			}
		}
		batch = batch[:0]
		pending = pending[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return ctx.Err()
		case <-ticker.C:
			flush()
		case msg, ok := <-msgs:
			if !ok {
				flush()
				return nil
			}
			if c.limiter != nil {
				if err := c.limiter.Wait(ctx); err != nil {
					msg.Nack()
					flush()
					return err
				}
			}
			var ev events.Event
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				metrics.IngestErrors.Inc()
				c.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("Dropping malformed event")
				msg.Ack()
				continue
			}
			batch = append(batch, ev)
			pending = append(pending, msg)
			if len(batch) >= c.cfg.BatchSize {
				flush()
			}
		}
	}
}
