// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package ingest

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// TopicEvents is the subject behavioral events travel on.
const TopicEvents = "behavior.events"

// Config holds ingest pipeline configuration.
type Config struct {
	// NATSURL switches the transport from the in-process gochannel to
	// NATS JetStream when non-empty.
	NATSURL string

	// BatchSize is the maximum events per store write.
	BatchSize int

	// FlushInterval flushes a partial batch after this long.
	FlushInterval time.Duration

	// RatePerSecond caps store writes; 0 disables the limiter.
	RatePerSecond float64
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     500,
		FlushInterval: 5 * time.Second,
		RatePerSecond: 0,
	}
}

// PubSub bundles the publisher and subscriber ends of the transport.
type PubSub struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// NewPubSub builds the configured transport.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPubSub(cfg Config, logger zerolog.Logger) (*PubSub, error) {
	wmLogger := newWatermillLogger(logger)

	if cfg.NATSURL == "" {
		// The gochannel Pub/Sub is one object serving both ends.
		ch := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 1024,
		}, wmLogger)
		return &PubSub{Publisher: ch, Subscriber: ch}, nil
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(time.Second),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			TrackMsgId:    true,
		},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOpts,
		Unmarshaler: &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			DurablePrefix: "stellara-ingest",
		},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create nats subscriber: %w", err)
	}

	return &PubSub{Publisher: pub, Subscriber: sub}, nil
}

// Close closes both ends.
func (p *PubSub) Close() error {
	err := p.Publisher.Close()
	if any(p.Subscriber) != any(p.Publisher) {
		if serr := p.Subscriber.Close(); err == nil {
			err = serr
		}
	}
	return err
}
