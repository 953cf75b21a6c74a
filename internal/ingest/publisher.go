// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package ingest

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/stellara/mlpipeline/internal/events"
)

// Publisher writes behavioral events onto the ingest topic.
type Publisher struct {
	pub message.Publisher
}

// NewPublisher wraps a transport publisher.
func NewPublisher(pub message.Publisher) *Publisher {
	return &Publisher{pub: pub}
}

// Publish sends events to the ingest topic, one message per event.
func (p *Publisher) Publish(evs []events.Event) error {
	msgs := make([]*message.Message, 0, len(evs))
	for i := range evs {
		payload, err := json.Marshal(&evs[i])
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		msgs = append(msgs, message.NewMessage(uuid.New().String(), payload))
	}
	if err := p.pub.Publish(TopicEvents, msgs...); err != nil {
		return fmt.Errorf("publish events: %w", err)
	}
	return nil
}
