// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package services

import (
	"context"
	"errors"
)

// Runner is a blocking run-until-cancelled worker, satisfied by the
// ingest consumer.
type Runner interface {
	Run(ctx context.Context) error
}

// IngestService supervises the event ingest consumer.
type IngestService struct {
	runner Runner
}

// NewIngestService wraps the ingest consumer as a supervised service.
func NewIngestService(runner Runner) *IngestService {
	return &IngestService{runner: runner}
}

// Serve implements suture.Service. A context cancellation is a normal
// stop; any other return restarts the consumer under backoff.
func (s *IngestService) Serve(ctx context.Context) error {
	err := s.runner.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return ctx.Err()
}

// String identifies the service in supervisor logs.
func (s *IngestService) String() string {
	return "ingest-consumer"
}
