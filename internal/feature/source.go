// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package feature

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/stellara/mlpipeline/internal/events"
	"github.com/stellara/mlpipeline/internal/metrics"
	"github.com/stellara/mlpipeline/internal/training"
)

// baseColumns are the non-category feature columns, in schema order.
var baseColumns = []string{"session_duration", "pages_viewed", "actions", "hour"}

// ErrNoEvents indicates the event store holds nothing to train on.
var ErrNoEvents = errors.New("no behavioral events available")

// EventReader is the slice of the event store the feature layer needs.
type EventReader interface {
	Events(ctx context.Context) ([]events.Event, error)
	Categories(ctx context.Context) ([]string, error)
}

// Config holds feature engineering policy.
type Config struct {
	// EngagementThreshold is the session duration in seconds above
	// which a session is labeled engaged.
	EngagementThreshold float64
}

// DefaultConfig returns the standard feature policy.
func DefaultConfig() Config {
	return Config{EngagementThreshold: 300}
}

// Source builds training datasets from the event store. It implements
// training.FeatureSource.
type Source struct {
	reader  EventReader
	cfg     Config
	breaker *gobreaker.CircuitBreaker[*training.Dataset]
	logger  zerolog.Logger
}

// NewSource creates a feature source over an event reader.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSource(reader EventReader, cfg Config, logger zerolog.Logger) *Source {
	if cfg.EngagementThreshold <= 0 {
		cfg.EngagementThreshold = 300
	}

	componentLogger := logger.With().Str("component", "feature").Logger()
	const cbName = "feature-source"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[*training.Dataset](gobreaker.Settings{
		Name: cbName,
		// Retrain runs are minutes apart, so trip on few consecutive
		// failures rather than a rate over a window.
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			componentLogger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("feature source circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})

	return &Source{
		reader:  reader,
		cfg:     cfg,
		breaker: breaker,
		logger:  componentLogger,
	}
}

// Dataset implements training.FeatureSource. The returned dataset is
// freshly built and owned by the caller.
func (s *Source) Dataset(ctx context.Context) (*training.Dataset, error) {
	return s.breaker.Execute(func() (*training.Dataset, error) {
		return s.build(ctx)
	})
}

func (s *Source) build(ctx context.Context) (*training.Dataset, error) {
	evs, err := s.reader.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	if len(evs) == 0 {
		return nil, ErrNoEvents
	}

	categories, err := s.reader.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	sort.Strings(categories)

	schema := make([]string, 0, len(baseColumns)+len(categories))
	schema = append(schema, baseColumns...)
	catPos := make(map[string]int, len(categories))
	for _, c := range categories {
		catPos[c] = len(schema)
		schema = append(schema, training.CategoryPrefix+c)
	}

	ds := &training.Dataset{
		Schema:  schema,
		Rows:    make([][]float64, 0, len(evs)),
		Engaged: make([]bool, 0, len(evs)),
		ItemIDs: make([]string, 0, len(evs)),
		UserIDs: make([]string, 0, len(evs)),
	}

	for i := range evs {
		e := &evs[i]
		row := make([]float64, len(schema))
		row[0] = e.SessionDuration
		row[1] = float64(e.PagesViewed)
		row[2] = float64(e.Actions)
		row[3] = float64(e.Timestamp.Hour())
		if pos, ok := catPos[e.ItemCategory]; ok {
			row[pos] = 1
		}

		ds.Rows = append(ds.Rows, row)
		ds.Engaged = append(ds.Engaged, e.SessionDuration > s.cfg.EngagementThreshold)
		ds.ItemIDs = append(ds.ItemIDs, e.ItemID)
		ds.UserIDs = append(ds.UserIDs, e.UserID)
	}

	s.logger.Debug().
		Int("rows", ds.Len()).
		Int("schema_size", len(schema)).
		Int("categories", len(categories)).
		Msg("dataset built")
	return ds, nil
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
