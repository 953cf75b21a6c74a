// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package artifact

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/stellara/mlpipeline/internal/metrics"
)

// ErrNoArtifact indicates no generation has been persisted for a kind.
var ErrNoArtifact = errors.New("no artifact persisted")

// Persister writes artifacts to durable storage keyed by (kind, generation).
type Persister interface {
	// Save persists one artifact.
	Save(ctx context.Context, art *Artifact) error

	// LoadLatest returns the highest persisted generation for a kind,
	// or ErrNoArtifact.
	LoadLatest(ctx context.Context, kind Kind) (*Artifact, error)

	// Prune removes persisted generations older than the newest keep.
	Prune(ctx context.Context, kind Kind, keep int) error
}

// slot holds the published artifact for one kind. The pointer swap is the
// whole publish; readers only ever load the pointer.
type slot struct {
	current atomic.Pointer[Artifact]
	gen     atomic.Uint64
}

// Store holds the currently servable artifact per model kind.
// Publish is called only by the retrain coordinator; Get may be called by
// any number of concurrent readers and never blocks.
type Store struct {
	slots           [numKinds]slot
	persister       Persister
	keepGenerations int
	logger          zerolog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithPersister attaches durable storage for published artifacts.
func WithPersister(p Persister, keepGenerations int) StoreOption {
	return func(s *Store) {
		s.persister = p
		s.keepGenerations = keepGenerations
	}
}

// NewStore creates an empty artifact store.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewStore(logger zerolog.Logger, opts ...StoreOption) *Store {
	s := &Store{
		logger: logger.With().Str("component", "artifact").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the latest published artifact for a kind, or false if none
// has been published yet. It is safe under concurrent Publish calls.
func (s *Store) Get(kind Kind) (*Artifact, bool) {
	if kind < 0 || kind >= numKinds {
		return nil, false
	}
	art := s.slots[kind].current.Load()
	return art, art != nil
}

// Generation returns the current generation for a kind, 0 if empty.
func (s *Store) Generation(kind Kind) uint64 {
	if kind < 0 || kind >= numKinds {
		return 0
	}
	return s.slots[kind].gen.Load()
}

// Publish replaces the slot for the artifact's kind as a single atomic
// swap visible to all subsequent reads. It stamps the next generation on
// the artifact before the swap. A durable-write failure is returned as a
// *PersistenceError; the in-memory publish is never rolled back.
func (s *Store) Publish(ctx context.Context, art *Artifact) error {
	if art == nil {
		return errors.New("nil artifact")
	}
	kind := art.Kind
	if kind < 0 || kind >= numKinds {
		return fmt.Errorf("invalid model kind %d", int(kind))
	}

	art.Generation = s.slots[kind].gen.Add(1)
	if art.TrainedAt.IsZero() {
		art.TrainedAt = time.Now().UTC()
	}
	s.slots[kind].current.Store(art)

	metrics.ModelGeneration.WithLabelValues(kind.String()).Set(float64(art.Generation))
	metrics.ModelQuality.WithLabelValues(kind.String()).Set(art.Quality)
	metrics.ArtifactPublishes.WithLabelValues(kind.String()).Inc()

	s.logger.Info().
		Str("kind", kind.String()).
		Uint64("generation", art.Generation).
		Float64("quality", art.Quality).
		Int("schema_size", len(art.FeatureSchema)).
		Msg("artifact published")

	if s.persister == nil {
		return nil
	}

	if err := s.persister.Save(ctx, art); err != nil {
		metrics.ArtifactPersistenceFailures.WithLabelValues(kind.String()).Inc()
		s.logger.Error().Err(err).
			Str("kind", kind.String()).
			Uint64("generation", art.Generation).
			Msg("durable artifact write failed, in-memory publish stands")
		return &PersistenceError{Kind: kind, Generation: art.Generation, Err: err}
	}

	if s.keepGenerations > 0 {
		if err := s.persister.Prune(ctx, kind, s.keepGenerations); err != nil {
			s.logger.Warn().Err(err).
				Str("kind", kind.String()).
				Msg("pruning old artifact generations failed")
		}
	}

	return nil
}

// Restore loads the latest persisted generation per kind into the slots.
// Kinds without a persisted artifact are left empty. Called once at
// startup, before any concurrent access.
func (s *Store) Restore(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}

	for _, kind := range Kinds() {
		art, err := s.persister.LoadLatest(ctx, kind)
		if errors.Is(err, ErrNoArtifact) {
			s.logger.Debug().Str("kind", kind.String()).Msg("no persisted artifact")
			continue
		}
		if err != nil {
			return fmt.Errorf("restore %s artifact: %w", kind, err)
		}

		s.slots[kind].current.Store(art)
		s.slots[kind].gen.Store(art.Generation)
		metrics.ModelGeneration.WithLabelValues(kind.String()).Set(float64(art.Generation))

		s.logger.Info().
			Str("kind", kind.String()).
			Uint64("generation", art.Generation).
			Time("trained_at", art.TrainedAt).
			Msg("artifact restored from durable storage")
	}

	return nil
}
