// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package events

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// syntheticCategories is the fixed category universe for generated data.
var syntheticCategories = []string{"crypto", "finance", "ml", "web3", "misc"}

// SeedSynthetic fills an empty store with n generated events so a fresh
// deployment can train before any real traffic arrives. The generator is
// seeded, so repeated seeds of the same n produce the same data.
func (s *Store) SeedSynthetic(ctx context.Context, n int, seed int64) error {
	if n <= 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // synthetic data, not crypto
	now := time.Now().UTC()

	batch := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		sessionDur := math.Abs(rng.NormFloat64()*120 + 300)
		pages := int(rng.NormFloat64()*2 + 5)
		if pages < 1 {
			pages = 1
		}
		batch = append(batch, Event{
			UserID:          fmt.Sprintf("user_%d", 1+rng.Intn(199)),
			SessionDuration: float64(int(sessionDur)),
			PagesViewed:     pages,
			Actions:         poisson(rng, 3),
			ItemID:          fmt.Sprintf("item_%d", 1+rng.Intn(199)),
			ItemCategory:    syntheticCategories[rng.Intn(len(syntheticCategories))],
			Timestamp:       now.Add(-time.Duration(rng.Intn(60*24*30)) * time.Minute),
		})
	}

	if err := s.Insert(ctx, batch); err != nil {
		return fmt.Errorf("seed synthetic events: %w", err)
	}
	s.logger.Info().Int("events", n).Int64("seed", seed).Msg("seeded synthetic behavioral events")
	return nil
}

// poisson draws from a Poisson distribution (Knuth's method; lambda is
// small here so the loop is short).
func poisson(rng *rand.Rand, lambda float64) int {
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}
