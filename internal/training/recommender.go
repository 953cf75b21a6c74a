// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package training

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/stellara/mlpipeline/internal/artifact"
)

// RecommenderTrainer builds per-item feature vectors from the one-hot
// category columns plus a distinct-user popularity count. The artifact
// stores an explicit item-to-vector mapping with a sorted item index, so
// serving never depends on any library-internal storage order.
type RecommenderTrainer struct {
	logger zerolog.Logger
}

// NewRecommenderTrainer creates a recommender trainer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRecommenderTrainer(logger zerolog.Logger) *RecommenderTrainer {
	return &RecommenderTrainer{
		logger: logger.With().Str("component", "trainer").Str("kind", "recommender").Logger(),
	}
}

// Kind implements Trainer.
func (t *RecommenderTrainer) Kind() artifact.Kind {
	return artifact.KindRecommender
}

// Train aggregates rows by item. Returns ErrSkipped when the dataset
// contains fewer than two distinct items.
func (t *RecommenderTrainer) Train(ctx context.Context, ds *Dataset) (*artifact.Artifact, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, fmt.Errorf("empty dataset: %w", ErrSkipped)
	}
	if len(ds.ItemIDs) != ds.Len() || len(ds.UserIDs) != ds.Len() {
		return nil, fmt.Errorf("identity columns do not match row count %d", ds.Len())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	catIdx, catNames := ds.CategoryColumns()

	vectors := make(map[string][]float64)
	users := make(map[string]map[string]struct{})

	for i, itemID := range ds.ItemIDs {
		if itemID == "" {
			continue
		}
		vec, ok := vectors[itemID]
		if !ok {
			vec = make([]float64, len(catIdx))
			vectors[itemID] = vec
			users[itemID] = make(map[string]struct{})
		}
		// Element-wise max collapses repeated observations of an item
		// into its category membership vector.
		for vi, ci := range catIdx {
			if v := ds.Rows[i][ci]; v > vec[vi] {
				vec[vi] = v
			}
		}
		users[itemID][ds.UserIDs[i]] = struct{}{}
	}

	if len(vectors) < 2 {
		t.logger.Info().
			Int("distinct_items", len(vectors)).
			Msg("not enough distinct items, skipping recommender training")
		return nil, ErrSkipped
	}

	index := make([]string, 0, len(vectors))
	for itemID := range vectors {
		index = append(index, itemID)
	}
	sort.Strings(index)

	popularity := make(map[string]int, len(users))
	for itemID, u := range users {
		popularity[itemID] = len(u)
	}

	t.logger.Info().
		Int("distinct_items", len(index)).
		Int("vector_size", len(catNames)).
		Msg("recommender model trained")

	return &artifact.Artifact{
		Kind:          artifact.KindRecommender,
		TrainedAt:     time.Now().UTC(),
		FeatureSchema: catNames,
		Quality:       float64(len(index)),
		Recommender: &artifact.RecommenderModel{
			Index:      index,
			Vectors:    vectors,
			Popularity: popularity,
		},
	}, nil
}
