// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package training

import (
	"context"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"

	"github.com/stellara/mlpipeline/internal/artifact"
)

// separableDataset builds a dataset where engagement follows session
// duration with a clean margin, so the classifier should learn it.
func separableDataset(n int) *Dataset {
	rng := rand.New(rand.NewSource(7)) //nolint:gosec // test data
	ds := &Dataset{
		Schema:  []string{"session_duration", "pages_viewed", "actions", "hour", "cat_finance", "cat_ml"},
		Rows:    make([][]float64, 0, n),
		Engaged: make([]bool, 0, n),
		ItemIDs: make([]string, 0, n),
		UserIDs: make([]string, 0, n),
	}
	for i := 0; i < n; i++ {
		engaged := i%2 == 0
		duration := 100 + rng.Float64()*50
		if engaged {
			duration = 500 + rng.Float64()*100
		}
		cat := float64(i % 2)
		ds.Rows = append(ds.Rows, []float64{duration, float64(2 + i%5), float64(i % 4), float64(i % 24), cat, 1 - cat})
		ds.Engaged = append(ds.Engaged, engaged)
		ds.ItemIDs = append(ds.ItemIDs, "item")
		ds.UserIDs = append(ds.UserIDs, "user")
	}
	return ds
}

func TestEngagementTrainerLearnsSeparableData(t *testing.T) {
	trainer := NewEngagementTrainer(DefaultEngagementConfig(), zerolog.Nop())

	art, err := trainer.Train(context.Background(), separableDataset(200))
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if art.Kind != artifact.KindEngagement {
		t.Errorf("kind = %v, want engagement", art.Kind)
	}
	if art.Engagement == nil {
		t.Fatal("missing engagement model")
	}
	if len(art.Engagement.Weights) != 6 || len(art.Engagement.Mean) != 6 || len(art.Engagement.Std) != 6 {
		t.Errorf("parameter sizes = %d/%d/%d, want 6 each",
			len(art.Engagement.Weights), len(art.Engagement.Mean), len(art.Engagement.Std))
	}
	if art.Quality < 0.9 {
		t.Errorf("holdout accuracy = %v, want >= 0.9 on separable data", art.Quality)
	}
	if art.Quality > 1 {
		t.Errorf("accuracy = %v, must not exceed 1", art.Quality)
	}
}

func TestEngagementTrainerDeterministicSplit(t *testing.T) {
	trainer := NewEngagementTrainer(DefaultEngagementConfig(), zerolog.Nop())

	a, err := trainer.Train(context.Background(), separableDataset(100))
	if err != nil {
		t.Fatal(err)
	}
	b, err := trainer.Train(context.Background(), separableDataset(100))
	if err != nil {
		t.Fatal(err)
	}

	if a.Quality != b.Quality {
		t.Errorf("quality differs across identical runs: %v vs %v", a.Quality, b.Quality)
	}
	for i := range a.Engagement.Weights {
		if a.Engagement.Weights[i] != b.Engagement.Weights[i] {
			t.Fatalf("weight %d differs across identical runs", i)
		}
	}
}

func TestEngagementTrainerCopiesSchema(t *testing.T) {
	trainer := NewEngagementTrainer(DefaultEngagementConfig(), zerolog.Nop())
	ds := separableDataset(50)

	art, err := trainer.Train(context.Background(), ds)
	if err != nil {
		t.Fatal(err)
	}

	ds.Schema[0] = "mutated"
	if art.FeatureSchema[0] != "session_duration" {
		t.Error("artifact schema must be independent of the dataset's slice")
	}
}

func TestEngagementTrainerEmptyDataset(t *testing.T) {
	trainer := NewEngagementTrainer(DefaultEngagementConfig(), zerolog.Nop())
	if _, err := trainer.Train(context.Background(), &Dataset{}); err == nil {
		t.Error("expected error for empty dataset")
	}
}

func TestEngagementTrainerTinyDatasetStillScores(t *testing.T) {
	trainer := NewEngagementTrainer(DefaultEngagementConfig(), zerolog.Nop())

	ds := &Dataset{
		Schema:  []string{"session_duration"},
		Rows:    [][]float64{{400}},
		Engaged: []bool{true},
		ItemIDs: []string{"i"},
		UserIDs: []string{"u"},
	}
	art, err := trainer.Train(context.Background(), ds)
	if err != nil {
		t.Fatalf("Train on single row failed: %v", err)
	}
	// The holdout is empty; the metric falls back to the train split.
	if art.Quality < 0 || art.Quality > 1 {
		t.Errorf("quality = %v, want within [0, 1]", art.Quality)
	}
}

func TestEngagementTrainerHonorsCancellation(t *testing.T) {
	trainer := NewEngagementTrainer(DefaultEngagementConfig(), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := trainer.Train(ctx, separableDataset(100)); err == nil {
		t.Error("expected cancellation error")
	}
}
