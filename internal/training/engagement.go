// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package training

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/stellara/mlpipeline/internal/artifact"
)

// EngagementConfig holds hyperparameters for the engagement classifier.
type EngagementConfig struct {
	// SplitRatio is the fraction of rows used for training; the rest is
	// held out for the accuracy metric.
	SplitRatio float64

	// Seed fixes the train/test shuffle so repeated runs on identical
	// input are comparable.
	Seed int64

	// LearningRate, Epochs and L2 control gradient descent.
	LearningRate float64
	Epochs       int
	L2           float64
}

// DefaultEngagementConfig returns the standard hyperparameters.
func DefaultEngagementConfig() EngagementConfig {
	return EngagementConfig{
		SplitRatio:   0.8,
		Seed:         42,
		LearningRate: 0.1,
		Epochs:       200,
		L2:           1e-3,
	}
}

// EngagementTrainer fits a logistic regression on standardized features
// and reports held-out accuracy as the artifact quality metric.
type EngagementTrainer struct {
	cfg    EngagementConfig
	logger zerolog.Logger
}

// NewEngagementTrainer creates an engagement trainer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngagementTrainer(cfg EngagementConfig, logger zerolog.Logger) *EngagementTrainer {
	if cfg.SplitRatio <= 0 || cfg.SplitRatio >= 1 {
		cfg.SplitRatio = 0.8
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.1
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = 200
	}
	return &EngagementTrainer{
		cfg:    cfg,
		logger: logger.With().Str("component", "trainer").Str("kind", "engagement").Logger(),
	}
}

// Kind implements Trainer.
func (t *EngagementTrainer) Kind() artifact.Kind {
	return artifact.KindEngagement
}

// Train fits the classifier. The dataset is split deterministically by
// the configured seed; the scaler is fitted on the training split only.
func (t *EngagementTrainer) Train(ctx context.Context, ds *Dataset) (*artifact.Artifact, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, errors.New("empty dataset")
	}
	if len(ds.Engaged) != ds.Len() {
		return nil, fmt.Errorf("label count %d does not match row count %d", len(ds.Engaged), ds.Len())
	}

	start := time.Now()
	trainIdx, testIdx := t.split(ds.Len())

	mean, std := fitScaler(ds, trainIdx)
	model, err := t.fit(ctx, ds, trainIdx, mean, std)
	if err != nil {
		return nil, err
	}

	// Tiny datasets can leave the holdout empty; fall back to the
	// training split so the metric is always defined.
	evalIdx := testIdx
	if len(evalIdx) == 0 {
		evalIdx = trainIdx
	}
	accuracy := evaluate(model, ds, evalIdx, mean, std)

	t.logger.Info().
		Int("rows", ds.Len()).
		Int("train_rows", len(trainIdx)).
		Int("test_rows", len(testIdx)).
		Float64("accuracy", accuracy).
		Dur("duration", time.Since(start)).
		Msg("engagement model trained")

	schema := make([]string, len(ds.Schema))
	copy(schema, ds.Schema)

	return &artifact.Artifact{
		Kind:          artifact.KindEngagement,
		TrainedAt:     time.Now().UTC(),
		FeatureSchema: schema,
		Quality:       accuracy,
		Engagement: &artifact.EngagementModel{
			Bias:    model.bias,
			Weights: model.weights,
			Mean:    mean,
			Std:     std,
		},
	}, nil
}

type lrModel struct {
	bias    float64
	weights []float64
}

// split shuffles row indices with the fixed seed and cuts at the
// configured ratio.
func (t *EngagementTrainer) split(n int) (train, test []int) {
	rng := rand.New(rand.NewSource(t.cfg.Seed)) //nolint:gosec // deterministic split, not crypto
	perm := rng.Perm(n)
	cut := int(float64(n) * t.cfg.SplitRatio)
	if cut < 1 {
		cut = 1
	}
	return perm[:cut], perm[cut:]
}

// fitScaler computes per-column mean and standard deviation over the
// training split. Zero-variance columns get std 1 so scaling is a no-op.
func fitScaler(ds *Dataset, idx []int) (mean, std []float64) {
	cols := len(ds.Schema)
	mean = make([]float64, cols)
	std = make([]float64, cols)

	for _, i := range idx {
		for j, v := range ds.Rows[i] {
			mean[j] += v
		}
	}
	n := float64(len(idx))
	for j := range mean {
		mean[j] /= n
	}
	for _, i := range idx {
		for j, v := range ds.Rows[i] {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
		if std[j] == 0 {
			std[j] = 1
		}
	}
	return mean, std
}

// fit runs full-batch gradient descent on the training split.
func (t *EngagementTrainer) fit(ctx context.Context, ds *Dataset, idx []int, mean, std []float64) (*lrModel, error) {
	cols := len(ds.Schema)
	m := &lrModel{weights: make([]float64, cols)}
	n := float64(len(idx))

	gradW := make([]float64, cols)
	scaled := make([]float64, cols)

	for epoch := 0; epoch < t.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("training canceled at epoch %d: %w", epoch, err)
		}

		for j := range gradW {
			gradW[j] = 0
		}
		gradB := 0.0

		for _, i := range idx {
			for j, v := range ds.Rows[i] {
				scaled[j] = (v - mean[j]) / std[j]
			}
			p := sigmoid(m.bias + dot(m.weights, scaled))
			y := 0.0
			if ds.Engaged[i] {
				y = 1.0
			}
			diff := p - y
			for j, v := range scaled {
				gradW[j] += diff * v
			}
			gradB += diff
		}

		for j := range m.weights {
			m.weights[j] -= t.cfg.LearningRate * (gradW[j]/n + t.cfg.L2*m.weights[j])
		}
		m.bias -= t.cfg.LearningRate * gradB / n
	}

	return m, nil
}

// evaluate computes accuracy at the 0.5 threshold over the given rows.
func evaluate(m *lrModel, ds *Dataset, idx []int, mean, std []float64) float64 {
	if len(idx) == 0 {
		return 0
	}
	scaled := make([]float64, len(ds.Schema))
	correct := 0
	for _, i := range idx {
		for j, v := range ds.Rows[i] {
			scaled[j] = (v - mean[j]) / std[j]
		}
		p := sigmoid(m.bias + dot(m.weights, scaled))
		if (p > 0.5) == ds.Engaged[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(idx))
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
