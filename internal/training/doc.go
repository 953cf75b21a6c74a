// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

// Package training defines the feature dataset, the FeatureSource and
// Trainer contracts consumed by the retrain coordinator, and the two
// concrete trainers: a logistic-regression engagement classifier and an
// item-vector recommender.
//
// Trainers are deterministic with respect to their input: the engagement
// trainer splits the dataset with a fixed ratio and seed, so repeated
// runs on identical data produce comparable quality metrics. The
// recommender trainer returns ErrSkipped, not a failure, when the item
// universe is too small to be meaningful.
package training
