// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package training

import (
	"context"
	"errors"

	"github.com/stellara/mlpipeline/internal/artifact"
)

// ErrSkipped indicates a trainer declined to train because the dataset
// cannot support its model (e.g. fewer than two distinct items for the
// recommender). It is not a failure: the coordinator performs no publish
// and records the run as skipped.
var ErrSkipped = errors.New("training skipped: insufficient data")

// Trainer produces a model artifact from a dataset. Implementations must
// honor ctx cancellation between iterations and must not retain the
// dataset after returning.
type Trainer interface {
	// Kind reports which model this trainer produces.
	Kind() artifact.Kind

	// Train builds an artifact (without a generation; the artifact
	// store stamps that on publish). May return ErrSkipped.
	Train(ctx context.Context, ds *Dataset) (*artifact.Artifact, error)
}
