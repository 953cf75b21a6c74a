// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package artifact

import (
	"fmt"
	"time"
)

// Kind identifies a model kind served by the pipeline.
type Kind int

const (
	// KindEngagement is the session engagement classifier.
	KindEngagement Kind = iota
	// KindRecommender is the item-similarity recommender.
	KindRecommender

	numKinds
)

// Kinds returns all model kinds in a fixed order.
func Kinds() []Kind {
	return []Kind{KindEngagement, KindRecommender}
}

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindEngagement:
		return "engagement"
	case KindRecommender:
		return "recommender"
	default:
		return "unknown"
	}
}

// ParseKind converts a string name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "engagement":
		return KindEngagement, nil
	case "recommender":
		return KindRecommender, nil
	default:
		return 0, fmt.Errorf("unknown model kind %q", s)
	}
}

// EngagementModel is a trained logistic regression classifier plus the
// standard scaler fitted alongside it. Weights, Mean and Std are aligned
// with the artifact's FeatureSchema, index for index.
type EngagementModel struct {
	Bias    float64   `json:"bias"`
	Weights []float64 `json:"weights"`
	Mean    []float64 `json:"mean"`
	Std     []float64 `json:"std"`
}

// RecommenderModel is a trained item-similarity model. Vectors maps each
// item identifier to its feature vector explicitly, so lookups never
// depend on the storage order of any internal matrix. Index is the
// deterministic item ordering used for tie-breaks and the default list.
type RecommenderModel struct {
	Index      []string             `json:"index"`
	Vectors    map[string][]float64 `json:"vectors"`
	Popularity map[string]int       `json:"popularity"`
}

// Artifact is one published model generation. It is immutable after
// creation; the Store stamps Generation during publish.
type Artifact struct {
	Kind          Kind      `json:"kind"`
	Generation    uint64    `json:"generation"`
	TrainedAt     time.Time `json:"trained_at"`
	FeatureSchema []string  `json:"feature_schema"`
	Quality       float64   `json:"quality"`

	Engagement  *EngagementModel  `json:"engagement,omitempty"`
	Recommender *RecommenderModel `json:"recommender,omitempty"`
}

// PersistenceError reports a failed durable write after a successful
// in-memory publish. The published artifact remains servable.
type PersistenceError struct {
	Kind       Kind
	Generation uint64
	Err        error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s artifact generation %d: %v", e.Kind, e.Generation, e.Err)
}

// Unwrap returns the underlying error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}
