// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package serving

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/stellara/mlpipeline/internal/artifact"
)

// ErrModelUnavailable indicates no artifact has been published for the
// requested model kind yet. Retryable: a later request may succeed once
// the first training run completes.
var ErrModelUnavailable = errors.New("model not available yet")

// Recommendation sources. A default list is explicitly distinguishable
// from a similarity-based one.
const (
	SourceSimilar = "similar"
	SourceDefault = "default"
)

// EngagementRequest carries one session's behavioral features.
// Categories holds optional one-hot category indicators keyed by schema
// column name (e.g. "cat_finance": 1).
type EngagementRequest struct {
	SessionDuration float64            `json:"session_duration"`
	PagesViewed     int                `json:"pages_viewed"`
	Actions         int                `json:"actions"`
	Hour            int                `json:"hour" validate:"gte=0,lte=23"`
	Categories      map[string]float64 `json:"categories,omitempty"`
}

// EngagementResponse is the engagement prediction result.
type EngagementResponse struct {
	Probability float64   `json:"engagement_probability"`
	Generation  uint64    `json:"model_generation"`
	TrainedAt   time.Time `json:"model_trained_at"`
}

// RecommendRequest asks for items similar to ItemID, or a default list
// when ItemID is empty or unknown.
type RecommendRequest struct {
	UserID string `json:"user_id,omitempty"`
	ItemID string `json:"item_id,omitempty"`
	K      int    `json:"k,omitempty" validate:"gte=0"`
}

// RecommendResponse is an ordered list of item identifiers. Source is
// "similar" for a real similarity lookup and "default" for the
// deterministic non-personalized fallback.
type RecommendResponse struct {
	Recommendations []string `json:"recommendations"`
	Source          string   `json:"source"`
	Generation      uint64   `json:"model_generation"`
}

// Config holds serving limits.
type Config struct {
	DefaultK int
	MaxK     int
}

// Facade serves predictions from the artifact store.
type Facade struct {
	store  *artifact.Store
	cfg    Config
	logger zerolog.Logger
}

// NewFacade creates a serving facade over the artifact store.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewFacade(store *artifact.Store, cfg Config, logger zerolog.Logger) *Facade {
	if cfg.DefaultK <= 0 {
		cfg.DefaultK = 5
	}
	if cfg.MaxK <= 0 {
		cfg.MaxK = 100
	}
	return &Facade{
		store:  store,
		cfg:    cfg,
		logger: logger.With().Str("component", "serving").Logger(),
	}
}

// PredictEngagement scores one session against the current engagement
// artifact. Features the artifact's schema names but the request does
// not carry default to zero.
func (f *Facade) PredictEngagement(ctx context.Context, req *EngagementRequest) (*EngagementResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	art, ok := f.store.Get(artifact.KindEngagement)
	if !ok || art.Engagement == nil {
		return nil, ErrModelUnavailable
	}
	model := art.Engagement

	features := map[string]float64{
		"session_duration": req.SessionDuration,
		"pages_viewed":     float64(req.PagesViewed),
		"actions":          float64(req.Actions),
		"hour":             float64(req.Hour),
	}
	for name, v := range req.Categories {
		features[name] = v
	}

	// Vector built strictly in artifact schema order; unknown names in
	// the request are ignored, missing ones zero-filled.
	z := model.Bias
	for i, name := range art.FeatureSchema {
		v := features[name]
		z += model.Weights[i] * (v - model.Mean[i]) / model.Std[i]
	}
	p := 1 / (1 + math.Exp(-z))

	return &EngagementResponse{
		Probability: clamp01(p),
		Generation:  art.Generation,
		TrainedAt:   art.TrainedAt,
	}, nil
}

// Recommend returns up to K item identifiers. When the requested item is
// present in the artifact's index the list is its nearest neighbors by
// cosine similarity with ties broken by index order; otherwise the
// deterministic default list (first K items by index), explicitly marked
// as such.
func (f *Facade) Recommend(ctx context.Context, req *RecommendRequest) (*RecommendResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	art, ok := f.store.Get(artifact.KindRecommender)
	if !ok || art.Recommender == nil {
		return nil, ErrModelUnavailable
	}
	model := art.Recommender

	k := req.K
	if k <= 0 {
		k = f.cfg.DefaultK
	}
	if k > f.cfg.MaxK {
		k = f.cfg.MaxK
	}

	if req.ItemID != "" {
		if _, known := model.Vectors[req.ItemID]; known {
			return &RecommendResponse{
				Recommendations: f.neighbors(model, req.ItemID, k),
				Source:          SourceSimilar,
				Generation:      art.Generation,
			}, nil
		}
		f.logger.Debug().Str("item_id", req.ItemID).Msg("unknown item, serving default list")
	}

	return &RecommendResponse{
		Recommendations: defaultList(model, k),
		Source:          SourceDefault,
		Generation:      art.Generation,
	}, nil
}

// neighbors ranks every other item by cosine similarity to the target.
// Iterating the sorted index (not the vector map) makes the ordering,
// including ties, deterministic.
func (f *Facade) neighbors(model *artifact.RecommenderModel, itemID string, k int) []string {
	target := model.Vectors[itemID]

	type scored struct {
		id    string
		score float64
		pos   int
	}
	candidates := make([]scored, 0, len(model.Index)-1)
	for pos, id := range model.Index {
		if id == itemID {
			continue
		}
		candidates = append(candidates, scored{
			id:    id,
			score: cosine(target, model.Vectors[id]),
			pos:   pos,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].pos < candidates[j].pos
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	out := make([]string, k)
	for i := 0; i < k; i++ {
		out[i] = candidates[i].id
	}
	return out
}

// defaultList returns the first k items by index order.
func defaultList(model *artifact.RecommenderModel, k int) []string {
	if k > len(model.Index) {
		k = len(model.Index)
	}
	out := make([]string, k)
	copy(out, model.Index[:k])
	return out
}

// cosine computes cosine similarity; zero-norm vectors score 0.
func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		if i >= len(b) {
			break
		}
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
