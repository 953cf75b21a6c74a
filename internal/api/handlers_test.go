// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/stellara/mlpipeline/internal/artifact"
	"github.com/stellara/mlpipeline/internal/events"
	"github.com/stellara/mlpipeline/internal/lifecycle"
	"github.com/stellara/mlpipeline/internal/models"
	"github.com/stellara/mlpipeline/internal/serving"
)

type fakePredictor struct {
	engagement *serving.EngagementResponse
	recommend  *serving.RecommendResponse
	err        error
}

func (f *fakePredictor) PredictEngagement(_ context.Context, _ *serving.EngagementRequest) (*serving.EngagementResponse, error) {
	return f.engagement, f.err
}

func (f *fakePredictor) Recommend(_ context.Context, _ *serving.RecommendRequest) (*serving.RecommendResponse, error) {
	return f.recommend, f.err
}

type fakeCoordinator struct {
	triggerErr error
	jobID      string
	state      lifecycle.State
	history    []lifecycle.Job
	triggered  []artifact.Kind
}

func (f *fakeCoordinator) Trigger(kind artifact.Kind) (string, error) {
	f.triggered = append(f.triggered, kind)
	if f.triggerErr != nil {
		return "", f.triggerErr
	}
	return f.jobID, nil
}

func (f *fakeCoordinator) State() lifecycle.State   { return f.state }
func (f *fakeCoordinator) History() []lifecycle.Job { return f.history }
func (f *fakeCoordinator) Kinds() []artifact.Kind   { return artifact.Kinds() }

type fakeSink struct {
	published []events.Event
	err       error
}

func (f *fakeSink) Publish(evs []events.Event) error {
	f.published = append(f.published, evs...)
	return f.err
}

type fakeArtifacts struct {
	artifacts map[artifact.Kind]*artifact.Artifact
}

func (f *fakeArtifacts) Get(kind artifact.Kind) (*artifact.Artifact, bool) {
	art, ok := f.artifacts[kind]
	return art, ok
}

func newTestRouter(p Predictor, c Coordinator, s EventSink, a ArtifactReader) http.Handler {
	return NewRouter(NewHandler(p, c, s, a), RouterConfig{})
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	return resp
}

func TestPredictEngagementModelUnavailable(t *testing.T) {
	router := newTestRouter(
		&fakePredictor{err: serving.ErrModelUnavailable},
		&fakeCoordinator{}, &fakeSink{}, &fakeArtifacts{},
	)

	body := `{"session_duration": 400, "pages_viewed": 5, "actions": 2, "hour": 14}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict/engagement", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Error == nil || resp.Error.Code != "MODEL_UNAVAILABLE" {
		t.Errorf("error = %+v, want MODEL_UNAVAILABLE", resp.Error)
	}
}

func TestPredictEngagementSuccess(t *testing.T) {
	router := newTestRouter(
		&fakePredictor{engagement: &serving.EngagementResponse{Probability: 0.7, Generation: 3}},
		&fakeCoordinator{}, &fakeSink{}, &fakeArtifacts{},
	)

	body := `{"session_duration": 400, "pages_viewed": 5, "actions": 2, "hour": 14}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict/engagement", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	if resp.Status != "success" {
		t.Errorf("status = %q, want success", resp.Status)
	}
}

func TestPredictEngagementRejectsBadHour(t *testing.T) {
	router := newTestRouter(&fakePredictor{}, &fakeCoordinator{}, &fakeSink{}, &fakeArtifacts{})

	body := `{"session_duration": 400, "hour": 99}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict/engagement", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v, want VALIDATION_ERROR", resp.Error)
	}
}

func TestRecommendSuccess(t *testing.T) {
	router := newTestRouter(
		&fakePredictor{recommend: &serving.RecommendResponse{
			Recommendations: []string{"item-1", "item-2"},
			Source:          serving.SourceSimilar,
			Generation:      2,
		}},
		&fakeCoordinator{}, &fakeSink{}, &fakeArtifacts{},
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommend", strings.NewReader(`{"item_id": "item-9", "k": 2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestIngestSingleEvent(t *testing.T) {
	sink := &fakeSink{}
	router := newTestRouter(&fakePredictor{}, &fakeCoordinator{}, sink, &fakeArtifacts{})

	body := `{"user_id": "u1", "item_id": "i1", "session_duration": 120, "item_category": "finance"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	if len(sink.published) != 1 {
		t.Fatalf("published %d events, want 1", len(sink.published))
	}
	if sink.published[0].Timestamp.IsZero() {
		t.Error("missing timestamp should be filled in")
	}
}

func TestIngestEventArray(t *testing.T) {
	sink := &fakeSink{}
	router := newTestRouter(&fakePredictor{}, &fakeCoordinator{}, sink, &fakeArtifacts{})

	body := `[
		{"user_id": "u1", "item_id": "i1"},
		{"user_id": "u2", "item_id": "i2"}
	]`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	if len(sink.published) != 2 {
		t.Errorf("published %d events, want 2", len(sink.published))
	}
}

func TestIngestRejectsMissingIdentifiers(t *testing.T) {
	sink := &fakeSink{}
	router := newTestRouter(&fakePredictor{}, &fakeCoordinator{}, sink, &fakeArtifacts{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(`{"session_duration": 100}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(sink.published) != 0 {
		t.Error("invalid events must not be published")
	}
}

func TestTriggerTrainingAccepted(t *testing.T) {
	coord := &fakeCoordinator{jobID: "job-123"}
	router := newTestRouter(&fakePredictor{}, coord, &fakeSink{}, &fakeArtifacts{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/models/engagement/train", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	if len(coord.triggered) != 1 || coord.triggered[0] != artifact.KindEngagement {
		t.Errorf("triggered = %v, want [engagement]", coord.triggered)
	}
}

func TestTriggerTrainingConflictWhenRunning(t *testing.T) {
	coord := &fakeCoordinator{triggerErr: lifecycle.ErrRunInProgress}
	router := newTestRouter(&fakePredictor{}, coord, &fakeSink{}, &fakeArtifacts{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/models/recommender/train", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Error == nil || resp.Error.Code != "TRAINING_IN_PROGRESS" {
		t.Errorf("error = %+v, want TRAINING_IN_PROGRESS", resp.Error)
	}
}

func TestTriggerTrainingUnknownKind(t *testing.T) {
	router := newTestRouter(&fakePredictor{}, &fakeCoordinator{}, &fakeSink{}, &fakeArtifacts{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/models/bogus/train", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetModels(t *testing.T) {
	trainedAt := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	arts := &fakeArtifacts{artifacts: map[artifact.Kind]*artifact.Artifact{
		artifact.KindEngagement: {
			Kind:          artifact.KindEngagement,
			Generation:    4,
			TrainedAt:     trainedAt,
			FeatureSchema: []string{"session_duration", "pages_viewed"},
			Quality:       0.91,
		},
	}}
	coord := &fakeCoordinator{state: lifecycle.StateReady}
	router := newTestRouter(&fakePredictor{}, coord, &fakeSink{}, arts)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/models", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeEnvelope(t, rec)

	raw, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatal(err)
	}
	var payload models.ModelsResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Readiness != "ready" {
		t.Errorf("readiness = %q, want ready", payload.Readiness)
	}
	if len(payload.Models) != len(artifact.Kinds()) {
		t.Fatalf("models = %d, want %d", len(payload.Models), len(artifact.Kinds()))
	}
	for _, m := range payload.Models {
		switch m.Kind {
		case "engagement":
			if !m.Available || m.Generation != 4 {
				t.Errorf("engagement status = %+v, want available generation 4", m)
			}
		case "recommender":
			if m.Available {
				t.Errorf("recommender should be unavailable, got %+v", m)
			}
		}
	}
}

func TestReadiness(t *testing.T) {
	coord := &fakeCoordinator{state: lifecycle.StateWarmingUp}
	router := newTestRouter(&fakePredictor{}, coord, &fakeSink{}, &fakeArtifacts{})

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 while warming up", rec.Code)
	}

	coord.state = lifecycle.StateReady
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 when ready", rec.Code)
	}
}

func TestHealthAlwaysOK(t *testing.T) {
	router := newTestRouter(&fakePredictor{}, &fakeCoordinator{}, &fakeSink{}, &fakeArtifacts{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
