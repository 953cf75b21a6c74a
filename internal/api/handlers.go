// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/stellara/mlpipeline/internal/artifact"
	"github.com/stellara/mlpipeline/internal/events"
	"github.com/stellara/mlpipeline/internal/lifecycle"
	"github.com/stellara/mlpipeline/internal/metrics"
	"github.com/stellara/mlpipeline/internal/models"
	"github.com/stellara/mlpipeline/internal/serving"
)

// Predictor serves model predictions.
type Predictor interface {
	PredictEngagement(ctx context.Context, req *serving.EngagementRequest) (*serving.EngagementResponse, error)
	Recommend(ctx context.Context, req *serving.RecommendRequest) (*serving.RecommendResponse, error)
}

// Coordinator exposes the retrain lifecycle to the API.
type Coordinator interface {
	Trigger(kind artifact.Kind) (string, error)
	State() lifecycle.State
	History() []lifecycle.Job
	Kinds() []artifact.Kind
}

// EventSink accepts behavioral events for ingestion.
type EventSink interface {
	Publish(evs []events.Event) error
}

// ArtifactReader reads published artifacts for status reporting.
type ArtifactReader interface {
	Get(kind artifact.Kind) (*artifact.Artifact, bool)
}

// Handler implements the HTTP API.
type Handler struct {
	predictor   Predictor
	coordinator Coordinator
	sink        EventSink
	artifacts   ArtifactReader
}

// NewHandler wires the API handler to its collaborators.
func NewHandler(predictor Predictor, coordinator Coordinator, sink EventSink, artifacts ArtifactReader) *Handler {
	return &Handler{
		predictor:   predictor,
		coordinator: coordinator,
		sink:        sink,
		artifacts:   artifacts,
	}
}

// PredictEngagement handles POST /api/v1/predict/engagement.
// Returns 503 MODEL_UNAVAILABLE until an engagement artifact has been
// published.
func (h *Handler) PredictEngagement(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req serving.EngagementRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		metrics.ServingRequestsTotal.WithLabelValues("predict_engagement", "error").Inc()
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		metrics.ServingRequestsTotal.WithLabelValues("predict_engagement", "error").Inc()
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	resp, err := h.predictor.PredictEngagement(r.Context(), &req)
	if err != nil {
		metrics.ServingRequestsTotal.WithLabelValues("predict_engagement", "error").Inc()
		if errors.Is(err, serving.ErrModelUnavailable) {
			respondError(w, http.StatusServiceUnavailable, "MODEL_UNAVAILABLE", "no trained engagement model available yet", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "PREDICTION_ERROR", "engagement prediction failed", err)
		return
	}

	metrics.ServingRequestsTotal.WithLabelValues("predict_engagement", "success").Inc()
	metrics.ServingLatency.WithLabelValues("predict_engagement").Observe(time.Since(started).Seconds())
	respondSuccess(w, http.StatusOK, resp, started)
}

// Recommend handles POST /api/v1/recommend.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req serving.RecommendRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		metrics.ServingRequestsTotal.WithLabelValues("recommend", "error").Inc()
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		metrics.ServingRequestsTotal.WithLabelValues("recommend", "error").Inc()
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	resp, err := h.predictor.Recommend(r.Context(), &req)
	if err != nil {
		metrics.ServingRequestsTotal.WithLabelValues("recommend", "error").Inc()
		if errors.Is(err, serving.ErrModelUnavailable) {
			respondError(w, http.StatusServiceUnavailable, "MODEL_UNAVAILABLE", "no trained recommender model available yet", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "PREDICTION_ERROR", "recommendation failed", err)
		return
	}

	metrics.ServingRequestsTotal.WithLabelValues("recommend", "success").Inc()
	metrics.ServingLatency.WithLabelValues("recommend").Observe(time.Since(started).Seconds())
	respondSuccess(w, http.StatusOK, resp, started)
}

// IngestEvents handles POST /api/v1/events. The body is one event
// object or an array of them; accepted events are published to the
// ingest pipeline and written to storage asynchronously.
func (h *Handler) IngestEvents(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 4<<20))
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "unreadable request body", err)
		return
	}

	batch, err := decodeEvents(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid event payload", err)
		return
	}
	if len(batch) == 0 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "empty event payload", nil)
		return
	}

	for i := range batch {
		if batch[i].UserID == "" || batch[i].ItemID == "" {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "user_id and item_id are required", nil)
			return
		}
		if batch[i].Timestamp.IsZero() {
			batch[i].Timestamp = time.Now().UTC()
		}
	}

	if err := h.sink.Publish(batch); err != nil {
		respondError(w, http.StatusInternalServerError, "INGEST_ERROR", "failed to enqueue events", err)
		return
	}

	respondSuccess(w, http.StatusAccepted, models.IngestResponse{Accepted: len(batch)}, started)
}

// decodeEvents accepts either a single event object or a JSON array.
func decodeEvents(body []byte) ([]events.Event, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var batch []events.Event
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, err
		}
		return batch, nil
	}
	var ev events.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, err
	}
	return []events.Event{ev}, nil
}

// TriggerTraining handles POST /api/v1/models/{kind}/train. An
// accepted trigger runs in the background and returns 202; a run
// already in flight for the kind returns 409 without queueing.
func (h *Handler) TriggerTraining(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	kind, err := artifact.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "unknown model kind", nil)
		return
	}

	jobID, err := h.coordinator.Trigger(kind)
	if err != nil {
		if errors.Is(err, lifecycle.ErrRunInProgress) {
			respondError(w, http.StatusConflict, "TRAINING_IN_PROGRESS", "a training run for this kind is already in progress", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "TRAINING_ERROR", "failed to trigger training", err)
		return
	}

	respondSuccess(w, http.StatusAccepted, models.TrainingTriggerResponse{
		Kind:  kind.String(),
		JobID: jobID,
	}, started)
}

// GetModels handles GET /api/v1/models: per-kind serving status plus
// coordinator readiness and recent job history.
func (h *Handler) GetModels(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	statuses := make([]models.ModelStatus, 0, len(h.coordinator.Kinds()))
	for _, kind := range h.coordinator.Kinds() {
		status := models.ModelStatus{Kind: kind.String()}
		if art, ok := h.artifacts.Get(kind); ok {
			trainedAt := art.TrainedAt
			status.Available = true
			status.Generation = art.Generation
			status.TrainedAt = &trainedAt
			status.Quality = art.Quality
			status.Features = len(art.FeatureSchema)
		}
		statuses = append(statuses, status)
	}

	respondSuccess(w, http.StatusOK, models.ModelsResponse{
		Readiness: h.coordinator.State().String(),
		Models:    statuses,
		History:   h.coordinator.History(),
	}, started)
}

// Health handles GET /health. Liveness only.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{"status": "ok"}, time.Now())
}

// Ready handles GET /ready. Returns 503 until the startup training
// pass has completed for every model kind.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	state := h.coordinator.State()
	if state != lifecycle.StateReady {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "startup training pass has not completed: "+state.String(), nil)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"status": "ready"}, time.Now())
}
