// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package models

import (
	"time"

	"github.com/stellara/mlpipeline/internal/lifecycle"
)

// APIResponse represents a standardized API response wrapper used by all HTTP endpoints.
// It provides consistent structure for both successful and error responses, with metadata
// for observability.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"engagement_probability": 0.73, "generation": 4},
//	  "metadata": {
//	    "timestamp": "2026-08-28T12:00:00Z",
//	    "query_time_ms": 2
//	  }
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "MODEL_UNAVAILABLE",
//	    "message": "No trained model for kind engagement"
//	  },
//	  "metadata": {"timestamp": "2026-08-28T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability and performance tracking.
//
// Fields:
//   - Timestamp: Server time when response was generated (RFC3339 format)
//   - QueryTimeMS: Handler execution time in milliseconds (omitted if zero)
//   - Cached: Whether response was served from cache (omitted if false)
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError represents an error response with structured error details.
//
// Common error codes:
//   - VALIDATION_ERROR: Invalid input parameters
//   - MODEL_UNAVAILABLE: No trained artifact for the requested model kind
//   - TRAINING_IN_PROGRESS: A training run for the kind is already active
//   - DATABASE_ERROR: Event store query or write failure
//   - NOT_FOUND: Resource doesn't exist
//   - RATE_LIMIT_EXCEEDED: Too many requests
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ModelStatus describes the currently served artifact for one model kind.
// Generation is zero and TrainedAt null when no artifact has been published yet.
type ModelStatus struct {
	Kind       string     `json:"kind"`
	Available  bool       `json:"available"`
	Generation uint64     `json:"generation"`
	TrainedAt  *time.Time `json:"trained_at,omitempty"`
	Quality    float64    `json:"quality,omitempty"`
	Features   int        `json:"features,omitempty"`
}

// ModelsResponse is the payload of GET /api/v1/models: per-kind serving
// status, coordinator readiness, and recent training job history.
type ModelsResponse struct {
	Readiness string          `json:"readiness"`
	Models    []ModelStatus   `json:"models"`
	History   []lifecycle.Job `json:"history"`
}

// TrainingTriggerResponse acknowledges an accepted background training run.
type TrainingTriggerResponse struct {
	Kind  string `json:"kind"`
	JobID string `json:"job_id"`
}

// IngestResponse acknowledges accepted behavioral events.
type IngestResponse struct {
	Accepted int `json:"accepted"`
}
