// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package lifecycle

import (
	"sync"
	"time"
)

// JobState tracks the lifecycle of one retrain execution.
type JobState int

const (
	// JobPending means the run was accepted but has not started yet.
	JobPending JobState = iota
	// JobRunning means the run is executing.
	JobRunning
	// JobSucceeded means the run published a new artifact.
	JobSucceeded
	// JobFailed means the feature source or trainer failed; the slot
	// was left untouched.
	JobFailed
	// JobSkipped means the trainer declined (insufficient data); no
	// publish, not a failure.
	JobSkipped
)

// String returns a human-readable job state.
func (s JobState) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobRunning:
		return "running"
	case JobSucceeded:
		return "succeeded"
	case JobFailed:
		return "failed"
	case JobSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Job records one scheduled or manually triggered retrain execution.
type Job struct {
	ID        string        `json:"id"`
	Kind      string        `json:"kind"`
	State     string        `json:"state"`
	StartedAt time.Time     `json:"started_at"`
	DurationMS int64 `json:"duration_ms"`
	Error     string        `json:"error,omitempty"`
}

// jobHistory is a bounded ring of completed and running jobs, newest
// first in History().
type jobHistory struct {
	mu   sync.Mutex
	ring []Job
	max  int
}

func newJobHistory(max int) *jobHistory {
	if max <= 0 {
		max = 32
	}
	return &jobHistory{max: max}
}

// record appends or updates a job by ID.
func (h *jobHistory) record(job Job) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.ring {
		if h.ring[i].ID == job.ID {
			h.ring[i] = job
			return
		}
	}

	h.ring = append(h.ring, job)
	if len(h.ring) > h.max {
		h.ring = h.ring[len(h.ring)-h.max:]
	}
}

// History returns jobs newest first.
func (h *jobHistory) History() []Job {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Job, len(h.ring))
	for i, j := range h.ring {
		out[len(h.ring)-1-i] = j
	}
	return out
}
