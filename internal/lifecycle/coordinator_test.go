// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/stellara/mlpipeline/internal/artifact"
	"github.com/stellara/mlpipeline/internal/training"
)

type stubSource struct {
	ds  *training.Dataset
	err error
}

func (s *stubSource) Dataset(context.Context) (*training.Dataset, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.ds != nil {
		return s.ds, nil
	}
	return &training.Dataset{
		Schema:  []string{"session_duration"},
		Rows:    [][]float64{{100}, {400}},
		Engaged: []bool{false, true},
		ItemIDs: []string{"a", "b"},
		UserIDs: []string{"u", "u"},
	}, nil
}

type stubTrainer struct {
	kind    artifact.Kind
	err     error
	block   chan struct{}
	mu      sync.Mutex
	trained int
}

func (t *stubTrainer) Kind() artifact.Kind { return t.kind }

func (t *stubTrainer) Train(ctx context.Context, _ *training.Dataset) (*artifact.Artifact, error) {
	t.mu.Lock()
	t.trained++
	t.mu.Unlock()

	if t.block != nil {
		select {
		case <-t.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if t.err != nil {
		return nil, t.err
	}
	return &artifact.Artifact{Kind: t.kind, Quality: 0.8}, nil
}

func (t *stubTrainer) runs() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.trained
}

func newTestCoordinator(trainers ...training.Trainer) (*Coordinator, *artifact.Store) {
	store := artifact.NewStore(zerolog.Nop())
	coord := NewCoordinator(store, &stubSource{}, trainers, DefaultConfig(), zerolog.Nop())
	return coord, store
}

func TestRunOncePublishesArtifact(t *testing.T) {
	trainer := &stubTrainer{kind: artifact.KindEngagement}
	coord, store := newTestCoordinator(trainer)

	if err := coord.RunOnce(context.Background(), artifact.KindEngagement); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	art, ok := store.Get(artifact.KindEngagement)
	if !ok || art.Generation != 1 {
		t.Fatalf("artifact = %+v, %v; want generation 1", art, ok)
	}

	history := coord.History()
	if len(history) != 1 || history[0].State != JobSucceeded.String() {
		t.Errorf("history = %+v, want one succeeded job", history)
	}
}

func TestRunOnceServesStaleOnFailure(t *testing.T) {
	trainer := &stubTrainer{kind: artifact.KindEngagement}
	coord, store := newTestCoordinator(trainer)

	if err := coord.RunOnce(context.Background(), artifact.KindEngagement); err != nil {
		t.Fatal(err)
	}
	stale, _ := store.Get(artifact.KindEngagement)

	trainer.err = errors.New("numerical instability")
	err := coord.RunOnce(context.Background(), artifact.KindEngagement)
	if err == nil {
		t.Fatal("expected training error")
	}

	// Previous generation keeps serving.
	current, ok := store.Get(artifact.KindEngagement)
	if !ok || current.Generation != stale.Generation {
		t.Errorf("current = %+v, want stale generation %d preserved", current, stale.Generation)
	}

	history := coord.History()
	if history[0].State != JobFailed.String() || history[0].Error == "" {
		t.Errorf("newest job = %+v, want failed with error message", history[0])
	}
}

func TestRunOnceSkippedIsNotAnError(t *testing.T) {
	trainer := &stubTrainer{kind: artifact.KindRecommender, err: training.ErrSkipped}
	coord, store := newTestCoordinator(trainer)

	if err := coord.RunOnce(context.Background(), artifact.KindRecommender); err != nil {
		t.Fatalf("skip surfaced as error: %v", err)
	}
	if _, ok := store.Get(artifact.KindRecommender); ok {
		t.Error("skipped run must not publish an artifact")
	}
	if history := coord.History(); history[0].State != JobSkipped.String() {
		t.Errorf("job state = %s, want skipped", history[0].State)
	}
}

func TestOverlapSkip(t *testing.T) {
	block := make(chan struct{})
	trainer := &stubTrainer{kind: artifact.KindEngagement, block: block}
	coord, _ := newTestCoordinator(trainer)

	done := make(chan error, 1)
	go func() {
		done <- coord.RunOnce(context.Background(), artifact.KindEngagement)
	}()

	// Wait for the first run to hold the lock.
	for i := 0; i < 100 && trainer.runs() == 0; i++ {
		time.Sleep(time.Millisecond)
	}
	if trainer.runs() == 0 {
		t.Fatal("first run never started")
	}

	if err := coord.RunOnce(context.Background(), artifact.KindEngagement); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("overlapping run = %v, want ErrRunInProgress", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// The overlapping trigger was discarded, not queued.
	if got := trainer.runs(); got != 1 {
		t.Errorf("trainer ran %d times, want 1", got)
	}
}

func TestTriggerReturnsJobIDAndConflicts(t *testing.T) {
	block := make(chan struct{})
	trainer := &stubTrainer{kind: artifact.KindEngagement, block: block}
	coord, _ := newTestCoordinator(trainer)

	jobID, err := coord.Trigger(artifact.KindEngagement)
	if err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}
	if jobID == "" {
		t.Error("accepted trigger must return a job ID")
	}

	for i := 0; i < 100 && trainer.runs() == 0; i++ {
		time.Sleep(time.Millisecond)
	}

	if _, err := coord.Trigger(artifact.KindEngagement); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("second trigger = %v, want ErrRunInProgress", err)
	}
	close(block)

	// The accepted job eventually lands in history under its ID.
	deadline := time.After(time.Second)
	for {
		history := coord.History()
		if len(history) > 0 && history[0].ID == jobID &&
			history[0].State != JobPending.String() && history[0].State != JobRunning.String() {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("job %s never completed: %+v", jobID, history)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestUnknownKindRejected(t *testing.T) {
	coord, _ := newTestCoordinator(&stubTrainer{kind: artifact.KindEngagement})

	if err := coord.RunOnce(context.Background(), artifact.KindRecommender); err == nil {
		t.Error("expected error for unregistered kind")
	}
	if _, err := coord.Trigger(artifact.KindRecommender); err == nil {
		t.Error("expected error for unregistered kind")
	}
}

func TestWarmupStateMachine(t *testing.T) {
	coord, _ := newTestCoordinator(
		&stubTrainer{kind: artifact.KindEngagement},
		&stubTrainer{kind: artifact.KindRecommender},
	)

	if coord.State() != StateUninitialized {
		t.Fatalf("initial state = %v, want uninitialized", coord.State())
	}

	coord.BeginWarmup()
	if coord.State() != StateWarmingUp {
		t.Fatalf("state = %v, want warming_up", coord.State())
	}

	coord.MarkWarm(artifact.KindEngagement)
	if coord.State() != StateWarmingUp {
		t.Error("one warm kind must not flip readiness")
	}

	coord.MarkWarm(artifact.KindRecommender)
	if coord.State() != StateReady {
		t.Errorf("state = %v, want ready once every kind is warm", coord.State())
	}
}

func TestHistoryBounded(t *testing.T) {
	trainer := &stubTrainer{kind: artifact.KindEngagement}
	store := artifact.NewStore(zerolog.Nop())
	coord := NewCoordinator(store, &stubSource{}, []training.Trainer{trainer}, Config{
		RunTimeout:  time.Minute,
		HistorySize: 3,
	}, zerolog.Nop())

	for i := 0; i < 10; i++ {
		if err := coord.RunOnce(context.Background(), artifact.KindEngagement); err != nil {
			t.Fatal(err)
		}
	}

	history := coord.History()
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	// Newest first.
	if history[0].StartedAt.Before(history[2].StartedAt) {
		t.Error("history must be ordered newest first")
	}
}

func TestDatasetFailureRecordsFailedJob(t *testing.T) {
	trainer := &stubTrainer{kind: artifact.KindEngagement}
	store := artifact.NewStore(zerolog.Nop())
	source := &stubSource{err: errors.New("store offline")}
	coord := NewCoordinator(store, source, []training.Trainer{trainer}, DefaultConfig(), zerolog.Nop())

	if err := coord.RunOnce(context.Background(), artifact.KindEngagement); err == nil {
		t.Fatal("expected dataset error")
	}
	if trainer.runs() != 0 {
		t.Error("trainer must not run when the dataset build fails")
	}
	if history := coord.History(); history[0].State != JobFailed.String() {
		t.Errorf("job state = %s, want failed", history[0].State)
	}
}
