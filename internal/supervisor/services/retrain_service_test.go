// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/stellara/mlpipeline/internal/artifact"
)

type fakeRunner struct {
	mu     sync.Mutex
	runs   []artifact.Kind
	warmed []artifact.Kind
	runErr error
}

func (f *fakeRunner) RunOnce(_ context.Context, kind artifact.Kind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, kind)
	return f.runErr
}

func (f *fakeRunner) MarkWarm(kind artifact.Kind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warmed = append(f.warmed, kind)
}

func (f *fakeRunner) snapshot() (runs, warmed []artifact.Kind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]artifact.Kind(nil), f.runs...), append([]artifact.Kind(nil), f.warmed...)
}

func TestRetrainServiceStartupRunAndTicks(t *testing.T) {
	runner := &fakeRunner{}
	svc := NewRetrainService(runner, artifact.KindEngagement, RetrainConfig{
		Interval:  20 * time.Millisecond,
		OnStartup: true,
	}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Serve returned %v, want deadline exceeded", err)
	}

	runs, warmed := runner.snapshot()
	if len(runs) < 2 {
		t.Errorf("runs = %d, want startup run plus at least one tick", len(runs))
	}
	if len(warmed) != 1 || warmed[0] != artifact.KindEngagement {
		t.Errorf("warmed = %v, want [engagement]", warmed)
	}
}

func TestRetrainServiceWarmsWithoutStartupRun(t *testing.T) {
	runner := &fakeRunner{}
	svc := NewRetrainService(runner, artifact.KindRecommender, RetrainConfig{
		Interval:  time.Hour,
		OnStartup: false,
	}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_ = svc.Serve(ctx)

	runs, warmed := runner.snapshot()
	if len(runs) != 0 {
		t.Errorf("runs = %d, want 0 without startup pass", len(runs))
	}
	if len(warmed) != 1 {
		t.Errorf("warmed = %v, want the kind marked warm immediately", warmed)
	}
}

func TestRetrainServiceSurvivesRunFailures(t *testing.T) {
	runner := &fakeRunner{runErr: errors.New("trainer exploded")}
	svc := NewRetrainService(runner, artifact.KindEngagement, RetrainConfig{
		Interval:  15 * time.Millisecond,
		OnStartup: true,
	}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Serve returned %v, failures must not stop the scheduler", err)
	}

	runs, _ := runner.snapshot()
	if len(runs) < 2 {
		t.Errorf("runs = %d, scheduler should keep ticking past failures", len(runs))
	}
}
