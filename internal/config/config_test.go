// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent-but-unused"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load with defaults failed: %v", err)
	}
	if cfg.Server.Port != 8090 {
		t.Errorf("default port = %d, want 8090", cfg.Server.Port)
	}
	if cfg.Features.EngagementThreshold != 300 {
		t.Errorf("default engagement threshold = %v, want 300", cfg.Features.EngagementThreshold)
	}
	if cfg.Training.Interval() != 24*time.Hour {
		t.Errorf("default training interval = %v, want 24h", cfg.Training.Interval())
	}
	if !cfg.Training.OnStartup {
		t.Error("training on_startup should default to true")
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9999
training:
  interval_hours: 0.5
features:
  engagement_threshold: 120
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Training.Interval() != 30*time.Minute {
		t.Errorf("interval = %v, want 30m", cfg.Training.Interval())
	}
	if cfg.Features.EngagementThreshold != 120 {
		t.Errorf("threshold = %v, want 120", cfg.Features.EngagementThreshold)
	}
	// Untouched sections keep defaults.
	if cfg.Models.DefaultK != 5 {
		t.Errorf("default_k = %d, want 5", cfg.Models.DefaultK)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STELLARA_SERVER_PORT", "7070")
	t.Setenv("STELLARA_TRAINING_INTERVAL_HOURS", "12")
	t.Setenv("STELLARA_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Training.IntervalHours != 12 {
		t.Errorf("interval_hours = %v, want 12", cfg.Training.IntervalHours)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logging.Level)
	}
}

func TestEnvCORSOriginsSlice(t *testing.T) {
	t.Setenv("STELLARA_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.Server.CORSOrigins) != len(want) {
		t.Fatalf("cors_origins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
	for i := range want {
		if cfg.Server.CORSOrigins[i] != want[i] {
			t.Errorf("cors_origins[%d] = %q, want %q", i, cfg.Server.CORSOrigins[i], want[i])
		}
	}
}

func TestValidationRejectsBadValues(t *testing.T) {
	t.Setenv("STELLARA_SERVER_PORT", "99999")
	if _, err := Load(""); err == nil {
		t.Error("expected validation error for out-of-range port")
	}
}

func TestValidationRejectsDefaultKAboveMaxK(t *testing.T) {
	t.Setenv("STELLARA_MODELS_DEFAULT_K", "500")
	t.Setenv("STELLARA_MODELS_MAX_K", "100")
	if _, err := Load(""); err == nil {
		t.Error("expected validation error when default_k exceeds max_k")
	}
}
