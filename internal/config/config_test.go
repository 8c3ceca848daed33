// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// enableTracker sets the minimum environment for a valid config.
func enableTracker(t *testing.T) {
	t.Helper()
	t.Setenv("TRACKER_ENABLED", "true")
	t.Setenv("TRACKER_BASE_URL", "https://tracker.example.com")
	t.Setenv("TRACKER_API_TOKEN", "token-1")
	t.Setenv("TRACKER_WORKSPACE_ID", "ws-1")
	// Keep the loader away from any config.yaml in the working directory.
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
}

func TestLoadDefaults(t *testing.T) {
	enableTracker(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Sync.Interval != 6*time.Hour {
		t.Errorf("expected default interval 6h, got %v", cfg.Sync.Interval)
	}
	if cfg.Sync.RetryAttempts != 3 {
		t.Errorf("expected default retry attempts 3, got %d", cfg.Sync.RetryAttempts)
	}
	if cfg.Sync.UpsertBatchSize != 500 {
		t.Errorf("expected default batch size 500, got %d", cfg.Sync.UpsertBatchSize)
	}
	if cfg.TimeTracking.PageSize != 100 || cfg.TimeTracking.MaxPages != 50 {
		t.Errorf("unexpected pagination defaults: %d/%d", cfg.TimeTracking.PageSize, cfg.TimeTracking.MaxPages)
	}
	if cfg.Server.Port != 8417 {
		t.Errorf("expected default port 8417, got %d", cfg.Server.Port)
	}
	if cfg.Server.TriggerTimeout != 10*time.Minute {
		t.Errorf("expected default trigger timeout 10m, got %v", cfg.Server.TriggerTimeout)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	enableTracker(t)
	t.Setenv("SYNC_INTERVAL", "30m")
	t.Setenv("SYNC_RETRY_ATTEMPTS", "5")
	t.Setenv("TIMETRACKING_MAX_PAGES", "10")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("LOGGING_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Sync.Interval != 30*time.Minute {
		t.Errorf("expected interval 30m, got %v", cfg.Sync.Interval)
	}
	if cfg.Sync.RetryAttempts != 5 {
		t.Errorf("expected 5 retry attempts, got %d", cfg.Sync.RetryAttempts)
	}
	if cfg.TimeTracking.MaxPages != 10 {
		t.Errorf("expected max pages 10, got %d", cfg.TimeTracking.MaxPages)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
hr:
  enabled: true
  base_url: https://hr.example.com
  api_key: key-1
  company_id: co-1
sync:
  interval: 2h
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.HR.Enabled || cfg.HR.CompanyID != "co-1" {
		t.Errorf("config file values not applied: %+v", cfg.HR)
	}
	if cfg.Sync.Interval != 2*time.Hour {
		t.Errorf("expected interval 2h from file, got %v", cfg.Sync.Interval)
	}
	// Untouched defaults survive the file layer.
	if cfg.Sync.UpsertBatchSize != 500 {
		t.Errorf("expected default batch size, got %d", cfg.Sync.UpsertBatchSize)
	}
}

func TestLoadEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
tracker:
  enabled: true
  base_url: https://tracker.example.com
  api_token: from-file
  workspace_id: ws-1
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("TRACKER_API_TOKEN", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Tracker.APIToken != "from-env" {
		t.Errorf("environment must beat the config file, got %q", cfg.Tracker.APIToken)
	}
}

func TestValidateRejectsNoSources(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when no source is enabled")
	}
}

func TestValidateRejectsEnabledSourceWithoutSettings(t *testing.T) {
	cfg := defaultConfig()
	cfg.Tracker.Enabled = true

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for enabled source without settings")
	}
}

func TestValidateAcceptsCompleteSource(t *testing.T) {
	cfg := defaultConfig()
	cfg.HR = HRConfig{
		Enabled:   true,
		BaseURL:   "https://hr.example.com",
		APIKey:    "key-1",
		CompanyID: "co-1",
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TRACKER_API_TOKEN", "tracker.api_token"},
		{"SYNC_RETRY_ATTEMPTS", "sync.retry_attempts"},
		{"TIMETRACKING_MAX_PAGES", "timetracking.max_pages"},
		{"HR_COMPANY_ID", "hr.company_id"},
		{"PATH", ""},
		{"UNRELATED_VAR", ""},
	}
	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
