// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

// Package config defines the service configuration and its layered loading.
//
// Configuration is loaded via Koanf v2 with the following precedence
// (highest wins):
//
//  1. Environment variables (TRACKER_API_TOKEN, SYNC_INTERVAL, ...)
//  2. Config file (config.yaml, or CONFIG_PATH)
//  3. Built-in defaults
package config

import "time"

// Config is the root configuration for the sync service.
type Config struct {
	Tracker      TrackerConfig      `koanf:"tracker"`
	TimeTracking TimeTrackingConfig `koanf:"timetracking"`
	HR           HRConfig           `koanf:"hr"`
	Sync         SyncConfig         `koanf:"sync"`
	Database     DatabaseConfig     `koanf:"database"`
	Server       ServerConfig       `koanf:"server"`
	Logging      LoggingConfig      `koanf:"logging"`
}

// TrackerConfig configures the project/task tracker source.
type TrackerConfig struct {
	Enabled     bool   `koanf:"enabled"`
	BaseURL     string `koanf:"base_url" validate:"omitempty,url"`
	APIToken    string `koanf:"api_token"`
	WorkspaceID string `koanf:"workspace_id"`
}

// TimeTrackingConfig configures the time-tracking report source.
type TimeTrackingConfig struct {
	Enabled     bool   `koanf:"enabled"`
	BaseURL     string `koanf:"base_url" validate:"omitempty,url"`
	APIKey      string `koanf:"api_key"`
	WorkspaceID string `koanf:"workspace_id"`

	// PageSize is the fixed report page size requested per call.
	PageSize int `koanf:"page_size" validate:"gt=0"`

	// MaxPages is the hard pagination ceiling. Reaching it without a short
	// page is recorded as a safety_limit error and forces an incomplete run.
	MaxPages int `koanf:"max_pages" validate:"gt=0"`
}

// HRConfig configures the HR system source (employee directory and
// time-off requests).
type HRConfig struct {
	Enabled   bool   `koanf:"enabled"`
	BaseURL   string `koanf:"base_url" validate:"omitempty,url"`
	APIKey    string `koanf:"api_key"`
	CompanyID string `koanf:"company_id"`
}

// SyncConfig controls pipeline scheduling and resilience behavior shared by
// all sources.
type SyncConfig struct {
	// Interval between scheduled pipeline runs per source.
	Interval time.Duration `koanf:"interval"`

	// InitialSync runs each enabled pipeline once on startup.
	InitialSync bool `koanf:"initial_sync"`

	// RetryAttempts and RetryDelay bound the exponential-backoff retry cycle
	// applied to each transient upstream call before its failure is counted.
	RetryAttempts int           `koanf:"retry_attempts" validate:"gt=0"`
	RetryDelay    time.Duration `koanf:"retry_delay"`

	// MaxConcurrentFetches bounds concurrent per-member sub-fetches.
	MaxConcurrentFetches int `koanf:"max_concurrent_fetches" validate:"gt=0"`

	// UpsertBatchSize bounds rows per store write.
	UpsertBatchSize int `koanf:"upsert_batch_size" validate:"gt=0"`

	// RequestTimeout bounds every upstream HTTP call.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// RequestsPerSecond limits the client-side request rate per source.
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"gt=0"`

	// LeaseTTL is the run-lease expiry; a crashed run's lease is reclaimable
	// after this duration.
	LeaseTTL time.Duration `koanf:"lease_ttl"`
}

// DatabaseConfig configures the DuckDB store.
type DatabaseConfig struct {
	// Path to the database file. Empty means in-memory (tests).
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// ServerConfig configures the operational HTTP API.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"gt=0,lte=65535"`
	Timeout time.Duration `koanf:"timeout"`

	// TriggerTimeout bounds the manual sync endpoint, which runs a full
	// pipeline pass before responding and needs far longer than a read.
	TriggerTimeout time.Duration `koanf:"trigger_timeout"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults applied. Defaults are
// loaded first, then overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Tracker: TrackerConfig{
			Enabled: false,
		},
		TimeTracking: TimeTrackingConfig{
			Enabled:  false,
			PageSize: 100,
			MaxPages: 50,
		},
		HR: HRConfig{
			Enabled: false,
		},
		Sync: SyncConfig{
			Interval:             6 * time.Hour,
			InitialSync:          true,
			RetryAttempts:        3,
			RetryDelay:           2 * time.Second,
			MaxConcurrentFetches: 4,
			UpsertBatchSize:      500,
			RequestTimeout:       30 * time.Second,
			RequestsPerSecond:    5,
			LeaseTTL:             30 * time.Minute,
		},
		Database: DatabaseConfig{
			Path:      "/data/timesheet.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8417,
			Timeout:        30 * time.Second,
			TriggerTimeout: 10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
