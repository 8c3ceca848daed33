// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

// Package store owns the relational tables the pipeline writes: one
// normalized table per source, the per-run summary table, and the run-lease
// table. The pipeline is the only writer; the presentation layer reads.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/config"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/logging"
)

// defaultQueryTimeout bounds store operations that arrive without a deadline.
const defaultQueryTimeout = 30 * time.Second

// Store wraps the DuckDB connection and provides the pipeline's data access
// methods. Safe for concurrent use; the natural-key uniqueness constraints
// declared in the schema are the row-level concurrency guard.
type Store struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// Open creates the database connection and initializes the schema.
func Open(cfg *config.DatabaseConfig) (*Store, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	if cfg.Path != "" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	connStr := cfg.Path
	var opts []string
	if cfg.MaxMemory != "" {
		opts = append(opts, "max_memory="+cfg.MaxMemory)
	}
	opts = append(opts, fmt.Sprintf("threads=%d", numThreads))
	if len(opts) > 0 {
		connStr += "?" + strings.Join(opts, "&")
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{conn: conn, cfg: cfg}
	if err := s.initSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Int("threads", numThreads).Msg("Store opened")
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// ensureContext attaches the default timeout when ctx has no deadline.
func (s *Store) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// schemaStatements declares the pipeline-owned tables. Every normalized
// table carries a natural-key primary key (the merge target for upserts)
// and the sync run stamp the reconciler keys on.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS tracker_entries (
		natural_key    VARCHAR PRIMARY KEY,
		scope_key      VARCHAR NOT NULL,
		work_date      TIMESTAMP NOT NULL,
		subject_id     VARCHAR NOT NULL,
		subject_name   VARCHAR NOT NULL,
		container_id   VARCHAR,
		container_name VARCHAR NOT NULL,
		task_id        VARCHAR,
		task_name      VARCHAR,
		description    VARCHAR,
		minutes        INTEGER NOT NULL,
		billable       BOOLEAN NOT NULL DEFAULT false,
		sync_run_id    VARCHAR NOT NULL,
		synced_at      TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS time_tracking_entries (
		natural_key    VARCHAR PRIMARY KEY,
		scope_key      VARCHAR NOT NULL,
		work_date      TIMESTAMP NOT NULL,
		subject_id     VARCHAR NOT NULL,
		subject_name   VARCHAR NOT NULL,
		container_id   VARCHAR,
		container_name VARCHAR NOT NULL,
		description    VARCHAR,
		minutes        INTEGER NOT NULL,
		billable       BOOLEAN NOT NULL DEFAULT false,
		sync_run_id    VARCHAR NOT NULL,
		synced_at      TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS hr_employees (
		natural_key  VARCHAR PRIMARY KEY,
		scope_key    VARCHAR NOT NULL,
		display_name VARCHAR NOT NULL,
		department   VARCHAR,
		job_title    VARCHAR,
		email        VARCHAR,
		hire_date    TIMESTAMP,
		sync_run_id  VARCHAR NOT NULL,
		synced_at    TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS hr_time_off (
		natural_key  VARCHAR PRIMARY KEY,
		scope_key    VARCHAR NOT NULL,
		subject_id   VARCHAR NOT NULL,
		subject_name VARCHAR NOT NULL,
		leave_type   VARCHAR,
		status       VARCHAR,
		start_date   TIMESTAMP NOT NULL,
		end_date     TIMESTAMP NOT NULL,
		days         DOUBLE NOT NULL,
		sync_run_id  VARCHAR NOT NULL,
		synced_at    TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sync_runs (
		run_id         VARCHAR PRIMARY KEY,
		source         VARCHAR NOT NULL,
		scope_key      VARCHAR NOT NULL,
		range_start    TIMESTAMP NOT NULL,
		range_end      TIMESTAMP NOT NULL,
		started_at     TIMESTAMP NOT NULL,
		finished_at    TIMESTAMP NOT NULL,
		fetch_complete BOOLEAN NOT NULL,
		record_counts  VARCHAR NOT NULL,
		error_count    INTEGER NOT NULL,
		errors         VARCHAR NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sync_leases (
		lease_key     VARCHAR PRIMARY KEY,
		holder_run_id VARCHAR NOT NULL,
		acquired_at   TIMESTAMP NOT NULL,
		expires_at    TIMESTAMP NOT NULL
	)`,
}

func (s *Store) initSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := s.conn.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
