// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/metrics"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/models"
)

// InsertRunSummary persists one run's summary. Every pipeline invocation,
// including a total failure, produces exactly one row here; a failed run
// must never silently disappear.
func (s *Store) InsertRunSummary(ctx context.Context, summary models.RunSummary) error {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	counts, err := json.Marshal(summary.RecordCounts)
	if err != nil {
		return fmt.Errorf("failed to marshal record counts: %w", err)
	}
	errs := summary.Errors
	if errs == nil {
		errs = []models.RunError{}
	}
	errList, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("failed to marshal errors: %w", err)
	}

	query := `INSERT INTO sync_runs (
		run_id, source, scope_key, range_start, range_end,
		started_at, finished_at, fetch_complete, record_counts, error_count, errors
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryStart := time.Now()
	_, err = s.conn.ExecContext(ctx, query,
		summary.SyncRunID, string(summary.Source), summary.ScopeKey,
		summary.RangeStart, summary.RangeEnd,
		summary.SyncRunAt, summary.FinishedAt, summary.FetchComplete,
		string(counts), summary.ErrorCount, string(errList),
	)
	metrics.ObserveStoreQuery("insert", "sync_runs", queryStart)
	if err != nil {
		return fmt.Errorf("failed to insert run summary: %w", err)
	}
	return nil
}

// ListRunSummaries returns the most recent run summaries, newest first,
// optionally filtered by source. limit <= 0 defaults to 50.
func (s *Store) ListRunSummaries(ctx context.Context, source string, limit int) ([]models.RunSummary, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	query := `SELECT run_id, source, scope_key, range_start, range_end,
		started_at, finished_at, fetch_complete, record_counts, error_count, errors
	FROM sync_runs`
	var args []any
	if source != "" {
		query += " WHERE source = ?"
		args = append(args, source)
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, limit)

	queryStart := time.Now()
	rows, err := s.conn.QueryContext(ctx, query, args...)
	metrics.ObserveStoreQuery("select", "sync_runs", queryStart)
	if err != nil {
		return nil, fmt.Errorf("failed to list run summaries: %w", err)
	}
	defer rows.Close()

	var summaries []models.RunSummary
	for rows.Next() {
		var (
			summary   models.RunSummary
			src       string
			countsRaw string
			errorsRaw string
		)
		if err := rows.Scan(
			&summary.SyncRunID, &src, &summary.ScopeKey,
			&summary.RangeStart, &summary.RangeEnd,
			&summary.SyncRunAt, &summary.FinishedAt, &summary.FetchComplete,
			&countsRaw, &summary.ErrorCount, &errorsRaw,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		summary.Source = models.Source(src)
		if err := json.Unmarshal([]byte(countsRaw), &summary.RecordCounts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record counts for run %s: %w", summary.SyncRunID, err)
		}
		if err := json.Unmarshal([]byte(errorsRaw), &summary.Errors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal errors for run %s: %w", summary.SyncRunID, err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run summary iteration failed: %w", err)
	}
	return summaries, nil
}
