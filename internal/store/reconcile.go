// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/logging"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/metrics"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/models"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/syncrun"
)

// DeletionResult reports the outcome of one reconciliation.
type DeletionResult struct {
	Deleted int64
	Skipped bool
	Reason  string
}

// reconcileTarget describes one table's stale-row predicate. Tables whose
// upstream fetch is window-scoped filter on their anchor-date column; the
// HR employee directory is fetched whole, so its predicate is scope-only.
type reconcileTarget struct {
	table      string
	dateColumn string // empty = scope-only predicate
}

var reconcileTargets = map[models.Source][]reconcileTarget{
	models.SourceTracker:      {{table: "tracker_entries", dateColumn: "work_date"}},
	models.SourceTimeTracking: {{table: "time_tracking_entries", dateColumn: "work_date"}},
	models.SourceHR: {
		{table: "hr_employees"},
		{table: "hr_time_off", dateColumn: "start_date"},
	},
}

// Reconcile deletes previously-synced rows in the run's (scope, window) that
// the run did not re-observe, reflecting upstream deletions without an
// explicit delete event from the source.
//
// Hard gate: if the run's fetch was incomplete the reconciliation is skipped
// entirely and logged, never partially applied. An incomplete fetch cannot
// distinguish "deleted upstream" from "we failed to refetch it". Rows
// outside the window are never considered stale.
func (s *Store) Reconcile(ctx context.Context, run syncrun.Sealed) (DeletionResult, error) {
	source := run.Source()

	if !run.FetchComplete() {
		metrics.ReconcileSkipped.WithLabelValues(string(source)).Inc()
		logging.Warn().
			Str("source", string(source)).
			Str("run_id", run.ID()).
			Msg("Reconciliation skipped: fetch incomplete")
		return DeletionResult{Skipped: true, Reason: "fetch incomplete"}, nil
	}

	targets, ok := reconcileTargets[source]
	if !ok {
		return DeletionResult{}, fmt.Errorf("no reconcile targets for source %q", source)
	}

	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	var result DeletionResult
	window := run.Window()

	for _, target := range targets {
		var (
			query string
			args  []any
		)
		if target.dateColumn == "" {
			query = fmt.Sprintf(
				"DELETE FROM %s WHERE scope_key = ? AND sync_run_id <> ?",
				target.table,
			)
			args = []any{run.ScopeKey(), run.ID()}
		} else {
			query = fmt.Sprintf(
				"DELETE FROM %s WHERE scope_key = ? AND %s >= ? AND %s <= ? AND sync_run_id <> ?",
				target.table, target.dateColumn, target.dateColumn,
			)
			args = []any{run.ScopeKey(), window.Start, window.End, run.ID()}
		}

		queryStart := time.Now()
		res, err := s.conn.ExecContext(ctx, query, args...)
		metrics.ObserveStoreQuery("reconcile", target.table, queryStart)
		if err != nil {
			return result, fmt.Errorf("reconcile delete on %s failed: %w", target.table, err)
		}

		deleted, err := res.RowsAffected()
		if err != nil {
			return result, fmt.Errorf("reconcile rows-affected on %s failed: %w", target.table, err)
		}
		result.Deleted += deleted

		if deleted > 0 {
			logging.Info().
				Str("source", string(source)).
				Str("table", target.table).
				Int64("deleted", deleted).
				Str("run_id", run.ID()).
				Msg("Reconciled stale rows")
		}
	}

	metrics.ReconcileDeletedRows.WithLabelValues(string(source)).Add(float64(result.Deleted))
	return result, nil
}
