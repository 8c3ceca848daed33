// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/logging"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/metrics"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/models"
)

// DefaultBatchSize is the upsert batch bound when the caller passes 0.
const DefaultBatchSize = 500

// BatchFailure records one upsert batch that failed to apply. Its rows are
// counted as not-written; sibling batches still attempt.
type BatchFailure struct {
	Index int    `json:"index"` // zero-based batch index
	Rows  int    `json:"rows"`  // rows in the failed batch
	Error string `json:"error"`
}

// UpsertResult reports the outcome of one table's upsert.
type UpsertResult struct {
	Written       int
	Failed        int
	FailedBatches []BatchFailure
}

// UpsertTrackerEntries writes tracker rows using merge-on-conflict
// semantics keyed on the tracker's natural time-entry ID. Every written row
// is stamped with the current run's ID and timestamp.
func (s *Store) UpsertTrackerEntries(ctx context.Context, rows []models.TrackerEntry, runID string, syncedAt time.Time, batchSize int) UpsertResult {
	columns := []string{
		"natural_key", "scope_key", "work_date", "subject_id", "subject_name",
		"container_id", "container_name", "task_id", "task_name", "description",
		"minutes", "billable", "sync_run_id", "synced_at",
	}
	values := make([][]any, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		values = append(values, []any{
			r.NaturalKey, r.ScopeKey, r.WorkDate, r.SubjectID, r.SubjectName,
			r.ContainerID, r.ContainerName, r.TaskID, r.TaskName, r.Description,
			r.Minutes, r.Billable, runID, syncedAt,
		})
	}
	return s.upsertBatched(ctx, "tracker_entries", columns, values, batchSize)
}

// UpsertTimeTrackingEntries writes time-tracking report rows keyed on the
// report entry ID.
func (s *Store) UpsertTimeTrackingEntries(ctx context.Context, rows []models.TimeTrackingEntry, runID string, syncedAt time.Time, batchSize int) UpsertResult {
	columns := []string{
		"natural_key", "scope_key", "work_date", "subject_id", "subject_name",
		"container_id", "container_name", "description", "minutes", "billable",
		"sync_run_id", "synced_at",
	}
	values := make([][]any, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		values = append(values, []any{
			r.NaturalKey, r.ScopeKey, r.WorkDate, r.SubjectID, r.SubjectName,
			r.ContainerID, r.ContainerName, r.Description, r.Minutes, r.Billable,
			runID, syncedAt,
		})
	}
	return s.upsertBatched(ctx, "time_tracking_entries", columns, values, batchSize)
}

// UpsertEmployees writes HR directory rows keyed on the employee ID.
func (s *Store) UpsertEmployees(ctx context.Context, rows []models.Employee, runID string, syncedAt time.Time, batchSize int) UpsertResult {
	columns := []string{
		"natural_key", "scope_key", "display_name", "department", "job_title",
		"email", "hire_date", "sync_run_id", "synced_at",
	}
	values := make([][]any, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		values = append(values, []any{
			r.NaturalKey, r.ScopeKey, r.DisplayName, r.Department, r.JobTitle,
			r.Email, r.HireDate, runID, syncedAt,
		})
	}
	return s.upsertBatched(ctx, "hr_employees", columns, values, batchSize)
}

// UpsertTimeOff writes HR time-off rows keyed on the request ID.
func (s *Store) UpsertTimeOff(ctx context.Context, rows []models.TimeOffEntry, runID string, syncedAt time.Time, batchSize int) UpsertResult {
	columns := []string{
		"natural_key", "scope_key", "subject_id", "subject_name", "leave_type",
		"status", "start_date", "end_date", "days", "sync_run_id", "synced_at",
	}
	values := make([][]any, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		values = append(values, []any{
			r.NaturalKey, r.ScopeKey, r.SubjectID, r.SubjectName, r.LeaveType,
			r.Status, r.StartDate, r.EndDate, r.Days, runID, syncedAt,
		})
	}
	return s.upsertBatched(ctx, "hr_time_off", columns, values, batchSize)
}

// upsertBatched partitions rows into fixed-size batches and applies each as
// a single multi-row "insert; on natural-key conflict overwrite all non-key
// fields" statement. Batches run sequentially; a batch failure is recorded
// and the remaining batches still attempt, so one poison batch cannot
// discard or block its siblings.
//
// columns[0] must be the natural-key column.
func (s *Store) upsertBatched(ctx context.Context, table string, columns []string, rows [][]any, batchSize int) UpsertResult {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var result UpsertResult
	if len(rows) == 0 {
		return result
	}

	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	setClauses := make([]string, 0, len(columns)-1)
	for _, col := range columns[1:] {
		setClauses = append(setClauses, fmt.Sprintf("%s = excluded.%s", col, col))
	}
	rowPlaceholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)-1), ", ") + ", ?)"

	batchIndex := 0
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		placeholders := make([]string, len(batch))
		args := make([]any, 0, len(batch)*len(columns))
		for i, row := range batch {
			placeholders[i] = rowPlaceholder
			args = append(args, row...)
		}

		query := fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES %s ON CONFLICT (%s) DO UPDATE SET %s",
			table,
			strings.Join(columns, ", "),
			strings.Join(placeholders, ", "),
			columns[0],
			strings.Join(setClauses, ", "),
		)

		queryStart := time.Now()
		_, err := s.conn.ExecContext(ctx, query, args...)
		metrics.ObserveStoreQuery("upsert", table, queryStart)

		if err != nil {
			result.Failed += len(batch)
			result.FailedBatches = append(result.FailedBatches, BatchFailure{
				Index: batchIndex,
				Rows:  len(batch),
				Error: err.Error(),
			})
			metrics.UpsertBatchFailures.WithLabelValues(table).Inc()
			logging.Error().Err(err).Str("table", table).Int("batch", batchIndex).Int("rows", len(batch)).Msg("Upsert batch failed")
		} else {
			result.Written += len(batch)
		}
		batchIndex++
	}

	logging.Debug().Str("table", table).Int("written", result.Written).Int("failed", result.Failed).Msg("Upsert finished")
	return result
}
