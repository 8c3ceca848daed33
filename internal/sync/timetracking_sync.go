// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/config"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/logging"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/models"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/models/upstream"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/syncrun"
)

// fetchTimeTrackingEntries pages through the detailed report for the run's
// window.
//
// Page one doubles as the entry point: its failure is fatal. A failure on a
// later page keeps everything fetched so far, records a critical sub_fetch
// error, and stops paging. Paging ends naturally on the first short page; a
// loop that consumes the configured page ceiling with only full pages is
// recorded as a critical safety_limit error rather than silently truncated.
func fetchTimeTrackingEntries(ctx context.Context, client TimeTrackingClientInterface, run *syncrun.Run, sc *config.SyncConfig, tc *config.TimeTrackingConfig) ([]upstream.ReportTimeEntry, error) {
	var entries []upstream.ReportTimeEntry

	sawShortPage := false
	for page := 1; page <= tc.MaxPages; page++ {
		var resp *upstream.DetailedReportResponse
		err := retryWithBackoff(ctx, sc.RetryAttempts, sc.RetryDelay, "timetracking.report", func() error {
			var fetchErr error
			resp, fetchErr = client.GetDetailedReport(ctx, run.Window(), page, tc.PageSize)
			return fetchErr
		})
		if err != nil {
			if page == 1 {
				run.RecordError(syncrun.ErrTypeEntryPoint, "page:1", err.Error(), true)
				return nil, fmt.Errorf("detailed report fetch failed: %w", err)
			}
			run.RecordError(syncrun.ErrTypeSubFetch,
				fmt.Sprintf("page:%d", page), err.Error(), true)
			break
		}

		entries = append(entries, resp.TimeEntries...)
		if len(resp.TimeEntries) < tc.PageSize {
			sawShortPage = true
			break
		}
	}

	if !sawShortPage && run.FetchComplete() {
		run.RecordError(syncrun.ErrTypeSafetyLimit,
			fmt.Sprintf("max_pages:%d", tc.MaxPages),
			fmt.Sprintf("pagination stopped at the %d page ceiling without a natural end", tc.MaxPages),
			true)
	}

	logging.Debug().
		Str("run_id", run.ID()).
		Int("entries", len(entries)).
		Bool("fetch_complete", run.FetchComplete()).
		Msg("Detailed report paging finished")

	run.AddCount(syncrun.CountFetched, len(entries))
	return entries, nil
}

// normalizeTimeTrackingEntries maps raw report rows to normalized rows.
// Rows without an ID or a parseable start timestamp are dropped, durations
// are rounded up to 15 minute increments, and rows rounding to zero minutes
// are dropped.
func normalizeTimeTrackingEntries(raw []upstream.ReportTimeEntry, run *syncrun.Run) []models.TimeTrackingEntry {
	rows := make([]models.TimeTrackingEntry, 0, len(raw))
	for _, e := range raw {
		if e.ID == "" {
			continue
		}
		start, err := time.Parse(time.RFC3339, e.TimeInterval.Start)
		if err != nil {
			logging.Debug().
				Str("run_id", run.ID()).
				Str("entry_id", e.ID).
				Str("start", e.TimeInterval.Start).
				Msg("Dropping report row with unparseable start")
			continue
		}

		minutes := roundUpToQuarterHour(e.TimeInterval.Duration)
		if minutes <= 0 {
			continue
		}

		start = start.UTC()
		row := models.TimeTrackingEntry{
			NaturalKey:    e.ID,
			ScopeKey:      run.ScopeKey(),
			WorkDate:      time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
			SubjectID:     e.UserID,
			SubjectName:   orFallback(e.UserName, fallbackSubject),
			ContainerID:   e.ProjectID,
			ContainerName: orFallback(e.ProjectName, fallbackContainer),
			Minutes:       minutes,
			Billable:      e.Billable,
		}
		if e.Description != "" {
			desc := e.Description
			row.Description = &desc
		}
		rows = append(rows, row)
	}

	run.AddCount(syncrun.CountNormalized, len(rows))
	return rows
}
