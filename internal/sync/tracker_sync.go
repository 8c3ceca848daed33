// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/config"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/logging"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/models"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/models/upstream"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/syncrun"
)

// fetchTrackerEntries runs the tracker fetch phase against the run's window.
//
// The workspace listing is the single entry point; its failure is fatal and
// returned as an error. Per-member time-entry fetches run with bounded
// concurrency and fail independently: a failed member is recorded on the run
// as a critical sub_fetch error and the remaining members' results are kept.
// The space lookup is enrichment only and degrades without affecting
// completeness.
func fetchTrackerEntries(ctx context.Context, client TrackerClientInterface, run *syncrun.Run, sc *config.SyncConfig) ([]upstream.TrackerTimeEntry, map[string]string, error) {
	var workspace *upstream.TrackerWorkspace
	err := retryWithBackoff(ctx, sc.RetryAttempts, sc.RetryDelay, "tracker.workspace", func() error {
		var fetchErr error
		workspace, fetchErr = client.GetWorkspace(ctx)
		return fetchErr
	})
	if err != nil {
		run.RecordError(syncrun.ErrTypeEntryPoint, "workspace", err.Error(), true)
		return nil, nil, fmt.Errorf("tracker workspace fetch failed: %w", err)
	}

	logging.Debug().
		Str("run_id", run.ID()).
		Int("members", len(workspace.Members)).
		Msg("Tracker workspace resolved")

	var (
		mu      stdsync.Mutex
		entries []upstream.TrackerTimeEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sc.MaxConcurrentFetches)
	for _, member := range workspace.Members {
		memberID := member.User.ID
		g.Go(func() error {
			var memberEntries []upstream.TrackerTimeEntry
			fetchErr := retryWithBackoff(gctx, sc.RetryAttempts, sc.RetryDelay, "tracker.time_entries", func() error {
				var err error
				memberEntries, err = client.GetTimeEntries(gctx, memberID, run.Window())
				return err
			})
			if fetchErr != nil {
				run.RecordError(syncrun.ErrTypeSubFetch,
					fmt.Sprintf("member:%d", memberID), fetchErr.Error(), true)
				return nil
			}

			mu.Lock()
			entries = append(entries, memberEntries...)
			mu.Unlock()
			return nil
		})
	}
	// Goroutines report failures through the run, never through the group.
	_ = g.Wait()

	spaceNames := make(map[string]string)
	var spaces []upstream.TrackerSpace
	err = retryWithBackoff(ctx, sc.RetryAttempts, sc.RetryDelay, "tracker.spaces", func() error {
		var fetchErr error
		spaces, fetchErr = client.GetSpaces(ctx)
		return fetchErr
	})
	if err != nil {
		run.RecordError(syncrun.ErrTypeEnrichment, "spaces", err.Error(), false)
	} else {
		for _, s := range spaces {
			spaceNames[s.ID] = s.Name
		}
	}

	run.AddCount(syncrun.CountFetched, len(entries))
	return entries, spaceNames, nil
}

// normalizeTrackerEntries maps raw tracker entries to normalized rows.
// Entries without an ID or start timestamp are dropped, durations are
// rounded up to 15 minute increments, and entries rounding to zero minutes
// are dropped.
func normalizeTrackerEntries(raw []upstream.TrackerTimeEntry, spaceNames map[string]string, run *syncrun.Run) []models.TrackerEntry {
	rows := make([]models.TrackerEntry, 0, len(raw))
	for _, e := range raw {
		if e.ID == "" || e.Start == 0 {
			logging.Debug().
				Str("run_id", run.ID()).
				Str("entry_id", e.ID).
				Msg("Dropping tracker entry without natural key or start")
			continue
		}

		minutes := roundUpToQuarterHour(e.DurationMS / 1000)
		if minutes <= 0 {
			continue
		}

		start := time.UnixMilli(e.Start).UTC()
		row := models.TrackerEntry{
			NaturalKey:    e.ID,
			ScopeKey:      run.ScopeKey(),
			WorkDate:      time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
			SubjectID:     fmt.Sprintf("%d", e.User.ID),
			SubjectName:   orFallback(e.User.Username, fallbackSubject),
			ContainerID:   e.SpaceID,
			ContainerName: orFallback(spaceNames[e.SpaceID], orFallback(e.ProjectName, fallbackContainer)),
			Minutes:       minutes,
			Billable:      e.Billable,
		}
		if e.Task != nil {
			taskID, taskName := e.Task.ID, e.Task.Name
			row.TaskID, row.TaskName = &taskID, &taskName
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
