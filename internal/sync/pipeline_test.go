// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/config"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/models"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/models/upstream"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/syncrun"
)

func testConfig() *config.Config {
	return &config.Config{
		Tracker:      config.TrackerConfig{Enabled: true, WorkspaceID: "ws-1"},
		TimeTracking: config.TimeTrackingConfig{Enabled: true, WorkspaceID: "ws-1", PageSize: 100, MaxPages: 50},
		HR:           config.HRConfig{Enabled: true, CompanyID: "co-1"},
		Sync:         *testSyncConfig(),
	}
}

func newTestPipeline(storage *fakeStorage, tracker TrackerClientInterface, timeTracking TimeTrackingClientInterface, hr HRClientInterface) *Pipeline {
	p := NewPipeline(testConfig(), storage, tracker, timeTracking, hr)
	p.now = func() time.Time { return time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC) }
	return p
}

func TestSyncSourceTrackerCompleteRun(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tracker := &mockTrackerClient{
		workspace: trackerWorkspace(1),
		entries: map[int64][]upstream.TrackerTimeEntry{
			1: {trackerEntry("e1", 1, start, 3600_000)},
		},
		spaces: []upstream.TrackerSpace{{ID: "sp-1", Name: "Client Work"}},
	}
	storage := &fakeStorage{deleted: 2}
	p := newTestPipeline(storage, tracker, nil, nil)

	if err := p.SyncSource(context.Background(), models.SourceTracker); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(storage.trackerRows) != 1 {
		t.Fatalf("expected 1 upserted row, got %d", len(storage.trackerRows))
	}
	if storage.reconcileCalls != 1 {
		t.Errorf("expected reconciliation to run, got %d calls", storage.reconcileCalls)
	}
	if len(storage.acquired) != 1 || len(storage.released) != 1 {
		t.Errorf("lease must be acquired and released, got %d/%d", len(storage.acquired), len(storage.released))
	}

	summary, ok := storage.lastSummary()
	if !ok {
		t.Fatal("expected a persisted summary")
	}
	if !summary.FetchComplete {
		t.Error("expected fetchComplete summary")
	}
	if summary.RecordCounts[syncrun.CountWritten] != 1 {
		t.Errorf("expected 1 written, got %d", summary.RecordCounts[syncrun.CountWritten])
	}
	if summary.RecordCounts[syncrun.CountDeleted] != 2 {
		t.Errorf("expected 2 deleted, got %d", summary.RecordCounts[syncrun.CountDeleted])
	}
	if summary.ErrorCount != 0 {
		t.Errorf("expected no errors, got %+v", summary.Errors)
	}
	if !summary.RangeStart.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected pinned window start, got %v", summary.RangeStart)
	}
}

func TestSyncSourceLeaseHeld(t *testing.T) {
	storage := &fakeStorage{leaseHeld: true}
	tracker := &mockTrackerClient{workspace: trackerWorkspace(1)}
	p := newTestPipeline(storage, tracker, nil, nil)

	if err := p.SyncSource(context.Background(), models.SourceTracker); err != nil {
		t.Fatalf("a held lease is not an error: %v", err)
	}

	if len(storage.trackerRows) != 0 {
		t.Error("no rows may be written while the lease is held")
	}
	if storage.reconcileCalls != 0 {
		t.Error("no reconciliation may run while the lease is held")
	}

	summary, ok := storage.lastSummary()
	if !ok {
		t.Fatal("lease rejection must still persist a summary")
	}
	if summary.ErrorCount != 1 || summary.Errors[0].Type != syncrun.ErrTypeLease {
		t.Errorf("expected a lease_held error, got %+v", summary.Errors)
	}
}

func TestSyncSourceLeaseErrorIsFatal(t *testing.T) {
	storage := &fakeStorage{leaseErr: errors.New("store closed")}
	p := newTestPipeline(storage, &mockTrackerClient{}, nil, nil)

	if err := p.SyncSource(context.Background(), models.SourceTracker); err == nil {
		t.Fatal("expected error when the lease query fails")
	}
}

func TestSyncSourceSkipsReconcileOnIncompleteFetch(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tracker := &mockTrackerClient{
		workspace: trackerWorkspace(1, 2),
		entries: map[int64][]upstream.TrackerTimeEntry{
			1: {trackerEntry("e1", 1, start, 3600_000)},
		},
		entryErrs: map[int64]error{2: errors.New("timeout")},
	}
	storage := &fakeStorage{}
	p := newTestPipeline(storage, tracker, nil, nil)

	if err := p.SyncSource(context.Background(), models.SourceTracker); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(storage.trackerRows) != 1 {
		t.Errorf("surviving member's rows must still be written, got %d", len(storage.trackerRows))
	}

	summary, _ := storage.lastSummary()
	if summary.FetchComplete {
		t.Error("expected incomplete fetch")
	}
	if summary.RecordCounts[syncrun.CountDeleted] != 0 {
		t.Error("nothing may be deleted after an incomplete fetch")
	}
}

func TestSyncSourceSkipsReconcileOnUpsertFailure(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tracker := &mockTrackerClient{
		workspace: trackerWorkspace(1),
		entries: map[int64][]upstream.TrackerTimeEntry{
			1: {trackerEntry("e1", 1, start, 3600_000), trackerEntry("e2", 1, start, 1800_000)},
		},
	}
	storage := &fakeStorage{upsertFail: 1}
	p := newTestPipeline(storage, tracker, nil, nil)

	if err := p.SyncSource(context.Background(), models.SourceTracker); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if storage.reconcileCalls != 0 {
		t.Error("reconciliation must be skipped when upsert batches failed")
	}

	summary, _ := storage.lastSummary()
	if summary.RecordCounts[syncrun.CountFailed] != 1 {
		t.Errorf("expected 1 failed row, got %d", summary.RecordCounts[syncrun.CountFailed])
	}
	foundBatchError := false
	for _, e := range summary.Errors {
		if e.Type == syncrun.ErrTypeBatchWrite {
			foundBatchError = true
		}
	}
	if !foundBatchError {
		t.Errorf("expected a batch_write error on the summary, got %+v", summary.Errors)
	}
}

func TestSyncSourceReconcileErrorLandsOnSummary(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tracker := &mockTrackerClient{
		workspace: trackerWorkspace(1),
		entries: map[int64][]upstream.TrackerTimeEntry{
			1: {trackerEntry("e1", 1, start, 3600_000)},
		},
	}
	storage := &fakeStorage{reconcileErr: errors.New("delete failed")}
	p := newTestPipeline(storage, tracker, nil, nil)

	if err := p.SyncSource(context.Background(), models.SourceTracker); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary, _ := storage.lastSummary()
	if summary.ErrorCount != 1 || summary.Errors[0].Type != syncrun.ErrTypeReconcile {
		t.Errorf("expected a reconcile error on the summary, got %+v", summary.Errors)
	}
}

func TestSyncSourceHRUpsertsBothRecordSets(t *testing.T) {
	hr := &mockHRClient{
		employees: []upstream.HREmployee{
			{ID: "e-1", DisplayName: "Dana Kim"},
			{ID: "e-2", DisplayName: "Lee Park"},
		},
		timeOff: []upstream.HRTimeOffRequest{
			{ID: "to-1", EmployeeID: "e-1", Start: "2026-03-02", End: "2026-03-03",
				Amount: upstream.HRAmount{Unit: "days", Amount: 2}},
		},
	}
	storage := &fakeStorage{}
	p := newTestPipeline(storage, nil, nil, hr)

	if err := p.SyncSource(context.Background(), models.SourceHR); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(storage.employeeRows) != 2 {
		t.Errorf("expected 2 employee rows, got %d", len(storage.employeeRows))
	}
	if len(storage.timeOffRows) != 1 {
		t.Errorf("expected 1 time-off row, got %d", len(storage.timeOffRows))
	}

	summary, _ := storage.lastSummary()
	if summary.RecordCounts[syncrun.CountWritten] != 3 {
		t.Errorf("expected 3 written across both tables, got %d", summary.RecordCounts[syncrun.CountWritten])
	}
	if summary.ScopeKey != "co-1" {
		t.Errorf("expected HR scope key co-1, got %s", summary.ScopeKey)
	}
}

func TestSyncSourceRejectsUnknownOrUnconfigured(t *testing.T) {
	storage := &fakeStorage{}
	p := newTestPipeline(storage, nil, nil, nil)

	if err := p.SyncSource(context.Background(), models.Source("bogus")); err == nil {
		t.Error("expected error for unknown source")
	}
	if err := p.SyncSource(context.Background(), models.SourceTracker); err == nil {
		t.Error("expected error for source without a client")
	}
}

// Re-running the pipeline over the same upstream state writes the same rows
// keyed by the same natural keys; nothing accumulates and nothing is stale.
func TestSyncSourceIdempotentRerun(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tracker := &mockTrackerClient{
		workspace: trackerWorkspace(1),
		entries: map[int64][]upstream.TrackerTimeEntry{
			1: {trackerEntry("e1", 1, start, 3600_000)},
		},
	}
	storage := &fakeStorage{}
	p := newTestPipeline(storage, tracker, nil, nil)

	for i := 0; i < 2; i++ {
		if err := p.SyncSource(context.Background(), models.SourceTracker); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}

	if len(storage.summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(storage.summaries))
	}
	if storage.summaries[0].SyncRunID == storage.summaries[1].SyncRunID {
		t.Error("each run must have a distinct ID")
	}
	for i, s := range storage.summaries {
		if s.RecordCounts[syncrun.CountWritten] != 1 {
			t.Errorf("run %d: expected 1 written, got %d", i+1, s.RecordCounts[syncrun.CountWritten])
		}
	}
	if storage.trackerRows[0].NaturalKey != storage.trackerRows[1].NaturalKey {
		t.Error("reruns must address the same natural key")
	}
}
