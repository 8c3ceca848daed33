// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/config"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/models"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/models/upstream"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/store"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/syncrun"
)

// testSyncConfig returns a sync config tuned for fast tests: single retry
// attempt, millisecond delays.
func testSyncConfig() *config.SyncConfig {
	return &config.SyncConfig{
		Interval:             time.Hour,
		RetryAttempts:        1,
		RetryDelay:           time.Millisecond,
		MaxConcurrentFetches: 4,
		UpsertBatchSize:      100,
		RequestTimeout:       5 * time.Second,
		RequestsPerSecond:    1000,
		LeaseTTL:             time.Minute,
	}
}

func testRun(source models.Source, scopeKey string) *syncrun.Run {
	window := syncrun.Resolve(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	return syncrun.NewRun(source, scopeKey, window)
}

type mockTrackerClient struct {
	workspace    *upstream.TrackerWorkspace
	workspaceErr error
	entries      map[int64][]upstream.TrackerTimeEntry
	entryErrs    map[int64]error
	spaces       []upstream.TrackerSpace
	spacesErr    error
}

func (m *mockTrackerClient) GetWorkspace(context.Context) (*upstream.TrackerWorkspace, error) {
	return m.workspace, m.workspaceErr
}

func (m *mockTrackerClient) GetTimeEntries(_ context.Context, memberID int64, _ syncrun.Window) ([]upstream.TrackerTimeEntry, error) {
	if err, ok := m.entryErrs[memberID]; ok {
		return nil, err
	}
	return m.entries[memberID], nil
}

func (m *mockTrackerClient) GetSpaces(context.Context) ([]upstream.TrackerSpace, error) {
	return m.spaces, m.spacesErr
}

type mockTimeTrackingClient struct {
	pages    [][]upstream.ReportTimeEntry
	pageErrs map[int]error
}

func (m *mockTimeTrackingClient) GetDetailedReport(_ context.Context, _ syncrun.Window, page, _ int) (*upstream.DetailedReportResponse, error) {
	if err, ok := m.pageErrs[page]; ok {
		return nil, err
	}
	if page > len(m.pages) {
		return &upstream.DetailedReportResponse{}, nil
	}
	return &upstream.DetailedReportResponse{TimeEntries: m.pages[page-1]}, nil
}

type mockHRClient struct {
	employees    []upstream.HREmployee
	directoryErr error
	timeOff      []upstream.HRTimeOffRequest
	timeOffErr   error
}

func (m *mockHRClient) GetEmployeeDirectory(context.Context) ([]upstream.HREmployee, error) {
	return m.employees, m.directoryErr
}

func (m *mockHRClient) GetTimeOffRequests(context.Context, syncrun.Window) ([]upstream.HRTimeOffRequest, error) {
	return m.timeOff, m.timeOffErr
}

// fakeStorage is a recording in-memory Storage for pipeline tests.
type fakeStorage struct {
	mu stdsync.Mutex

	leaseHeld  bool
	leaseErr   error
	acquired   []string
	released   []string
	upsertFail int

	trackerRows      []models.TrackerEntry
	timeTrackingRows []models.TimeTrackingEntry
	employeeRows     []models.Employee
	timeOffRows      []models.TimeOffEntry

	reconcileCalls int
	reconcileErr   error
	deleted        int64

	summaries []models.RunSummary
}

func (f *fakeStorage) result(n int) store.UpsertResult {
	if f.upsertFail > 0 && n > 0 {
		failed := f.upsertFail
		if failed > n {
			failed = n
		}
		return store.UpsertResult{
			Written: n - failed,
			Failed:  failed,
			FailedBatches: []store.BatchFailure{
				{Index: 0, Rows: failed, Error: "constraint violation"},
			},
		}
	}
	return store.UpsertResult{Written: n}
}

func (f *fakeStorage) UpsertTrackerEntries(_ context.Context, rows []models.TrackerEntry, _ string, _ time.Time, _ int) store.UpsertResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trackerRows = append(f.trackerRows, rows...)
	return f.result(len(rows))
}

func (f *fakeStorage) UpsertTimeTrackingEntries(_ context.Context, rows []models.TimeTrackingEntry, _ string, _ time.Time, _ int) store.UpsertResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeTrackingRows = append(f.timeTrackingRows, rows...)
	return f.result(len(rows))
}

func (f *fakeStorage) UpsertEmployees(_ context.Context, rows []models.Employee, _ string, _ time.Time, _ int) store.UpsertResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.employeeRows = append(f.employeeRows, rows...)
	return f.result(len(rows))
}

func (f *fakeStorage) UpsertTimeOff(_ context.Context, rows []models.TimeOffEntry, _ string, _ time.Time, _ int) store.UpsertResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeOffRows = append(f.timeOffRows, rows...)
	return f.result(len(rows))
}

func (f *fakeStorage) Reconcile(_ context.Context, run syncrun.Sealed) (store.DeletionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconcileCalls++
	if f.reconcileErr != nil {
		return store.DeletionResult{}, f.reconcileErr
	}
	if !run.FetchComplete() {
		return store.DeletionResult{Skipped: true, Reason: "fetch incomplete"}, nil
	}
	return store.DeletionResult{Deleted: f.deleted}, nil
}

func (f *fakeStorage) AcquireLease(_ context.Context, source, scopeKey, runID string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.leaseErr != nil {
		return false, f.leaseErr
	}
	if f.leaseHeld {
		return false, nil
	}
	f.acquired = append(f.acquired, source+":"+scopeKey+":"+runID)
	return true, nil
}

func (f *fakeStorage) ReleaseLease(_ context.Context, source, scopeKey, runID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, source+":"+scopeKey+":"+runID)
	return nil
}

func (f *fakeStorage) InsertRunSummary(_ context.Context, summary models.RunSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, summary)
	return nil
}

func (f *fakeStorage) lastSummary() (models.RunSummary, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.summaries) == 0 {
		return models.RunSummary{}, false
	}
	return f.summaries[len(f.summaries)-1], true
}
