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

	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/models"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/models/upstream"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/syncrun"
)

func TestFetchHRDataEntryPointsAreIsolated(t *testing.T) {
	client := &mockHRClient{
		directoryErr: errors.New("HTTP 500"),
		timeOff: []upstream.HRTimeOffRequest{
			{ID: "to-1", EmployeeID: "e-1", Start: "2026-03-02", End: "2026-03-04",
				Amount: upstream.HRAmount{Unit: "days", Amount: 3}},
		},
	}
	run := testRun(models.SourceHR, "co-1")

	employees, timeOff, err := fetchHRData(context.Background(), client, run, testSyncConfig())
	if err != nil {
		t.Fatalf("single entry point failure must not be fatal: %v", err)
	}
	if len(employees) != 0 {
		t.Errorf("expected no employees, got %d", len(employees))
	}
	if len(timeOff) != 1 {
		t.Errorf("expected the time-off listing to survive, got %d", len(timeOff))
	}
	if run.FetchComplete() {
		t.Error("directory failure must clear fetchComplete")
	}

	errs := run.Seal().Errors()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if errs[0].Type != syncrun.ErrTypeEntryPoint || errs[0].Context != "directory" {
		t.Errorf("expected entry_point error attributed to directory, got %+v", errs[0])
	}
}

func TestFetchHRDataBothEntryPointsFailing(t *testing.T) {
	client := &mockHRClient{
		directoryErr: errors.New("HTTP 500"),
		timeOffErr:   errors.New("HTTP 503"),
	}
	run := testRun(models.SourceHR, "co-1")

	_, _, err := fetchHRData(context.Background(), client, run, testSyncConfig())
	if err == nil {
		t.Fatal("expected fatal error when both entry points fail")
	}
	if run.ErrorCount() != 2 {
		t.Errorf("expected 2 errors, got %d", run.ErrorCount())
	}
}

func TestNormalizeEmployees(t *testing.T) {
	run := testRun(models.SourceHR, "co-1")
	raw := []upstream.HREmployee{
		{
			ID:          "e-1",
			DisplayName: "Dana Kim",
			Department:  "Engineering",
			JobTitle:    "Engineer",
			WorkEmail:   "dana@example.com",
			HireDate:    "2021-06-01",
		},
		{ID: "", DisplayName: "Dropped"},
		{ID: "e-3", FirstName: "Lee", LastName: "Park"},
		{ID: "e-4", HireDate: "junk"},
	}

	rows := normalizeEmployees(raw, run)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	first := rows[0]
	if first.DisplayName != "Dana Kim" || first.Department != "Engineering" {
		t.Errorf("unexpected first row: %+v", first)
	}
	if first.Email == nil || *first.Email != "dana@example.com" {
		t.Error("expected email to carry over")
	}
	if first.HireDate == nil || !first.HireDate.Equal(time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("expected parsed hire date")
	}

	if rows[1].DisplayName != "Lee Park" {
		t.Errorf("expected name built from first/last, got %q", rows[1].DisplayName)
	}

	third := rows[2]
	if third.DisplayName != "Unknown" {
		t.Errorf("expected Unknown name fallback, got %q", third.DisplayName)
	}
	if third.HireDate != nil {
		t.Error("unparseable hire date must be dropped, not zeroed")
	}
	if third.Email != nil {
		t.Error("missing email must stay nil")
	}
}

func TestNormalizeTimeOff(t *testing.T) {
	run := testRun(models.SourceHR, "co-1")
	raw := []upstream.HRTimeOffRequest{
		{
			ID:         "to-1",
			EmployeeID: "e-1",
			Name:       "Dana Kim",
			Status:     upstream.HRStatus{Status: "approved"},
			Type:       upstream.HRTimeOffKind{Name: "Vacation"},
			Start:      "2026-03-02",
			End:        "2026-03-04",
			Amount:     upstream.HRAmount{Unit: "days", Amount: 3},
		},
		{
			ID:     "to-2",
			Start:  "2026-03-10",
			End:    "2026-03-10",
			Amount: upstream.HRAmount{Unit: "hours", Amount: 4},
		},
		{ID: "", Start: "2026-03-02", End: "2026-03-04", Amount: upstream.HRAmount{Unit: "days", Amount: 1}},
		{ID: "to-4", Start: "bad", End: "2026-03-04", Amount: upstream.HRAmount{Unit: "days", Amount: 1}},
		{ID: "to-5", Start: "2026-03-02", End: "2026-03-04", Amount: upstream.HRAmount{Unit: "days", Amount: 0}},
	}

	rows := normalizeTimeOff(raw, run)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	first := rows[0]
	if first.Days != 3 {
		t.Errorf("expected 3 days, got %v", first.Days)
	}
	if first.LeaveType != "Vacation" || first.Status != "approved" {
		t.Errorf("unexpected first row: %+v", first)
	}
	if !first.StartDate.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start date %v", first.StartDate)
	}

	second := rows[1]
	if second.Days != 0.5 {
		t.Errorf("4 hours must convert to 0.5 days, got %v", second.Days)
	}
	if second.SubjectName != "Unknown" || second.LeaveType != "Unknown" {
		t.Errorf("expected Unknown fallbacks, got %+v", second)
	}
}
