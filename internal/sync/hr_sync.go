// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/config"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/logging"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/models"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/models/upstream"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/syncrun"
)

const hrDateLayout = "2006-01-02"

// hoursPerWorkDay converts hour-denominated time-off amounts to days.
const hoursPerWorkDay = 8.0

// fetchHRData runs the two HR entry points. The directory and the time-off
// listing are independent record sets: a failure in one is recorded as a
// critical entry_point error for that set while the other proceeds. Only
// when both fail is the run aborted.
func fetchHRData(ctx context.Context, client HRClientInterface, run *syncrun.Run, sc *config.SyncConfig) ([]upstream.HREmployee, []upstream.HRTimeOffRequest, error) {
	var employees []upstream.HREmployee
	dirErr := retryWithBackoff(ctx, sc.RetryAttempts, sc.RetryDelay, "hr.directory", func() error {
		var err error
		employees, err = client.GetEmployeeDirectory(ctx)
		return err
	})
	if dirErr != nil {
		run.RecordError(syncrun.ErrTypeEntryPoint, "directory", dirErr.Error(), true)
	}

	var timeOff []upstream.HRTimeOffRequest
	toErr := retryWithBackoff(ctx, sc.RetryAttempts, sc.RetryDelay, "hr.time_off", func() error {
		var err error
		timeOff, err = client.GetTimeOffRequests(ctx, run.Window())
		return err
	})
	if toErr != nil {
		run.RecordError(syncrun.ErrTypeEntryPoint, "time_off", toErr.Error(), true)
	}

	if dirErr != nil && toErr != nil {
		return nil, nil, fmt.Errorf("both HR entry points failed: directory: %v; time off: %v", dirErr, toErr)
	}

	run.AddCount(syncrun.CountFetched, len(employees)+len(timeOff))
	return employees, timeOff, nil
}

// normalizeEmployees maps raw directory records to normalized rows. Records
// without an ID are dropped.
func normalizeEmployees(raw []upstream.HREmployee, run *syncrun.Run) []models.Employee {
	rows := make([]models.Employee, 0, len(raw))
	for _, e := range raw {
		if e.ID == "" {
			continue
		}

		name := e.DisplayName
		if name == "" {
			name = strings.TrimSpace(e.FirstName + " " + e.LastName)
		}

		row := models.Employee{
			NaturalKey:  e.ID,
			ScopeKey:    run.ScopeKey(),
			DisplayName: orFallback(name, fallbackSubject),
			Department:  orFallback(e.Department, fallbackSubject),
			JobTitle:    e.JobTitle,
		}
		if e.WorkEmail != "" {
			email := e.WorkEmail
			row.Email = &email
		}
		if e.HireDate != "" {
			if hired, err := time.Parse(hrDateLayout, e.HireDate); err == nil {
				row.HireDate = &hired
			}
		}
		rows = append(rows, row)
	}

	run.AddCount(syncrun.CountNormalized, len(rows))
	return rows
}

// normalizeTimeOff maps raw time-off requests to normalized rows. Requests
// without an ID or parseable dates and requests for a non-positive amount
// are dropped. Hour-denominated amounts convert to days at eight hours per
// working day.
func normalizeTimeOff(raw []upstream.HRTimeOffRequest, run *syncrun.Run) []models.TimeOffEntry {
	rows := make([]models.TimeOffEntry, 0, len(raw))
	for _, r := range raw {
		if r.ID == "" {
			continue
		}
		start, startErr := time.Parse(hrDateLayout, r.Start)
		end, endErr := time.Parse(hrDateLayout, r.End)
		if startErr != nil || endErr != nil {
			logging.Debug().
				Str("run_id", run.ID()).
				Str("request_id", r.ID).
				Msg("Dropping time-off request with unparseable dates")
			continue
		}

		days := r.Amount.Amount
		if strings.EqualFold(r.Amount.Unit, "hours") {
			days /= hoursPerWorkDay
		}
		if days <= 0 {
			continue
		}

		rows = append(rows, models.TimeOffEntry{
			NaturalKey:  r.ID,
			ScopeKey:    run.ScopeKey(),
			SubjectID:   r.EmployeeID,
			SubjectName: orFallback(r.Name, fallbackSubject),
			LeaveType:   orFallback(r.Type.Name, fallbackSubject),
			Status:      r.Status.Status,
			StartDate:   start,
			EndDate:     end,
			Days:        days,
		})
	}

	run.AddCount(syncrun.CountNormalized, len(rows))
	return rows
}
