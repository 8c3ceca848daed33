// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

// Package syncrun provides the ingestion window resolver and the per-run
// accumulator threaded through every pipeline stage.
package syncrun

import "time"

// Window is the ingestion time range for one pipeline run.
type Window struct {
	Start time.Time
	End   time.Time
}

// Resolve computes the fixed two-month ingestion window for "now": from
// 00:00:00.000 UTC on the 1st of the previous calendar month through the
// last millisecond of the current calendar month. The end is computed as
// "1st of next month minus 1ms" so month-length and leap-year variation
// never need hand-computed day counts.
func Resolve(now time.Time) Window {
	now = now.UTC()
	return Window{
		Start: time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Millisecond),
	}
}

// Contains reports whether t falls inside the window (inclusive).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}
