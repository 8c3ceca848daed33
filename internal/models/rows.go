// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

// Package models defines the normalized row shapes written to the store and
// the run metadata surface consumed by operational tooling.
//
// Each source normalizes into its own typed row. The rows share the sync
// metadata convention: a source-supplied natural key (unique per table), the
// scope key the run operated over, and the run stamp (sync_run_id,
// synced_at) applied by the upsert engine. Two rows with the same natural
// key from different runs are the same logical entity; the later run's
// values win.
package models

import "time"

// Source identifies one upstream system.
type Source string

const (
	SourceTracker      Source = "tracker"
	SourceTimeTracking Source = "timetracking"
	SourceHR           Source = "hr"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceTracker, SourceTimeTracking, SourceHR:
		return true
	}
	return false
}

// TrackerEntry is a normalized time entry from the project/task tracker.
type TrackerEntry struct {
	NaturalKey    string
	ScopeKey      string
	WorkDate      time.Time
	SubjectID     string
	SubjectName   string
	ContainerID   string
	ContainerName string
	TaskID        *string
	TaskName      *string
	Description   *string
	Minutes       int
	Billable      bool
}

// TimeTrackingEntry is a normalized time entry from the time-tracking
// service's detailed report.
type TimeTrackingEntry struct {
	NaturalKey    string
	ScopeKey      string
	WorkDate      time.Time
	SubjectID     string
	SubjectName   string
	ContainerID   string
	ContainerName string
	Description   *string
	Minutes       int
	Billable      bool
}

// Employee is a normalized employee record from the HR directory.
type Employee struct {
	NaturalKey  string
	ScopeKey    string
	DisplayName string
	Department  string
	JobTitle    string
	Email       *string
	HireDate    *time.Time
}

// TimeOffEntry is a normalized time-off request from the HR system.
type TimeOffEntry struct {
	NaturalKey  string
	ScopeKey    string
	SubjectID   string
	SubjectName string
	LeaveType   string
	Status      string
	StartDate   time.Time
	EndDate     time.Time
	Days        float64
}

// RunError is one accumulated error on a pipeline run, with enough context
// (page number, member ID) to support manual investigation.
type RunError struct {
	Type    string `json:"type"`
	Context string `json:"context"`
	Message string `json:"message"`
}

// RunSummary is the structured per-run summary persisted for every pipeline
// invocation, including total failures. It is the sole observability
// contract exposed to operational tooling.
type RunSummary struct {
	SyncRunID     string         `json:"syncRunId"`
	SyncRunAt     time.Time      `json:"syncRunAt"`
	Source        Source         `json:"source"`
	ScopeKey      string         `json:"scopeKey"`
	RangeStart    time.Time      `json:"rangeStart"`
	RangeEnd      time.Time      `json:"rangeEnd"`
	FetchComplete bool           `json:"fetchComplete"`
	FinishedAt    time.Time      `json:"finishedAt"`
	RecordCounts  map[string]int `json:"recordCounts"`
	ErrorCount    int            `json:"errorCount"`
	Errors        []RunError     `json:"errors"`
}
