// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

package upstream

// DetailedReportRequest is the request body for the time-tracking service's
// paginated detailed report. Date ranges are RFC 3339 timestamps.
type DetailedReportRequest struct {
	DateRangeStart string               `json:"dateRangeStart"`
	DateRangeEnd   string               `json:"dateRangeEnd"`
	DetailedFilter DetailedReportFilter `json:"detailedFilter"`
}

// DetailedReportFilter carries the pagination parameters.
type DetailedReportFilter struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// DetailedReportResponse is one page of the detailed report.
type DetailedReportResponse struct {
	TimeEntries []ReportTimeEntry `json:"timeentries"`
}

// ReportTimeEntry is one raw report row.
type ReportTimeEntry struct {
	ID           string       `json:"_id"`
	UserID       string       `json:"userId"`
	UserName     string       `json:"userName"`
	ProjectID    string       `json:"projectId"`
	ProjectName  string       `json:"projectName"`
	Description  string       `json:"description"`
	Billable     bool         `json:"billable"`
	TimeInterval TimeInterval `json:"timeInterval"`
}

// TimeInterval is the report row's time span. Start and End are RFC 3339;
// Duration is elapsed seconds.
type TimeInterval struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Duration int64  `json:"duration"`
}
