// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

package upstream

// HRDirectoryResponse wraps the HR employee directory listing.
type HRDirectoryResponse struct {
	Employees []HREmployee `json:"employees"`
}

// HREmployee is one raw directory record. HireDate is a "2006-01-02" date
// string and may be empty.
type HREmployee struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	JobTitle    string `json:"jobTitle"`
	Department  string `json:"department"`
	WorkEmail   string `json:"workEmail"`
	HireDate    string `json:"hireDate"`
}

// HRTimeOffRequest is one raw time-off request. Start and End are
// "2006-01-02" date strings.
type HRTimeOffRequest struct {
	ID         string       `json:"id"`
	EmployeeID string       `json:"employeeId"`
	Name       string       `json:"name"`
	Status     HRStatus     `json:"status"`
	Type       HRTimeOffKind `json:"type"`
	Start      string       `json:"start"`
	End        string       `json:"end"`
	Amount     HRAmount     `json:"amount"`
}

// HRStatus is the request's approval state.
type HRStatus struct {
	Status string `json:"status"`
}

// HRTimeOffKind is the leave category (vacation, sick, ...).
type HRTimeOffKind struct {
	Name string `json:"name"`
}

// HRAmount is the requested quantity. Unit is "days" or "hours".
type HRAmount struct {
	Unit   string  `json:"unit"`
	Amount float64 `json:"amount"`
}
