// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

// Package upstream defines the raw wire shapes returned by the three
// external REST APIs. These types mirror the payloads as the APIs return
// them and are never persisted; the normalizers in internal/sync map them
// into the row shapes in internal/models.
package upstream

// TrackerWorkspaceResponse wraps the tracker's workspace listing.
type TrackerWorkspaceResponse struct {
	Workspaces []TrackerWorkspace `json:"workspaces"`
}

// TrackerWorkspace is one tracker workspace with its member roster.
type TrackerWorkspace struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Members []TrackerMember `json:"members"`
}

// TrackerMember is one workspace member.
type TrackerMember struct {
	User TrackerUser `json:"user"`
}

// TrackerUser identifies a tracker user.
type TrackerUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TrackerTimeEntriesResponse wraps a per-member time-entry listing.
type TrackerTimeEntriesResponse struct {
	Data []TrackerTimeEntry `json:"data"`
}

// TrackerTimeEntry is one raw tracker time entry. Start and DurationMS are
// epoch milliseconds and elapsed milliseconds respectively.
type TrackerTimeEntry struct {
	ID          string       `json:"id"`
	Start       int64        `json:"start"`
	End         int64        `json:"end"`
	DurationMS  int64        `json:"duration"`
	Description string       `json:"description"`
	Billable    bool         `json:"billable"`
	User        TrackerUser  `json:"user"`
	Task        *TrackerTask `json:"task"`
	SpaceID     string       `json:"space_id"`
	ProjectName string       `json:"project_name"`
}

// TrackerTask is the task a time entry is booked against, when present.
type TrackerTask struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TrackerSpacesResponse wraps the space hierarchy listing used as the
// container-name enrichment lookup.
type TrackerSpacesResponse struct {
	Spaces []TrackerSpace `json:"spaces"`
}

// TrackerSpace is one space (container) in the tracker hierarchy.
type TrackerSpace struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
