// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

package sync

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/config"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/models/upstream"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/syncrun"
)

// TrackerClientInterface defines the project/task tracker API operations the
// pipeline needs. Implemented by TrackerClient for production and by mocks
// in tests.
//
// All methods accept a context for cancellation and timeout and are safe for
// concurrent use.
type TrackerClientInterface interface {
	// GetWorkspace returns the configured workspace with its member roster.
	// This is the fetch's single required entry point.
	GetWorkspace(ctx context.Context) (*upstream.TrackerWorkspace, error)

	// GetTimeEntries returns one member's time entries inside the window.
	GetTimeEntries(ctx context.Context, memberID int64, window syncrun.Window) ([]upstream.TrackerTimeEntry, error)

	// GetSpaces returns the workspace's space hierarchy, used only as the
	// container-name enrichment lookup.
	GetSpaces(ctx context.Context) ([]upstream.TrackerSpace, error)
}

// TrackerClient talks to the tracker's REST API with circuit breaker
// protection, client-side rate limiting, and 429 backoff.
type TrackerClient struct {
	baseURL     string
	token       string
	workspaceID string
	api         *apiClient
	cb          *gobreaker.CircuitBreaker[any]
}

// NewTrackerClient creates a tracker API client from configuration.
func NewTrackerClient(cfg *config.TrackerConfig, timeout time.Duration, rps float64) *TrackerClient {
	return &TrackerClient{
		baseURL:     cfg.BaseURL,
		token:       cfg.APIToken,
		workspaceID: cfg.WorkspaceID,
		api:         newAPIClient(timeout, rps),
		cb:          newAPIBreaker("tracker-api"),
	}
}

func (c *TrackerClient) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", c.token)
	return h
}

// GetWorkspace fetches the configured workspace and its members.
func (c *TrackerClient) GetWorkspace(ctx context.Context) (*upstream.TrackerWorkspace, error) {
	return execute(c.cb, func() (*upstream.TrackerWorkspace, error) {
		var resp upstream.TrackerWorkspaceResponse
		reqURL := fmt.Sprintf("%s/api/v2/workspace", c.baseURL)
		if err := c.api.getJSON(ctx, reqURL, c.header(), &resp); err != nil {
			return nil, fmt.Errorf("workspace request failed: %w", err)
		}
		for i := range resp.Workspaces {
			if resp.Workspaces[i].ID == c.workspaceID {
				return &resp.Workspaces[i], nil
			}
		}
		return nil, fmt.Errorf("workspace %s not found in listing", c.workspaceID)
	})
}

// GetTimeEntries fetches one member's time entries for the window. The
// window bounds are passed as epoch milliseconds per the tracker API.
func (c *TrackerClient) GetTimeEntries(ctx context.Context, memberID int64, window syncrun.Window) ([]upstream.TrackerTimeEntry, error) {
	resp, err := execute(c.cb, func() (*upstream.TrackerTimeEntriesResponse, error) {
		params := url.Values{}
		params.Set("assignee", strconv.FormatInt(memberID, 10))
		params.Set("start_date", strconv.FormatInt(window.Start.UnixMilli(), 10))
		params.Set("end_date", strconv.FormatInt(window.End.UnixMilli(), 10))

		var out upstream.TrackerTimeEntriesResponse
		reqURL := fmt.Sprintf("%s/api/v2/workspace/%s/time_entries?%s", c.baseURL, c.workspaceID, params.Encode())
		if err := c.api.getJSON(ctx, reqURL, c.header(), &out); err != nil {
			return nil, fmt.Errorf("time entries request failed for member %d: %w", memberID, err)
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetSpaces fetches the workspace's space hierarchy.
func (c *TrackerClient) GetSpaces(ctx context.Context) ([]upstream.TrackerSpace, error) {
	resp, err := execute(c.cb, func() (*upstream.TrackerSpacesResponse, error) {
		var out upstream.TrackerSpacesResponse
		reqURL := fmt.Sprintf("%s/api/v2/workspace/%s/spaces?archived=false", c.baseURL, c.workspaceID)
		if err := c.api.getJSON(ctx, reqURL, c.header(), &out); err != nil {
			return nil, fmt.Errorf("spaces request failed: %w", err)
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}
	return resp.Spaces, nil
}
