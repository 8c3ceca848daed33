// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

package sync

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/config"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/models/upstream"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/syncrun"
)

// TimeTrackingClientInterface defines the time-tracking report API operation
// the pipeline needs.
type TimeTrackingClientInterface interface {
	// GetDetailedReport returns one page of the detailed report for the
	// window. Pages are 1-based.
	GetDetailedReport(ctx context.Context, window syncrun.Window, page, pageSize int) (*upstream.DetailedReportResponse, error)
}

// TimeTrackingClient talks to the time-tracking reports API.
type TimeTrackingClient struct {
	baseURL     string
	token       string
	workspaceID string
	api         *apiClient
	cb          *gobreaker.CircuitBreaker[any]
}

// NewTimeTrackingClient creates a time-tracking API client from configuration.
func NewTimeTrackingClient(cfg *config.TimeTrackingConfig, timeout time.Duration, rps float64) *TimeTrackingClient {
	return &TimeTrackingClient{
		baseURL:     cfg.BaseURL,
		token:       cfg.APIKey,
		workspaceID: cfg.WorkspaceID,
		api:         newAPIClient(timeout, rps),
		cb:          newAPIBreaker("timetracking-api"),
	}
}

func (c *TimeTrackingClient) header() http.Header {
	h := http.Header{}
	h.Set("X-Api-Key", c.token)
	return h
}

// GetDetailedReport fetches one page of the detailed report. The window is
// sent as RFC 3339 bounds in the request body.
func (c *TimeTrackingClient) GetDetailedReport(ctx context.Context, window syncrun.Window, page, pageSize int) (*upstream.DetailedReportResponse, error) {
	return execute(c.cb, func() (*upstream.DetailedReportResponse, error) {
		req := upstream.DetailedReportRequest{
			DateRangeStart: window.Start.Format(time.RFC3339),
			DateRangeEnd:   window.End.Format(time.RFC3339),
			DetailedFilter: upstream.DetailedReportFilter{
				Page:     page,
				PageSize: pageSize,
			},
		}

		var out upstream.DetailedReportResponse
		reqURL := fmt.Sprintf("%s/v1/workspaces/%s/reports/detailed", c.baseURL, c.workspaceID)
		if err := c.api.postJSON(ctx, reqURL, c.header(), req, &out); err != nil {
			return nil, fmt.Errorf("detailed report page %d failed: %w", page, err)
		}
		return &out, nil
	})
}
