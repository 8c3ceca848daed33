// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

package sync

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/config"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/models/upstream"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/syncrun"
)

// HRClientInterface defines the HR platform API operations the pipeline
// needs. The two calls are independent entry points; a failure in one must
// not abort the other.
type HRClientInterface interface {
	// GetEmployeeDirectory returns the full employee directory. The
	// directory is not windowed.
	GetEmployeeDirectory(ctx context.Context) ([]upstream.HREmployee, error)

	// GetTimeOffRequests returns time-off requests overlapping the window.
	GetTimeOffRequests(ctx context.Context, window syncrun.Window) ([]upstream.HRTimeOffRequest, error)
}

// HRClient talks to the HR platform's REST API. The platform uses HTTP
// basic auth with the API key as the username.
type HRClient struct {
	baseURL   string
	authValue string
	companyID string
	api       *apiClient
	cb        *gobreaker.CircuitBreaker[any]
}

// NewHRClient creates an HR API client from configuration.
func NewHRClient(cfg *config.HRConfig, timeout time.Duration, rps float64) *HRClient {
	basic := base64.StdEncoding.EncodeToString([]byte(cfg.APIKey + ":x"))
	return &HRClient{
		baseURL:   cfg.BaseURL,
		authValue: "Basic " + basic,
		companyID: cfg.CompanyID,
		api:       newAPIClient(timeout, rps),
		cb:        newAPIBreaker("hr-api"),
	}
}

func (c *HRClient) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", c.authValue)
	h.Set("Accept", "application/json")
	return h
}

// GetEmployeeDirectory fetches the full employee directory.
func (c *HRClient) GetEmployeeDirectory(ctx context.Context) ([]upstream.HREmployee, error) {
	resp, err := execute(c.cb, func() (*upstream.HRDirectoryResponse, error) {
		var out upstream.HRDirectoryResponse
		reqURL := fmt.Sprintf("%s/api/gateway.php/%s/v1/employees/directory", c.baseURL, c.companyID)
		if err := c.api.getJSON(ctx, reqURL, c.header(), &out); err != nil {
			return nil, fmt.Errorf("employee directory request failed: %w", err)
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}
	return resp.Employees, nil
}

// GetTimeOffRequests fetches time-off requests overlapping the window. The
// HR API filters on date-only bounds.
func (c *HRClient) GetTimeOffRequests(ctx context.Context, window syncrun.Window) ([]upstream.HRTimeOffRequest, error) {
	resp, err := execute(c.cb, func() (*[]upstream.HRTimeOffRequest, error) {
		params := url.Values{}
		params.Set("start", window.Start.Format("2006-01-02"))
		params.Set("end", window.End.Format("2006-01-02"))

		var out []upstream.HRTimeOffRequest
		reqURL := fmt.Sprintf("%s/api/gateway.php/%s/v1/time_off/requests?%s", c.baseURL, c.companyID, params.Encode())
		if err := c.api.getJSON(ctx, reqURL, c.header(), &out); err != nil {
			return nil, fmt.Errorf("time off requests failed: %w", err)
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}
	return *resp, nil
}
