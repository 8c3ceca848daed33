// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks structural constraints (via validator struct tags) and the
// cross-field rules that tags cannot express: an enabled source must carry
// its connection settings, and at least one source must be enabled.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var errs []error

	if c.Tracker.Enabled {
		if c.Tracker.BaseURL == "" {
			errs = append(errs, errors.New("tracker.base_url is required when tracker is enabled"))
		}
		if c.Tracker.APIToken == "" {
			errs = append(errs, errors.New("tracker.api_token is required when tracker is enabled"))
		}
		if c.Tracker.WorkspaceID == "" {
			errs = append(errs, errors.New("tracker.workspace_id is required when tracker is enabled"))
		}
	}

	if c.TimeTracking.Enabled {
		if c.TimeTracking.BaseURL == "" {
			errs = append(errs, errors.New("timetracking.base_url is required when timetracking is enabled"))
		}
		if c.TimeTracking.APIKey == "" {
			errs = append(errs, errors.New("timetracking.api_key is required when timetracking is enabled"))
		}
		if c.TimeTracking.WorkspaceID == "" {
			errs = append(errs, errors.New("timetracking.workspace_id is required when timetracking is enabled"))
		}
	}

	if c.HR.Enabled {
		if c.HR.BaseURL == "" {
			errs = append(errs, errors.New("hr.base_url is required when hr is enabled"))
		}
		if c.HR.APIKey == "" {
			errs = append(errs, errors.New("hr.api_key is required when hr is enabled"))
		}
		if c.HR.CompanyID == "" {
			errs = append(errs, errors.New("hr.company_id is required when hr is enabled"))
		}
	}

	if !c.Tracker.Enabled && !c.TimeTracking.Enabled && !c.HR.Enabled {
		errs = append(errs, errors.New("at least one source must be enabled"))
	}

	if c.Sync.Interval <= 0 {
		errs = append(errs, errors.New("sync.interval must be positive"))
	}
	if c.Sync.RequestTimeout <= 0 {
		errs = append(errs, errors.New("sync.request_timeout must be positive"))
	}
	if c.Sync.LeaseTTL <= 0 {
		errs = append(errs, errors.New("sync.lease_ttl must be positive"))
	}

	return errors.Join(errs...)
}
