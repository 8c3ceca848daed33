// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

package sync

import (
	"context"
	"math"
	"time"

	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/logging"
)

// Display fallbacks applied during normalization so downstream reporting
// never renders an empty label.
const (
	fallbackSubject   = "Unknown"
	fallbackContainer = "No Project"
)

// retryWithBackoff runs fn up to attempts times with exponential backoff
// starting at baseDelay. It returns the last error if every attempt fails
// and aborts early when the context is cancelled.
func retryWithBackoff(ctx context.Context, attempts int, baseDelay time.Duration, op string, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := baseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < attempts {
			logging.Warn().
				Str("operation", op).
				Int("attempt", attempt).
				Int("max_attempts", attempts).
				Dur("retry_in", delay).
				Err(lastErr).
				Msg("Operation failed, retrying")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return lastErr
}

// roundUpToQuarterHour converts an elapsed duration in seconds to whole
// minutes, rounded up to the next 15 minute increment. Non-positive input
// rounds to zero.
func roundUpToQuarterHour(seconds int64) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Ceil(float64(seconds)/900.0)) * 15
}

// orFallback returns s unless it is empty, in which case it returns the
// fallback label.
func orFallback(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
