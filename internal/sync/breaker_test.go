// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

package sync

import (
	"errors"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"
)

func TestExecuteReturnsTypedResult(t *testing.T) {
	cb := newAPIBreaker("test-typed")

	type payload struct{ Value string }
	got, err := execute(cb, func() (*payload, error) {
		return &payload{Value: "ok"}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Value != "ok" {
		t.Errorf("expected ok, got %q", got.Value)
	}
}

func TestExecutePropagatesErrors(t *testing.T) {
	cb := newAPIBreaker("test-errors")

	wantErr := errors.New("upstream down")
	type payload struct{}
	_, err := execute(cb, func() (*payload, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped upstream error, got %v", err)
	}
}

func TestBreakerOpensAfterFailureRate(t *testing.T) {
	cb := newAPIBreaker("test-trip")

	type payload struct{}
	fail := func() (*payload, error) { return nil, errors.New("boom") }

	// Ten straight failures exceed the 60% trip ratio at the minimum
	// request count.
	for i := 0; i < 10; i++ {
		_, _ = execute(cb, fail)
	}

	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %v", cb.State())
	}

	_, err := execute(cb, fail)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState from open breaker, got %v", err)
	}
}

func TestBreakerStateHelpers(t *testing.T) {
	states := map[gobreaker.State]struct {
		value float64
		str   string
	}{
		gobreaker.StateClosed:   {0, "closed"},
		gobreaker.StateHalfOpen: {1, "half-open"},
		gobreaker.StateOpen:     {2, "open"},
	}
	for state, want := range states {
		if got := breakerStateValue(state); got != want.value {
			t.Errorf("value for %v: expected %v, got %v", state, want.value, got)
		}
		if got := breakerStateString(state); got != want.str {
			t.Errorf("string for %v: expected %q, got %q", state, want.str, got)
		}
	}
}
