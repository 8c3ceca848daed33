// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// The lease table provides run mutual exclusion per (source, scope): a run
// acquires the lease before fetching and releases it after reconcile or
// failure, so an overlapping trigger (manual re-run during a scheduled run)
// cannot interleave writes under the same scope key. An expired lease left
// by a crashed run is reclaimable.

func leaseKey(source, scopeKey string) string {
	return source + ":" + scopeKey
}

// AcquireLease attempts to take the (source, scope) lease for runID with the
// given TTL. Returns false when a live lease is held by another run.
func (s *Store) AcquireLease(ctx context.Context, source, scopeKey, runID string, ttl time.Duration) (bool, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	key := leaseKey(source, scopeKey)
	now := time.Now().UTC()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin lease transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		holder  string
		expires time.Time
	)
	err = tx.QueryRowContext(ctx,
		"SELECT holder_run_id, expires_at FROM sync_leases WHERE lease_key = ?", key,
	).Scan(&holder, &expires)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			"INSERT INTO sync_leases (lease_key, holder_run_id, acquired_at, expires_at) VALUES (?, ?, ?, ?)",
			key, runID, now, now.Add(ttl),
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert lease %s: %w", key, err)
		}
	case err != nil:
		return false, fmt.Errorf("failed to read lease %s: %w", key, err)
	case expires.After(now):
		// Live lease held by another run.
		return false, nil
	default:
		// Expired lease: reclaim it.
		_, err = tx.ExecContext(ctx,
			"UPDATE sync_leases SET holder_run_id = ?, acquired_at = ?, expires_at = ? WHERE lease_key = ?",
			runID, now, now.Add(ttl), key,
		)
		if err != nil {
			return false, fmt.Errorf("failed to reclaim lease %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit lease %s: %w", key, err)
	}
	return true, nil
}

// ReleaseLease releases the lease if runID still holds it. Releasing a
// lease another run has since reclaimed is a no-op.
func (s *Store) ReleaseLease(ctx context.Context, source, scopeKey, runID string) error {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	_, err := s.conn.ExecContext(ctx,
		"DELETE FROM sync_leases WHERE lease_key = ? AND holder_run_id = ?",
		leaseKey(source, scopeKey), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to release lease: %w", err)
	}
	return nil
}
