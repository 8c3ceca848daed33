// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

// Package sync implements the ingestion pipeline: scheduled fetch from the
// three upstream sources, normalization, idempotent upsert into the store,
// and stale-row reconciliation, with per-run error accumulation and a
// persisted summary for every invocation.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/config"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/logging"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/metrics"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/models"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/store"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/syncrun"
)

// Storage is the persistence surface the pipeline drives. Implemented by
// *store.Store; narrowed to an interface so pipeline tests can substitute a
// recording fake.
type Storage interface {
	UpsertTrackerEntries(ctx context.Context, rows []models.TrackerEntry, runID string, syncedAt time.Time, batchSize int) store.UpsertResult
	UpsertTimeTrackingEntries(ctx context.Context, rows []models.TimeTrackingEntry, runID string, syncedAt time.Time, batchSize int) store.UpsertResult
	UpsertEmployees(ctx context.Context, rows []models.Employee, runID string, syncedAt time.Time, batchSize int) store.UpsertResult
	UpsertTimeOff(ctx context.Context, rows []models.TimeOffEntry, runID string, syncedAt time.Time, batchSize int) store.UpsertResult
	Reconcile(ctx context.Context, run syncrun.Sealed) (store.DeletionResult, error)
	AcquireLease(ctx context.Context, source, scopeKey, runID string, ttl time.Duration) (bool, error)
	ReleaseLease(ctx context.Context, source, scopeKey, runID string) error
	InsertRunSummary(ctx context.Context, summary models.RunSummary) error
}

// Pipeline executes one source's full sync cycle: window resolution, lease
// acquisition, fetch, normalize, upsert, gated reconciliation, and summary
// persistence.
type Pipeline struct {
	cfg          *config.Config
	storage      Storage
	tracker      TrackerClientInterface
	timeTracking TimeTrackingClientInterface
	hr           HRClientInterface

	// now is replaceable in tests to pin the ingestion window.
	now func() time.Time
}

// NewPipeline creates a pipeline over the given storage and source clients.
// A client may be nil when its source is disabled.
func NewPipeline(cfg *config.Config, storage Storage, tracker TrackerClientInterface, timeTracking TimeTrackingClientInterface, hr HRClientInterface) *Pipeline {
	return &Pipeline{
		cfg:          cfg,
		storage:      storage,
		tracker:      tracker,
		timeTracking: timeTracking,
		hr:           hr,
		now:          time.Now,
	}
}

// SyncSource runs one full pipeline cycle for the source. The returned error
// reflects fatal failures only; partial failures are recorded on the run's
// persisted summary.
func (p *Pipeline) SyncSource(ctx context.Context, source models.Source) error {
	switch source {
	case models.SourceTracker:
		if p.tracker == nil {
			return fmt.Errorf("tracker source is not configured")
		}
		return p.runSource(ctx, source, p.cfg.Tracker.WorkspaceID, p.syncTracker)
	case models.SourceTimeTracking:
		if p.timeTracking == nil {
			return fmt.Errorf("timetracking source is not configured")
		}
		return p.runSource(ctx, source, p.cfg.TimeTracking.WorkspaceID, p.syncTimeTracking)
	case models.SourceHR:
		if p.hr == nil {
			return fmt.Errorf("hr source is not configured")
		}
		return p.runSource(ctx, source, p.cfg.HR.CompanyID, p.syncHR)
	default:
		return fmt.Errorf("unknown source %q", source)
	}
}

// runSource drives the stages shared by every source around the per-source
// fetch/normalize/upsert closure. Every invocation persists a summary,
// including lease rejections and fatal fetch failures.
func (p *Pipeline) runSource(ctx context.Context, source models.Source, scopeKey string, work func(ctx context.Context, run *syncrun.Run) store.UpsertResult) error {
	started := time.Now()
	window := syncrun.Resolve(p.now())
	run := syncrun.NewRun(source, scopeKey, window)

	logging.Info().
		Str("source", string(source)).
		Str("run_id", run.ID()).
		Str("scope_key", scopeKey).
		Time("range_start", window.Start).
		Time("range_end", window.End).
		Msg("Sync run starting")

	acquired, err := p.storage.AcquireLease(ctx, string(source), scopeKey, run.ID(), p.cfg.Sync.LeaseTTL)
	if err != nil {
		return fmt.Errorf("lease acquisition for %s failed: %w", source, err)
	}
	if !acquired {
		run.RecordError(syncrun.ErrTypeLease, scopeKey, "another run holds the scope lease", true)
		metrics.SyncErrors.WithLabelValues(string(source), syncrun.ErrTypeLease).Inc()
		p.finish(ctx, run.Seal(), store.UpsertResult{}, store.DeletionResult{Skipped: true, Reason: "lease held"}, nil, started, "lease_held")
		return nil
	}
	defer func() {
		if releaseErr := p.storage.ReleaseLease(context.WithoutCancel(ctx), string(source), scopeKey, run.ID()); releaseErr != nil {
			logging.Error().Err(releaseErr).Str("source", string(source)).Msg("Lease release failed")
		}
	}()

	upsert := work(ctx, run)
	sealed := run.Seal()

	for _, e := range sealed.Errors() {
		metrics.SyncErrors.WithLabelValues(string(source), e.Type).Inc()
	}

	// Reconciliation is gated twice: the store refuses incomplete fetches,
	// and the pipeline refuses runs with failed upsert batches, whose rows
	// would be missing the new run stamp and wrongly counted stale.
	var (
		recon    store.DeletionResult
		reconErr error
	)
	switch {
	case upsert.Failed > 0:
		recon = store.DeletionResult{Skipped: true, Reason: "upsert failures"}
		metrics.ReconcileSkipped.WithLabelValues(string(source)).Inc()
		logging.Warn().
			Str("source", string(source)).
			Str("run_id", sealed.ID()).
			Int("failed_rows", upsert.Failed).
			Msg("Reconciliation skipped: upsert failures")
	default:
		recon, reconErr = p.storage.Reconcile(ctx, sealed)
	}

	outcome := runOutcome(sealed, upsert, reconErr)
	p.finish(ctx, sealed, upsert, recon, reconErr, started, outcome)

	if outcome == "complete" {
		metrics.SyncLastSuccessTimestamp.WithLabelValues(string(source)).SetToCurrentTime()
	}
	return nil
}

// finish records metrics and persists the run summary. Summary persistence
// is best-effort: its failure is logged but never fails the run.
func (p *Pipeline) finish(ctx context.Context, sealed syncrun.Sealed, upsert store.UpsertResult, recon store.DeletionResult, reconErr error, started time.Time, outcome string) {
	source := string(sealed.Source())

	summary := sealed.Summary(upsert.Written, upsert.Failed, int(recon.Deleted))
	if reconErr != nil {
		summary.Errors = append(summary.Errors, models.RunError{
			Type:    syncrun.ErrTypeReconcile,
			Context: sealed.ScopeKey(),
			Message: reconErr.Error(),
		})
		summary.ErrorCount++
		metrics.SyncErrors.WithLabelValues(source, syncrun.ErrTypeReconcile).Inc()
	}

	metrics.SyncDuration.WithLabelValues(source).Observe(time.Since(started).Seconds())
	metrics.SyncRunsTotal.WithLabelValues(source, outcome).Inc()
	metrics.SyncRecordsFetched.WithLabelValues(source).Add(float64(summary.RecordCounts[syncrun.CountFetched]))
	metrics.SyncRowsWritten.WithLabelValues(source).Add(float64(upsert.Written))
	metrics.SyncRowsFailed.WithLabelValues(source).Add(float64(upsert.Failed))

	if err := p.storage.InsertRunSummary(context.WithoutCancel(ctx), summary); err != nil {
		logging.Error().Err(err).
			Str("source", source).
			Str("run_id", sealed.ID()).
			Msg("Run summary persistence failed")
	}

	logging.Info().
		Str("source", source).
		Str("run_id", sealed.ID()).
		Str("outcome", outcome).
		Bool("fetch_complete", sealed.FetchComplete()).
		Int("written", upsert.Written).
		Int("failed", upsert.Failed).
		Int64("deleted", recon.Deleted).
		Int("errors", summary.ErrorCount).
		Dur("duration", time.Since(started)).
		Msg("Sync run finished")
}

// runOutcome classifies a finished run for metrics.
func runOutcome(sealed syncrun.Sealed, upsert store.UpsertResult, reconErr error) string {
	switch {
	case !sealed.FetchComplete() && upsert.Written == 0:
		return "failed"
	case !sealed.FetchComplete() || upsert.Failed > 0 || reconErr != nil:
		return "partial"
	default:
		return "complete"
	}
}

func (p *Pipeline) syncTracker(ctx context.Context, run *syncrun.Run) store.UpsertResult {
	raw, spaceNames, err := fetchTrackerEntries(ctx, p.tracker, run, &p.cfg.Sync)
	if err != nil {
		return store.UpsertResult{}
	}
	rows := normalizeTrackerEntries(raw, spaceNames, run)
	result := p.storage.UpsertTrackerEntries(ctx, rows, run.ID(), run.StartedAt(), p.cfg.Sync.UpsertBatchSize)
	recordBatchFailures(run, "tracker_entries", result)
	return result
}

func (p *Pipeline) syncTimeTracking(ctx context.Context, run *syncrun.Run) store.UpsertResult {
	raw, err := fetchTimeTrackingEntries(ctx, p.timeTracking, run, &p.cfg.Sync, &p.cfg.TimeTracking)
	if err != nil {
		return store.UpsertResult{}
	}
	rows := normalizeTimeTrackingEntries(raw, run)
	result := p.storage.UpsertTimeTrackingEntries(ctx, rows, run.ID(), run.StartedAt(), p.cfg.Sync.UpsertBatchSize)
	recordBatchFailures(run, "time_tracking_entries", result)
	return result
}

func (p *Pipeline) syncHR(ctx context.Context, run *syncrun.Run) store.UpsertResult {
	employees, timeOff, err := fetchHRData(ctx, p.hr, run, &p.cfg.Sync)
	if err != nil {
		return store.UpsertResult{}
	}

	empRows := normalizeEmployees(employees, run)
	empResult := p.storage.UpsertEmployees(ctx, empRows, run.ID(), run.StartedAt(), p.cfg.Sync.UpsertBatchSize)
	recordBatchFailures(run, "hr_employees", empResult)

	toRows := normalizeTimeOff(timeOff, run)
	toResult := p.storage.UpsertTimeOff(ctx, toRows, run.ID(), run.StartedAt(), p.cfg.Sync.UpsertBatchSize)
	recordBatchFailures(run, "hr_time_off", toResult)

	return store.UpsertResult{
		Written:       empResult.Written + toResult.Written,
		Failed:        empResult.Failed + toResult.Failed,
		FailedBatches: append(empResult.FailedBatches, toResult.FailedBatches...),
	}
}

// recordBatchFailures copies upsert batch failures onto the run with table
// and batch attribution. Batch failures do not clear fetchComplete; the
// pipeline gates reconciliation on them separately.
func recordBatchFailures(run *syncrun.Run, table string, result store.UpsertResult) {
	for _, bf := range result.FailedBatches {
		run.RecordError(syncrun.ErrTypeBatchWrite,
			fmt.Sprintf("%s batch:%d rows:%d", table, bf.Index, bf.Rows),
			bf.Error, false)
	}
}
