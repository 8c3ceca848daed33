// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

// Package metrics provides Prometheus metrics for the sync pipeline,
// store, upstream clients, and operational API. Metrics are exposed at
// /metrics in Prometheus text format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync pipeline metrics
	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_duration_seconds",
			Help:    "Duration of full pipeline runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"source"},
	)

	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"source", "outcome"}, // outcome: complete, partial, failed
	)

	SyncRecordsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_records_fetched_total",
			Help: "Total raw records fetched from upstream sources",
		},
		[]string{"source"},
	)

	SyncRowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_rows_written_total",
			Help: "Total normalized rows written to the store",
		},
		[]string{"source"},
	)

	SyncRowsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_rows_failed_total",
			Help: "Total rows not written because their batch failed",
		},
		[]string{"source"},
	)

	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_errors_total",
			Help: "Total errors recorded on pipeline runs",
		},
		[]string{"source", "error_type"},
	)

	SyncLastSuccessTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sync_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last fully-complete run per source",
		},
		[]string{"source"},
	)

	// Reconciliation metrics
	ReconcileDeletedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_deleted_rows_total",
			Help: "Total stale rows deleted by reconciliation",
		},
		[]string{"source"},
	)

	ReconcileSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_skipped_total",
			Help: "Total reconciliations skipped because the run was incomplete",
		},
		[]string{"source"},
	)

	// Store metrics
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_query_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	UpsertBatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_upsert_batch_failures_total",
			Help: "Total upsert batches that failed to apply",
		},
		[]string{"table"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Circuit breaker request outcomes",
		},
		[]string{"name", "outcome"}, // outcome: success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)
)

// ObserveStoreQuery records the duration of a store operation.
func ObserveStoreQuery(operation, table string, start time.Time) {
	StoreQueryDuration.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}
